// Package taskreminder provides a processor that scans onboarding
// sessions on a schedule and escalates overdue tasks: nudges to the user
// first, the manager when the task stays open.
package taskreminder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"

	"github.com/c360studio/onboard/engine"
)

// Component implements the task reminder processor.
type Component struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	logger     *slog.Logger

	controller *engine.Controller

	// Lifecycle
	running   bool
	startTime time.Time
	mu        sync.RWMutex
	cancel    context.CancelFunc

	// A scan that outlasts the tick interval must not stack another scan
	// on top of itself.
	scanInFlight atomic.Bool

	// Metrics
	checksPerformed atomic.Int64
	remindersSent   atomic.Int64
	escalationsSent atomic.Int64
	lastCheckMu     sync.RWMutex
	lastCheck       time.Time
}

// NewComponent creates a new task reminder processor.
func NewComponent(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	var config Config
	if err := json.Unmarshal(rawConfig, &config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Apply defaults
	defaults := DefaultConfig()
	if config.CheckInterval == 0 {
		config.CheckInterval = defaults.CheckInterval
	}
	if config.FirstReminder == 0 {
		config.FirstReminder = defaults.FirstReminder
	}
	if config.SecondReminder == 0 {
		config.SecondReminder = defaults.SecondReminder
	}
	if config.Escalation == 0 {
		config.Escalation = defaults.Escalation
	}
	if config.ManagerEmail == "" {
		config.ManagerEmail = defaults.ManagerEmail
	}
	if config.ProfileThreshold == 0 {
		config.ProfileThreshold = defaults.ProfileThreshold
	}
	if config.Ports == nil {
		config.Ports = defaults.Ports
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	store, err := engine.NewSessionStore(deps.NATSClient)
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}
	profiles, err := engine.NewDirectorySource(deps.NATSClient)
	if err != nil {
		return nil, fmt.Errorf("create profile source: %w", err)
	}
	catalog, err := engine.NewCatalog(engine.DefaultBaseTemplates(), engine.DefaultRoleTemplates())
	if err != nil {
		return nil, fmt.Errorf("create task catalog: %w", err)
	}
	roles, err := engine.NewRoleResolver(engine.DefaultRoleRules())
	if err != nil {
		return nil, fmt.Errorf("create role resolver: %w", err)
	}

	// The controller is shared state-wise with the onboarding agent
	// through the KV bucket and the process-global user locks.
	controller, err := engine.NewController(engine.ControllerConfig{
		Store:            store,
		Profiles:         profiles,
		Catalog:          catalog,
		Roles:            roles,
		ProfileThreshold: config.ProfileThreshold,
		Logger:           deps.GetLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("create controller: %w", err)
	}

	return &Component{
		name:       "task-reminder",
		config:     config,
		natsClient: deps.NATSClient,
		logger:     deps.GetLogger(),
		controller: controller,
	}, nil
}

// Initialize prepares the component.
func (c *Component) Initialize() error {
	c.logger.Debug("Initialized task-reminder",
		"check_interval", c.config.CheckInterval,
		"first_reminder", c.config.FirstReminder,
		"second_reminder", c.config.SecondReminder,
		"escalation", c.config.Escalation)
	return nil
}

// Start begins the reminder scan loop.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("component already running")
	}
	if c.natsClient == nil {
		c.mu.Unlock()
		return fmt.Errorf("NATS client required")
	}

	c.running = true
	c.startTime = time.Now()

	subCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	go c.checkLoop(subCtx)

	c.logger.Info("task-reminder started",
		"check_interval", c.config.CheckInterval,
		"manager_email", c.config.ManagerEmail)

	return nil
}

// checkLoop periodically scans sessions for due reminders.
func (c *Component) checkLoop(ctx context.Context) {
	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	// Run immediately on start
	c.scanSessions(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.scanSessions(ctx)
		}
	}
}

// scanSessions evaluates every active session once. Overlapping ticks are
// skipped, not queued.
func (c *Component) scanSessions(ctx context.Context) {
	if !c.scanInFlight.CompareAndSwap(false, true) {
		c.logger.Warn("Previous reminder scan still running, skipping tick")
		return
	}
	defer c.scanInFlight.Store(false)

	c.checksPerformed.Add(1)
	c.updateLastCheck()

	userIDs, err := c.controller.ActiveUserIDs(ctx)
	if err != nil {
		c.logger.Error("Failed to list active sessions", "error", err)
		return
	}

	c.logger.Debug("Scanning sessions for due reminders", "active_users", len(userIDs))

	now := time.Now().UTC()
	for _, userID := range userIDs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		events, err := c.controller.EvaluateUser(ctx, userID, c.config.Policy(), now)
		if err != nil {
			c.logger.Warn("Failed to evaluate reminders",
				"user_id", userID,
				"error", err)
			continue
		}

		for _, event := range events {
			if err := c.publishNotification(ctx, event); err != nil {
				c.logger.Warn("Failed to publish notification",
					"user_id", event.UserID,
					"task_index", event.TaskIndex,
					"stage", event.Stage,
					"error", err)
			}
		}
	}
}

// publishNotification routes a reminder event to chat or, for
// escalations, to the manager's email channel.
func (c *Component) publishNotification(ctx context.Context, event engine.NotificationEvent) error {
	payload := engine.ReminderPayload{
		UserID:    event.UserID,
		TaskIndex: event.TaskIndex,
		TaskTitle: event.TaskTitle,
		Stage:     string(event.Stage),
		DueAt:     event.DueAt,
		FiredAt:   event.FiredAt,
	}

	var subject string
	if event.Stage == engine.StageEscalation {
		payload.ManagerEmail = c.config.ManagerEmail
		subject = fmt.Sprintf("notify.email.%s", event.UserID)
		c.escalationsSent.Add(1)
		c.logger.Info("Escalating overdue task",
			"user_id", event.UserID,
			"task_index", event.TaskIndex,
			"task_title", event.TaskTitle,
			"manager_email", c.config.ManagerEmail)
	} else {
		subject = fmt.Sprintf("notify.chat.%s", event.UserID)
		c.remindersSent.Add(1)
		c.logger.Info("Sending task reminder",
			"user_id", event.UserID,
			"task_index", event.TaskIndex,
			"stage", event.Stage)
	}

	baseMsg := message.NewBaseMessage(engine.ReminderType, &payload, "task-reminder")
	data, err := json.Marshal(baseMsg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := c.natsClient.PublishToStream(ctx, subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}

	return nil
}

// Stop gracefully stops the component.
func (c *Component) Stop(_ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	c.running = false
	c.logger.Info("task-reminder stopped",
		"checks_performed", c.checksPerformed.Load(),
		"reminders_sent", c.remindersSent.Load(),
		"escalations_sent", c.escalationsSent.Load())

	return nil
}

// Meta returns component metadata.
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		Name:        "task-reminder",
		Type:        "processor",
		Description: "Scans onboarding sessions and escalates overdue tasks",
		Version:     "0.1.0",
	}
}

// InputPorts returns configured input port definitions.
func (c *Component) InputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Inputs))
	for i, portDef := range c.config.Ports.Inputs {
		ports[i] = component.Port{
			Name:        portDef.Name,
			Direction:   component.DirectionInput,
			Required:    portDef.Required,
			Description: portDef.Description,
			Config: component.NATSPort{
				Subject: portDef.Subject,
			},
		}
	}
	return ports
}

// OutputPorts returns configured output port definitions.
func (c *Component) OutputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Outputs))
	for i, portDef := range c.config.Ports.Outputs {
		ports[i] = component.Port{
			Name:        portDef.Name,
			Direction:   component.DirectionOutput,
			Required:    portDef.Required,
			Description: portDef.Description,
			Config: component.NATSPort{
				Subject: portDef.Subject,
			},
		}
	}
	return ports
}

// ConfigSchema returns the configuration schema.
func (c *Component) ConfigSchema() component.ConfigSchema {
	return reminderSchema
}

// Health returns the current health status.
func (c *Component) Health() component.HealthStatus {
	c.mu.RLock()
	running := c.running
	startTime := c.startTime
	c.mu.RUnlock()

	status := "stopped"
	if running {
		status = "running"
	}

	return component.HealthStatus{
		Healthy:    running,
		LastCheck:  time.Now(),
		ErrorCount: 0,
		Uptime:     time.Since(startTime),
		Status:     status,
	}
}

// DataFlow returns current data flow metrics.
func (c *Component) DataFlow() component.FlowMetrics {
	return component.FlowMetrics{
		MessagesPerSecond: 0,
		BytesPerSecond:    0,
		ErrorRate:         0,
		LastActivity:      c.getLastCheck(),
	}
}

func (c *Component) updateLastCheck() {
	c.lastCheckMu.Lock()
	c.lastCheck = time.Now()
	c.lastCheckMu.Unlock()
}

func (c *Component) getLastCheck() time.Time {
	c.lastCheckMu.RLock()
	defer c.lastCheckMu.RUnlock()
	return c.lastCheck
}
