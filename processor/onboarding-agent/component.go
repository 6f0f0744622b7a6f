// Package onboardingagent provides the processor that drives onboarding
// conversations: it consumes inbound chat messages, runs them through the
// workflow engine, and publishes responses.
package onboardingagent

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
	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/onboard/engine"
	"github.com/c360studio/onboard/knowledge"
)

// Component implements the onboarding agent processor.
type Component struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	logger     *slog.Logger

	controller *engine.Controller
	base       *knowledge.Base
	loader     *knowledge.Loader
	watcher    *knowledge.Watcher

	// Lifecycle
	running   bool
	startTime time.Time
	mu        sync.RWMutex
	cancel    context.CancelFunc

	// Metrics
	messagesHandled atomic.Int64
	responsesSent   atomic.Int64
	errors          atomic.Int64
	lastActivityMu  sync.RWMutex
	lastActivity    time.Time
}

// NewComponent creates a new onboarding agent processor.
func NewComponent(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	var config Config
	if err := json.Unmarshal(rawConfig, &config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Apply defaults
	defaults := DefaultConfig()
	if config.StreamName == "" {
		config.StreamName = defaults.StreamName
	}
	if config.ConsumerName == "" {
		config.ConsumerName = defaults.ConsumerName
	}
	if config.ProfileThreshold == 0 {
		config.ProfileThreshold = defaults.ProfileThreshold
	}
	if config.SourcesDir == "" {
		config.SourcesDir = defaults.SourcesDir
	}
	if config.Ports == nil {
		config.Ports = defaults.Ports
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := deps.GetLogger()

	store, err := engine.NewSessionStore(deps.NATSClient)
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}
	profiles, err := engine.NewDirectorySource(deps.NATSClient)
	if err != nil {
		return nil, fmt.Errorf("create profile source: %w", err)
	}

	base, err := knowledge.NewBase(knowledge.DefaultTopics(), &questionForwarder{natsClient: deps.NATSClient}, logger)
	if err != nil {
		return nil, fmt.Errorf("create knowledge base: %w", err)
	}
	loader := knowledge.NewLoader(config.SourcesDir, logger)

	roleRules := config.Roles
	if len(roleRules) == 0 {
		roleRules = engine.DefaultRoleRules()
	}
	roles, err := engine.NewRoleResolver(roleRules)
	if err != nil {
		return nil, fmt.Errorf("create role resolver: %w", err)
	}

	baseTasks := config.BaseTasks
	if len(baseTasks) == 0 {
		baseTasks = engine.DefaultBaseTemplates()
	}
	roleTasks := config.RoleTasks
	if len(roleTasks) == 0 {
		roleTasks = engine.DefaultRoleTemplates()
	}
	catalog, err := engine.NewCatalog(baseTasks, roleTasks)
	if err != nil {
		return nil, fmt.Errorf("create task catalog: %w", err)
	}

	controller, err := engine.NewController(engine.ControllerConfig{
		Store:            store,
		Profiles:         profiles,
		Answerer:         base,
		Catalog:          catalog,
		Roles:            roles,
		ProfileThreshold: config.ProfileThreshold,
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create controller: %w", err)
	}

	return &Component{
		name:       "onboarding-agent",
		config:     config,
		natsClient: deps.NATSClient,
		logger:     logger,
		controller: controller,
		base:       base,
		loader:     loader,
	}, nil
}

// Initialize loads the policy knowledge base.
func (c *Component) Initialize() error {
	docs, err := c.loader.Load()
	if err != nil {
		// The agent can still run task flows without policy documents.
		c.logger.Warn("Policy documents unavailable",
			"sources_dir", c.config.SourcesDir,
			"error", err)
		return nil
	}
	c.base.SetDocuments(docs)

	c.logger.Debug("Initialized onboarding-agent",
		"stream", c.config.StreamName,
		"policy_documents", len(docs))
	return nil
}

// Start begins consuming chat messages.
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

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	go c.consumeMessages(runCtx)

	if c.config.WatchPolicies {
		watcher, err := knowledge.NewWatcher(c.config.SourcesDir, 0, c.loader, c.base, c.logger)
		if err != nil {
			c.logger.Error("Failed to create policy watcher", "error", err)
		} else {
			c.watcher = watcher
			if err := watcher.Start(runCtx); err != nil {
				c.logger.Error("Failed to start policy watcher", "error", err)
			}
		}
	}

	c.logger.Info("onboarding-agent started",
		"stream", c.config.StreamName,
		"consumer", c.config.ConsumerName,
		"profile_threshold", c.config.ProfileThreshold,
		"watching_policies", c.config.WatchPolicies)

	return nil
}

// consumeMessages processes inbound chat messages from the stream.
func (c *Component) consumeMessages(ctx context.Context) {
	js, err := c.natsClient.JetStream()
	if err != nil {
		c.logger.Error("Failed to get JetStream context", "error", err)
		return
	}

	stream, err := js.Stream(ctx, c.config.StreamName)
	if err != nil {
		c.logger.Error("Failed to get stream", "error", err, "stream", c.config.StreamName)
		return
	}

	consumerConfig := jetstream.ConsumerConfig{
		Durable:       c.config.ConsumerName,
		FilterSubject: "chat.message.in.>",
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       60 * time.Second,
		MaxDeliver:    3,
	}
	consumer, err := stream.CreateOrUpdateConsumer(ctx, consumerConfig)
	if err != nil {
		c.logger.Error("Failed to create consumer", "error", err, "stream", c.config.StreamName, "consumer", c.config.ConsumerName)
		return
	}

	c.logger.Info("Consumer connected", "stream", c.config.StreamName, "consumer", c.config.ConsumerName)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := consumer.Fetch(1, jetstream.FetchMaxWait(5*time.Second))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue // Timeout, try again
		}

		for msg := range msgs.Messages() {
			select {
			case <-ctx.Done():
				_ = msg.Nak()
				return
			default:
				c.handleMessage(ctx, msg)
			}
		}
	}
}

// handleMessage runs one chat message through the engine and replies.
func (c *Component) handleMessage(ctx context.Context, msg jetstream.Msg) {
	c.updateLastActivity()
	c.messagesHandled.Add(1)

	inbound, err := decodeChatMessage(msg.Data())
	if err != nil {
		c.logger.Warn("Failed to parse chat message", "error", err)
		c.errors.Add(1)
		// Malformed payloads never become valid on redelivery.
		_ = msg.Ack()
		return
	}

	plan, err := c.controller.HandleMessage(ctx, inbound.UserID, inbound.Text, time.Now().UTC())
	if err != nil {
		c.logger.Error("Failed to handle message",
			"user_id", inbound.UserID,
			"error", err)
		c.errors.Add(1)
		_ = msg.Nak()
		return
	}

	if err := c.publishResponse(ctx, plan); err != nil {
		c.logger.Error("Failed to publish response",
			"user_id", inbound.UserID,
			"error", err)
		c.errors.Add(1)
		_ = msg.Nak()
		return
	}

	c.responsesSent.Add(1)
	_ = msg.Ack()

	c.logger.Debug("Message handled",
		"user_id", inbound.UserID,
		"phase", plan.Phase)
}

// decodeChatMessage accepts both bare payloads and full message envelopes.
func decodeChatMessage(data []byte) (*engine.ChatMessagePayload, error) {
	var payload engine.ChatMessagePayload
	if err := json.Unmarshal(data, &payload); err == nil && payload.Validate() == nil {
		return &payload, nil
	}

	var envelope struct {
		Payload engine.ChatMessagePayload `json:"payload"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parse chat message: %w", err)
	}
	if err := envelope.Payload.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chat message: %w", err)
	}
	return &envelope.Payload, nil
}

// publishResponse sends the engine's reply back on the chat stream.
func (c *Component) publishResponse(ctx context.Context, plan *engine.ResponsePlan) error {
	response := engine.ResponsePayload{
		UserID:    plan.UserID,
		Text:      plan.Text,
		Phase:     plan.Phase.String(),
		CreatedAt: time.Now().UTC(),
	}

	baseMsg := message.NewBaseMessage(engine.ResponseType, &response, "onboarding-agent")
	data, err := json.Marshal(baseMsg)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	subject := fmt.Sprintf("chat.message.out.%s", plan.UserID)
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

	if c.watcher != nil {
		_ = c.watcher.Stop()
	}
	if c.cancel != nil {
		c.cancel()
	}

	c.running = false
	c.logger.Info("onboarding-agent stopped",
		"messages_handled", c.messagesHandled.Load(),
		"responses_sent", c.responsesSent.Load(),
		"errors", c.errors.Load())

	return nil
}

// Meta returns component metadata.
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		Name:        "onboarding-agent",
		Type:        "processor",
		Description: "Drives onboarding conversations and task tracking",
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
	return agentSchema
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
		ErrorCount: int(c.errors.Load()),
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
		LastActivity:      c.getLastActivity(),
	}
}

func (c *Component) updateLastActivity() {
	c.lastActivityMu.Lock()
	c.lastActivity = time.Now()
	c.lastActivityMu.Unlock()
}

func (c *Component) getLastActivity() time.Time {
	c.lastActivityMu.RLock()
	defer c.lastActivityMu.RUnlock()
	return c.lastActivity
}

// questionForwarder publishes unanswerable questions to the QA stream for
// a human to pick up.
type questionForwarder struct {
	natsClient *natsclient.Client
}

// ForwardedQuestion is the QA stream payload for a forwarded question.
type ForwardedQuestion struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Question string    `json:"question"`
	AskedAt  time.Time `json:"asked_at"`
}

// Forward implements knowledge.Forwarder.
func (f *questionForwarder) Forward(ctx context.Context, userID, question string) error {
	data, err := json.Marshal(&ForwardedQuestion{
		ID:       uuid.New().String(),
		UserID:   userID,
		Question: question,
		AskedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal question: %w", err)
	}

	subject := fmt.Sprintf("qa.question.%s", userID)
	if err := f.natsClient.PublishToStream(ctx, subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}
