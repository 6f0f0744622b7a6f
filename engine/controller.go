package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Answerer resolves free-text questions that carry no onboarding intent.
type Answerer interface {
	Answer(ctx context.Context, userID, text string) (string, error)
}

// Controller drives the per-user onboarding state machine. All session
// mutation flows through it, under the per-user lock.
type Controller struct {
	store     Store
	profiles  ProfileSource
	answerer  Answerer
	catalog   *Catalog
	roles     *RoleResolver
	parser    *Parser
	threshold int
	locks     *UserLocks
	logger    *slog.Logger
}

// ControllerConfig bundles the controller's collaborators.
type ControllerConfig struct {
	Store    Store
	Profiles ProfileSource
	Answerer Answerer
	Catalog  *Catalog
	Roles    *RoleResolver

	// ProfileThreshold is the completeness score required to advance past
	// the profile check, 0-100.
	ProfileThreshold int

	// Locks is the per-user lock registry. Components sharing sessions
	// must pass the same registry; nil gets the process-global one.
	Locks *UserLocks

	Logger *slog.Logger
}

// NewController validates the wiring and builds a controller.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if cfg.Profiles == nil {
		return nil, fmt.Errorf("profile source required")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("task catalog required")
	}
	if cfg.Roles == nil {
		return nil, fmt.Errorf("role resolver required")
	}
	if cfg.ProfileThreshold < 0 || cfg.ProfileThreshold > 100 {
		return nil, &ValidationError{Field: "profile_threshold", Message: "must be between 0 and 100"}
	}
	if cfg.Locks == nil {
		cfg.Locks = GlobalLocks()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Controller{
		store:     cfg.Store,
		profiles:  cfg.Profiles,
		answerer:  cfg.Answerer,
		catalog:   cfg.Catalog,
		roles:     cfg.Roles,
		parser:    NewParser(),
		threshold: cfg.ProfileThreshold,
		locks:     cfg.Locks,
		logger:    cfg.Logger,
	}, nil
}

// HandleMessage processes one inbound chat message and returns the
// response plan. Session mutations are persisted before the plan is
// returned; a store failure returns ErrEngineUnavailable and commits
// nothing the response would depend on.
func (c *Controller) HandleMessage(ctx context.Context, userID, text string, now time.Time) (*ResponsePlan, error) {
	intent := c.parser.Parse(text)

	// Profile fetches happen outside the per-user lock: fetch-then-apply.
	var profile *Profile
	var profileErr error
	if intent.Kind == IntentGreet || intent.Kind == IntentProfileUpdated {
		profile, profileErr = c.profiles.FetchProfile(ctx, userID)
	}

	unlock := c.locks.Lock(userID)
	defer unlock()

	sess, err := c.store.Get(ctx, userID)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		sess = NewSession(userID, now)
	case err != nil:
		return nil, unavailable("load session", err)
	}

	c.logger.Debug("Handling message",
		"user_id", userID,
		"intent", intent.Kind,
		"phase", sess.Phase)

	plan, mutated, err := c.dispatch(ctx, sess, intent, text, profile, profileErr, now)
	if err != nil {
		return nil, err
	}

	if mutated {
		if err := c.store.Put(ctx, sess); err != nil {
			return nil, unavailable("store session", err)
		}
	}

	plan.UserID = userID
	plan.Phase = sess.Phase
	return plan, nil
}

// dispatch routes an intent through the current phase. mutated reports
// whether the session changed and needs persisting.
func (c *Controller) dispatch(ctx context.Context, sess *Session, intent Intent, text string, profile *Profile, profileErr error, now time.Time) (plan *ResponsePlan, mutated bool, err error) {
	switch intent.Kind {
	case IntentGreet, IntentProfileUpdated:
		return c.handleProfileGate(sess, intent, profile, profileErr, now)

	case IntentStartTask:
		return c.handleStartTask(sess, intent.TaskIndex, now)

	case IntentCompleteTask:
		return c.handleCompleteTask(sess, intent.TaskIndex, now)

	case IntentHelpTask:
		return c.handleHelpTask(sess, intent.TaskIndex)

	case IntentShowTasks:
		return c.handleShowTasks(sess), false, nil

	default:
		plan, err := c.handleUnknown(ctx, sess, text)
		return plan, false, err
	}
}

// handleProfileGate runs the greeting / profile-updated path: check the
// profile, and either ask for completion or assign tasks. Greeting is
// idempotent; each entry re-fetches the profile state.
func (c *Controller) handleProfileGate(sess *Session, intent Intent, profile *Profile, profileErr error, now time.Time) (*ResponsePlan, bool, error) {
	if sess.HasTasks() {
		// Tasks exist: the re-check path is closed. Greetings and profile
		// updates are acknowledged without changing anything.
		if sess.Phase.IsTerminal() {
			return &ResponsePlan{Text: "Welcome back! You're fully onboarded. Ask me about policies any time."}, false, nil
		}
		if intent.Kind == IntentProfileUpdated {
			return &ResponsePlan{Text: "Thanks for keeping your profile current! Your tasks are unchanged.\n\n" + formatTaskList(sess)}, false, nil
		}
		return &ResponsePlan{Text: "Welcome back! Here's where you stand:\n\n" + formatTaskList(sess)}, false, nil
	}

	if profileErr != nil {
		// Degraded response: no mutation, user can retry.
		c.logger.Warn("Profile fetch failed", "user_id", sess.UserID, "error", profileErr)
		return &ResponsePlan{Text: formatUnavailable()}, false, nil
	}

	sess.ProfileScore = profile.Score
	sess.MissingFields = profile.MissingFields
	sess.JobTitle = profile.JobTitle

	if !profile.Complete(c.threshold) {
		sess.Phase = PhaseProfileCheck
		return &ResponsePlan{Text: formatProfileIncomplete(profile.Score, profile.MissingFields)}, true, nil
	}

	// Task assignment is an immediate internal step: resolve role, build
	// the catalog, initialize, land in monitoring.
	sess.Phase = PhaseTaskAssignment
	if err := c.assignTasks(sess, now); err != nil {
		return nil, false, err
	}
	sess.Phase = PhaseMonitoring

	c.logger.Info("Tasks assigned",
		"user_id", sess.UserID,
		"role", sess.Role,
		"task_count", len(sess.Tasks))

	return &ResponsePlan{Text: formatAssignment(sess)}, true, nil
}

// assignTasks resolves the role and attaches the instance set.
func (c *Controller) assignTasks(sess *Session, now time.Time) error {
	sess.Role = c.roles.Resolve(sess.JobTitle)
	instances := c.catalog.Build(sess.Role, now)
	if err := sess.InitializeTasks(instances); err != nil {
		c.logger.Error("Task initialization invariant violated",
			"user_id", sess.UserID,
			"error", err)
		return err
	}
	return nil
}

func (c *Controller) handleStartTask(sess *Session, index int, now time.Time) (*ResponsePlan, bool, error) {
	if !sess.HasTasks() {
		return c.noTasksYet(sess), false, nil
	}

	task, changed, err := sess.StartTask(index, now)
	if errors.Is(err, ErrInvalidTaskReference) {
		return c.badTaskIndex(sess, index), false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if !changed {
		if task.Status == TaskCompleted {
			return &ResponsePlan{Text: fmt.Sprintf("Task %d (%s) is already completed. Nice work!", task.Index, task.Title)}, false, nil
		}
		return &ResponsePlan{Text: fmt.Sprintf("You're already working on task %d (%s). Keep going!", task.Index, task.Title)}, false, nil
	}

	return &ResponsePlan{Text: fmt.Sprintf("Got it, you've started task %d: %s. It's due %s. Say \"help with task %d\" if you get stuck.",
		task.Index, task.Title, task.DueAt.Format("Monday, Jan 2"), task.Index)}, true, nil
}

func (c *Controller) handleCompleteTask(sess *Session, index int, now time.Time) (*ResponsePlan, bool, error) {
	if !sess.HasTasks() {
		return c.noTasksYet(sess), false, nil
	}

	task, changed, allDone, err := sess.CompleteTask(index, now)
	if errors.Is(err, ErrInvalidTaskReference) {
		return c.badTaskIndex(sess, index), false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if !changed {
		return &ResponsePlan{Text: fmt.Sprintf("Task %d (%s) was already marked completed.", task.Index, task.Title)}, false, nil
	}

	if allDone {
		sess.Phase = PhaseCompleted
		c.logger.Info("Onboarding completed", "user_id", sess.UserID)
		return &ResponsePlan{Text: formatCompletion(sess)}, true, nil
	}

	remaining := sess.OpenTaskCount()
	return &ResponsePlan{Text: fmt.Sprintf("Task %d (%s) completed, well done! %d to go.\n\n%s",
		task.Index, task.Title, remaining, formatTaskList(sess))}, true, nil
}

func (c *Controller) handleHelpTask(sess *Session, index int) (*ResponsePlan, bool, error) {
	if !sess.HasTasks() {
		return c.noTasksYet(sess), false, nil
	}

	task, err := sess.TaskByIndex(index)
	if errors.Is(err, ErrInvalidTaskReference) {
		return c.badTaskIndex(sess, index), false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &ResponsePlan{Text: formatTaskDetail(task)}, false, nil
}

func (c *Controller) handleShowTasks(sess *Session) *ResponsePlan {
	if !sess.HasTasks() {
		return c.noTasksYet(sess)
	}
	return &ResponsePlan{Text: formatTaskList(sess)}
}

// handleUnknown routes unmatched text to the Q&A fallback.
func (c *Controller) handleUnknown(ctx context.Context, sess *Session, text string) (*ResponsePlan, error) {
	if c.answerer == nil {
		return &ResponsePlan{Text: "I didn't catch that. Try \"show my tasks\", \"help with task N\", or ask me about a company policy."}, nil
	}

	answer, err := c.answerer.Answer(ctx, sess.UserID, text)
	if err != nil {
		c.logger.Warn("Answerer failed", "user_id", sess.UserID, "error", err)
		return &ResponsePlan{Text: formatUnavailable()}, nil
	}
	return &ResponsePlan{Text: answer}, nil
}

// noTasksYet tells a pre-assignment user what to do next.
func (c *Controller) noTasksYet(sess *Session) *ResponsePlan {
	if sess.Phase == PhaseProfileCheck {
		return &ResponsePlan{Text: formatProfileIncomplete(sess.ProfileScore, sess.MissingFields)}
	}
	return &ResponsePlan{Text: "You don't have onboarding tasks yet. Say hello and I'll get you set up!"}
}

// badTaskIndex is the corrective response for an out-of-range reference.
func (c *Controller) badTaskIndex(sess *Session, index int) *ResponsePlan {
	return &ResponsePlan{Text: fmt.Sprintf("There's no task %d. You have %d tasks; say \"show my tasks\" to see them.", index, len(sess.Tasks))}
}

// EvaluateUser runs one reminder evaluation for a single user under the
// per-user lock. Stage stamps are persisted before the events are
// returned, so a stage never fires twice even across restarts.
func (c *Controller) EvaluateUser(ctx context.Context, userID string, policy ReminderPolicy, now time.Time) ([]NotificationEvent, error) {
	unlock := c.locks.Lock(userID)
	defer unlock()

	sess, err := c.store.Get(ctx, userID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("load session", err)
	}

	events := EvaluateReminders(sess, policy, now)
	if len(events) == 0 {
		return nil, nil
	}

	if err := c.store.Put(ctx, sess); err != nil {
		return nil, unavailable("store session", err)
	}

	return events, nil
}

// ActiveUserIDs lists users whose sessions still need reminder evaluation.
func (c *Controller) ActiveUserIDs(ctx context.Context) ([]string, error) {
	sessions, err := c.store.List(ctx)
	if err != nil {
		return nil, unavailable("list sessions", err)
	}

	var ids []string
	for _, sess := range sessions {
		if sess.Phase.IsTerminal() || !sess.HasTasks() {
			continue
		}
		ids = append(ids, sess.UserID)
	}
	return ids, nil
}
