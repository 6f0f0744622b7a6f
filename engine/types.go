// Package engine provides the onboarding workflow engine: per-user phase
// progression, role-based task instantiation, intent handling, and
// time-driven reminder evaluation.
package engine

import (
	"time"
)

// Phase represents where a user currently sits in the onboarding flow.
type Phase string

const (
	// PhaseAwaitingGreeting indicates the user has not yet greeted the assistant.
	PhaseAwaitingGreeting Phase = "awaiting_greeting"
	// PhaseProfileCheck indicates the user's profile is below the completeness threshold.
	PhaseProfileCheck Phase = "profile_check"
	// PhaseTaskAssignment indicates tasks are being instantiated for the user.
	// This phase is internal: a session never rests here between messages.
	PhaseTaskAssignment Phase = "task_assignment"
	// PhaseMonitoring indicates tasks are assigned and progress is being tracked.
	PhaseMonitoring Phase = "monitoring"
	// PhaseCompleted indicates every assigned task has been completed.
	PhaseCompleted Phase = "completed"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// IsValid returns true if the phase is a known onboarding phase.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseAwaitingGreeting, PhaseProfileCheck, PhaseTaskAssignment,
		PhaseMonitoring, PhaseCompleted:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once a user has finished onboarding.
func (p Phase) IsTerminal() bool {
	return p == PhaseCompleted
}

// CanTransitionTo returns true if the phase can transition to the target phase.
func (p Phase) CanTransitionTo(target Phase) bool {
	switch p {
	case PhaseAwaitingGreeting:
		// Greeting runs the profile check; a complete profile skips straight
		// to task assignment.
		return target == PhaseProfileCheck || target == PhaseTaskAssignment
	case PhaseProfileCheck:
		return target == PhaseTaskAssignment
	case PhaseTaskAssignment:
		// Re-check is only reachable while no tasks exist yet.
		return target == PhaseMonitoring || target == PhaseProfileCheck
	case PhaseMonitoring:
		return target == PhaseCompleted
	case PhaseCompleted:
		return false // Terminal state
	default:
		return false
	}
}

// TaskStatus represents the execution state of an assigned task.
// Transitions are monotonic: a task never moves backward.
type TaskStatus string

const (
	// TaskNotStarted indicates the task has been assigned but not begun.
	TaskNotStarted TaskStatus = "not_started"
	// TaskInProgress indicates the user has started working on the task.
	TaskInProgress TaskStatus = "in_progress"
	// TaskCompleted indicates the task is done. Terminal.
	TaskCompleted TaskStatus = "completed"
)

// String returns the string representation of the task status.
func (s TaskStatus) String() string {
	return string(s)
}

// IsValid returns true if the task status is valid.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskNotStarted, TaskInProgress, TaskCompleted:
		return true
	default:
		return false
	}
}

// CanTransitionTo returns true if this status can transition to the target status.
//
//	not_started → in_progress (user starts the task)
//	not_started → completed   (user completes without reporting a start)
//	in_progress → completed   (normal completion)
func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	switch s {
	case TaskNotStarted:
		return target == TaskInProgress || target == TaskCompleted
	case TaskInProgress:
		return target == TaskCompleted
	case TaskCompleted:
		return false // Terminal state
	default:
		return false
	}
}

// Priority indicates how urgent an onboarding task is.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// IsValid returns true if the priority is a known level.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// TaskInstance is a concrete task assigned to one user, derived from a
// TaskTemplate at assignment time. Indexes are 1-based and stable for the
// lifetime of the session.
type TaskInstance struct {
	// Index identifies the task in user-facing references ("task 3").
	Index int `json:"index"`

	// Title is the short task name shown in lists.
	Title string `json:"title"`

	// Description is the one-line summary of the work.
	Description string `json:"description"`

	// Priority indicates urgency.
	Priority Priority `json:"priority"`

	// Instructions is the step-by-step guidance shown on help requests.
	Instructions string `json:"instructions,omitempty"`

	// SuccessCriteria describes what "done" means for this task.
	SuccessCriteria string `json:"success_criteria,omitempty"`

	// Status is the current execution state.
	Status TaskStatus `json:"status"`

	// AssignedAt is when the task was instantiated for the user.
	AssignedAt time.Time `json:"assigned_at"`

	// DueAt is AssignedAt plus the template's deadline.
	DueAt time.Time `json:"due_at"`

	// StartedAt is when the user reported starting the task.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the user reported completing the task.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// FirstReminderSentAt records the first reminder. Set at most once,
	// only by the reminder path. Never affects Status.
	FirstReminderSentAt *time.Time `json:"first_reminder_sent_at,omitempty"`

	// SecondReminderSentAt records the second reminder. Set at most once.
	SecondReminderSentAt *time.Time `json:"second_reminder_sent_at,omitempty"`

	// EscalatedAt records the manager escalation. Set at most once.
	EscalatedAt *time.Time `json:"escalated_at,omitempty"`
}

// Overdue returns true when the task is past its deadline and not completed.
func (t *TaskInstance) Overdue(now time.Time) bool {
	return t.Status != TaskCompleted && now.After(t.DueAt)
}

// Session is the per-user onboarding state. It is owned by the Controller
// and mutated only through phase transitions and task operations.
type Session struct {
	// UserID identifies the user in the chat platform.
	UserID string `json:"user_id"`

	// Phase is the current onboarding phase.
	Phase Phase `json:"phase"`

	// Role is the resolved role tag (e.g. "ai_engineer"), set at task assignment.
	Role string `json:"role,omitempty"`

	// JobTitle is the raw job title from the identity source.
	JobTitle string `json:"job_title,omitempty"`

	// ProfileScore is the last observed profile completeness score (0-100).
	ProfileScore int `json:"profile_score"`

	// MissingFields lists profile fields still missing at the last check.
	MissingFields []string `json:"missing_fields,omitempty"`

	// Tasks are the assigned task instances, ordered by Index.
	// Empty until the session passes through task assignment.
	Tasks []*TaskInstance `json:"tasks,omitempty"`

	// CreatedAt is when the session was first created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the session was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a session in the initial phase.
func NewSession(userID string, now time.Time) *Session {
	return &Session{
		UserID:    userID,
		Phase:     PhaseAwaitingGreeting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasTasks returns true once tasks have been assigned.
func (s *Session) HasTasks() bool {
	return len(s.Tasks) > 0
}
