package engine

import "time"

// ReminderStage identifies which nudge in the escalation ladder fired.
type ReminderStage string

const (
	// StageFirstReminder is the gentle first nudge to the user.
	StageFirstReminder ReminderStage = "first_reminder"
	// StageSecondReminder is the firmer second nudge to the user.
	StageSecondReminder ReminderStage = "second_reminder"
	// StageEscalation notifies the user's manager.
	StageEscalation ReminderStage = "escalation"
)

// ReminderPolicy holds the deployment-configured delays, measured from
// task assignment.
type ReminderPolicy struct {
	// First is the delay before the first reminder.
	First time.Duration

	// Second is the delay before the second reminder. Must be >= First.
	Second time.Duration

	// Escalation is the delay before manager escalation. Must be >= Second.
	Escalation time.Duration
}

// Validate enforces the stage ordering.
func (p *ReminderPolicy) Validate() error {
	if p.First < 0 {
		return &ValidationError{Field: "first_reminder", Message: "delay must be >= 0"}
	}
	if p.Second < p.First {
		return &ValidationError{Field: "second_reminder", Message: "delay must be >= first reminder delay"}
	}
	if p.Escalation < p.Second {
		return &ValidationError{Field: "escalation", Message: "delay must be >= second reminder delay"}
	}
	return nil
}

// NotificationEvent is one reminder or escalation the scheduler decided
// to send during an evaluation pass.
type NotificationEvent struct {
	// UserID is the user the task belongs to.
	UserID string `json:"user_id"`

	// TaskIndex and TaskTitle identify the overdue task.
	TaskIndex int    `json:"task_index"`
	TaskTitle string `json:"task_title"`

	// Stage is which rung of the ladder fired.
	Stage ReminderStage `json:"stage"`

	// Status is the task's status at evaluation time.
	Status TaskStatus `json:"status"`

	// DueAt is the task deadline.
	DueAt time.Time `json:"due_at"`

	// FiredAt is the evaluation timestamp.
	FiredAt time.Time `json:"fired_at"`
}

// EvaluateReminders walks the session's tasks and returns the stages due
// at now, stamping each stage write-once on the task. At most one stage
// fires per task per evaluation: when several delays have elapsed, such as
// after scheduler downtime, the ladder advances one rung per pass instead
// of notifying the same task several times at once. Completed tasks are
// skipped at evaluation time, so a stage whose moment passes while the
// task is done never fires. Task status is never modified here.
//
// The caller owns persistence: events are only real once the session with
// the updated stamps has been stored.
func EvaluateReminders(s *Session, policy ReminderPolicy, now time.Time) []NotificationEvent {
	if s.Phase.IsTerminal() || !s.HasTasks() {
		return nil
	}

	var events []NotificationEvent
	for _, t := range s.Tasks {
		if t.Status == TaskCompleted {
			continue
		}

		stamp := now
		if t.FirstReminderSentAt == nil && !now.Before(t.AssignedAt.Add(policy.First)) {
			t.FirstReminderSentAt = &stamp
			events = append(events, notification(s.UserID, t, StageFirstReminder, now))
		} else if t.SecondReminderSentAt == nil && !now.Before(t.AssignedAt.Add(policy.Second)) {
			t.SecondReminderSentAt = &stamp
			events = append(events, notification(s.UserID, t, StageSecondReminder, now))
		} else if t.EscalatedAt == nil && !now.Before(t.AssignedAt.Add(policy.Escalation)) {
			t.EscalatedAt = &stamp
			events = append(events, notification(s.UserID, t, StageEscalation, now))
		}
	}
	return events
}

func notification(userID string, t *TaskInstance, stage ReminderStage, now time.Time) NotificationEvent {
	return NotificationEvent{
		UserID:    userID,
		TaskIndex: t.Index,
		TaskTitle: t.Title,
		Stage:     stage,
		Status:    t.Status,
		DueAt:     t.DueAt,
		FiredAt:   now,
	}
}
