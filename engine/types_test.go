package engine

import (
	"testing"
	"time"
)

// Test Coverage:
// - Phase transition matrix, terminal detection, validity
// - TaskStatus transition matrix
// - TaskInstance overdue detection
// - NewSession defaults

func TestPhaseCanTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   Phase
		to     Phase
		expect bool
	}{
		{"greeting to profile check", PhaseAwaitingGreeting, PhaseProfileCheck, true},
		{"greeting to task assignment", PhaseAwaitingGreeting, PhaseTaskAssignment, true},
		{"greeting to monitoring skips assignment", PhaseAwaitingGreeting, PhaseMonitoring, false},
		{"profile check to assignment", PhaseProfileCheck, PhaseTaskAssignment, true},
		{"profile check backwards", PhaseProfileCheck, PhaseAwaitingGreeting, false},
		{"assignment to monitoring", PhaseTaskAssignment, PhaseMonitoring, true},
		{"assignment back to profile check", PhaseTaskAssignment, PhaseProfileCheck, true},
		{"monitoring to completed", PhaseMonitoring, PhaseCompleted, true},
		{"monitoring backwards", PhaseMonitoring, PhaseProfileCheck, false},
		{"completed is terminal", PhaseCompleted, PhaseMonitoring, false},
		{"completed to itself", PhaseCompleted, PhaseCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.expect {
				t.Errorf("%s.CanTransitionTo(%s) = %v, want %v", tt.from, tt.to, got, tt.expect)
			}
		})
	}
}

func TestPhaseIsTerminal(t *testing.T) {
	for _, p := range []Phase{PhaseAwaitingGreeting, PhaseProfileCheck, PhaseTaskAssignment, PhaseMonitoring} {
		if p.IsTerminal() {
			t.Errorf("%s.IsTerminal() = true, want false", p)
		}
	}
	if !PhaseCompleted.IsTerminal() {
		t.Error("PhaseCompleted.IsTerminal() = false, want true")
	}
}

func TestPhaseIsValid(t *testing.T) {
	for _, p := range []Phase{PhaseAwaitingGreeting, PhaseProfileCheck, PhaseTaskAssignment, PhaseMonitoring, PhaseCompleted} {
		if !p.IsValid() {
			t.Errorf("%s.IsValid() = false, want true", p)
		}
	}
	if Phase("bogus").IsValid() {
		t.Error("Phase(\"bogus\").IsValid() = true, want false")
	}
}

func TestTaskStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   TaskStatus
		to     TaskStatus
		expect bool
	}{
		{"not started to in progress", TaskNotStarted, TaskInProgress, true},
		{"not started directly to completed", TaskNotStarted, TaskCompleted, true},
		{"in progress to completed", TaskInProgress, TaskCompleted, true},
		{"in progress backwards", TaskInProgress, TaskNotStarted, false},
		{"completed is final", TaskCompleted, TaskInProgress, false},
		{"completed to not started", TaskCompleted, TaskNotStarted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.expect {
				t.Errorf("%s.CanTransitionTo(%s) = %v, want %v", tt.from, tt.to, got, tt.expect)
			}
		})
	}
}

func TestTaskInstanceOverdue(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	task := &TaskInstance{Status: TaskNotStarted, DueAt: now.Add(-time.Hour)}
	if !task.Overdue(now) {
		t.Error("past-due open task should be overdue")
	}

	task.DueAt = now.Add(time.Hour)
	if task.Overdue(now) {
		t.Error("not-yet-due task should not be overdue")
	}

	task.DueAt = now.Add(-time.Hour)
	task.Status = TaskCompleted
	if task.Overdue(now) {
		t.Error("completed task is never overdue")
	}
}

func TestNewSession(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	sess := NewSession("U123", now)

	if sess.UserID != "U123" {
		t.Errorf("UserID = %q, want %q", sess.UserID, "U123")
	}
	if sess.Phase != PhaseAwaitingGreeting {
		t.Errorf("Phase = %s, want %s", sess.Phase, PhaseAwaitingGreeting)
	}
	if sess.HasTasks() {
		t.Error("new session should have no tasks")
	}
	if !sess.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", sess.CreatedAt, now)
	}
}
