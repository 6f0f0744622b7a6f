package engine

import (
	"errors"
	"testing"
	"time"
)

// Test Coverage:
// - One-shot task initialization
// - Start/complete transitions including idempotent repeats
// - Out-of-range index handling
// - All-done detection driving completion

func trackerSession(t *testing.T, count int) *Session {
	t.Helper()
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	sess := NewSession("U1", now)

	instances := make([]*TaskInstance, count)
	for i := range instances {
		instances[i] = &TaskInstance{
			Index:      i + 1,
			Title:      "Task",
			Priority:   PriorityMedium,
			Status:     TaskNotStarted,
			AssignedAt: now,
			DueAt:      now.AddDate(0, 0, 3),
		}
	}
	if err := sess.InitializeTasks(instances); err != nil {
		t.Fatalf("InitializeTasks() error = %v", err)
	}
	return sess
}

func TestInitializeTasksOnce(t *testing.T) {
	sess := trackerSession(t, 2)

	err := sess.InitializeTasks([]*TaskInstance{{Index: 1}})
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second InitializeTasks() error = %v, want ErrAlreadyInitialized", err)
	}
	if len(sess.Tasks) != 2 {
		t.Errorf("task count = %d, want 2 (unchanged)", len(sess.Tasks))
	}
}

func TestStartTask(t *testing.T) {
	sess := trackerSession(t, 2)
	now := time.Now().UTC()

	task, changed, err := sess.StartTask(1, now)
	if err != nil {
		t.Fatalf("StartTask() error = %v", err)
	}
	if !changed {
		t.Error("StartTask() changed = false, want true")
	}
	if task.Status != TaskInProgress {
		t.Errorf("Status = %s, want %s", task.Status, TaskInProgress)
	}
	if task.StartedAt == nil || !task.StartedAt.Equal(now) {
		t.Errorf("StartedAt = %v, want %v", task.StartedAt, now)
	}

	// Repeat is a no-op, not an error.
	_, changed, err = sess.StartTask(1, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("repeat StartTask() error = %v", err)
	}
	if changed {
		t.Error("repeat StartTask() changed = true, want false")
	}
	if !task.StartedAt.Equal(now) {
		t.Error("repeat StartTask() overwrote StartedAt")
	}
}

func TestCompleteTask(t *testing.T) {
	sess := trackerSession(t, 2)
	now := time.Now().UTC()

	task, changed, allDone, err := sess.CompleteTask(1, now)
	if err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}
	if !changed {
		t.Error("changed = false, want true")
	}
	if allDone {
		t.Error("allDone = true with one task remaining")
	}
	if task.Status != TaskCompleted {
		t.Errorf("Status = %s, want %s", task.Status, TaskCompleted)
	}
	if task.CompletedAt == nil {
		t.Error("CompletedAt not stamped")
	}

	// Completing from not_started is allowed (skip in_progress).
	_, changed, allDone, err = sess.CompleteTask(2, now)
	if err != nil {
		t.Fatalf("CompleteTask(2) error = %v", err)
	}
	if !changed || !allDone {
		t.Errorf("changed, allDone = %v, %v, want true, true", changed, allDone)
	}

	// Completing an already-completed task is idempotent.
	_, changed, _, err = sess.CompleteTask(1, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("repeat CompleteTask() error = %v", err)
	}
	if changed {
		t.Error("repeat CompleteTask() changed = true, want false")
	}
}

func TestTaskByIndexOutOfRange(t *testing.T) {
	sess := trackerSession(t, 2)

	for _, index := range []int{0, -1, 3, 99} {
		if _, err := sess.TaskByIndex(index); !errors.Is(err, ErrInvalidTaskReference) {
			t.Errorf("TaskByIndex(%d) error = %v, want ErrInvalidTaskReference", index, err)
		}
	}

	if _, _, err := sess.StartTask(3, time.Now()); !errors.Is(err, ErrInvalidTaskReference) {
		t.Errorf("StartTask(3) error = %v, want ErrInvalidTaskReference", err)
	}
	if _, _, _, err := sess.CompleteTask(0, time.Now()); !errors.Is(err, ErrInvalidTaskReference) {
		t.Errorf("CompleteTask(0) error = %v, want ErrInvalidTaskReference", err)
	}
}

func TestOpenTaskCount(t *testing.T) {
	sess := trackerSession(t, 3)
	now := time.Now()

	if got := sess.OpenTaskCount(); got != 3 {
		t.Errorf("OpenTaskCount() = %d, want 3", got)
	}

	sess.StartTask(1, now)
	if got := sess.OpenTaskCount(); got != 3 {
		t.Errorf("OpenTaskCount() after start = %d, want 3", got)
	}

	sess.CompleteTask(1, now)
	if got := sess.OpenTaskCount(); got != 2 {
		t.Errorf("OpenTaskCount() after complete = %d, want 2", got)
	}
}

func TestAllTasksCompletedEmpty(t *testing.T) {
	sess := NewSession("U1", time.Now())
	if sess.AllTasksCompleted() {
		t.Error("AllTasksCompleted() = true with no tasks, want false")
	}
}
