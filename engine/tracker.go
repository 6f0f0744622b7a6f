package engine

import "time"

// Task tracking operations on a Session. Status moves are monotonic and
// idempotent: repeating a report is acknowledged, never an error.

// InitializeTasks attaches the instance set to the session. Calling it a
// second time returns ErrAlreadyInitialized and leaves the session unchanged.
func (s *Session) InitializeTasks(instances []*TaskInstance) error {
	if s.HasTasks() {
		return ErrAlreadyInitialized
	}
	s.Tasks = instances
	return nil
}

// TaskByIndex returns the task with the given 1-based index.
func (s *Session) TaskByIndex(index int) (*TaskInstance, error) {
	if index < 1 || index > len(s.Tasks) {
		return nil, invalidTask(index)
	}
	return s.Tasks[index-1], nil
}

// StartTask marks a task in progress. Already started or completed tasks
// are left untouched; changed reports whether the status moved.
func (s *Session) StartTask(index int, now time.Time) (task *TaskInstance, changed bool, err error) {
	task, err = s.TaskByIndex(index)
	if err != nil {
		return nil, false, err
	}
	if !task.Status.CanTransitionTo(TaskInProgress) {
		return task, false, nil
	}
	task.Status = TaskInProgress
	started := now
	task.StartedAt = &started
	return task, true, nil
}

// CompleteTask marks a task completed from any non-terminal state.
// allDone reports whether this completion finished the last open task.
func (s *Session) CompleteTask(index int, now time.Time) (task *TaskInstance, changed, allDone bool, err error) {
	task, err = s.TaskByIndex(index)
	if err != nil {
		return nil, false, false, err
	}
	if task.Status == TaskCompleted {
		return task, false, s.AllTasksCompleted(), nil
	}
	task.Status = TaskCompleted
	completed := now
	task.CompletedAt = &completed
	return task, true, s.AllTasksCompleted(), nil
}

// AllTasksCompleted returns true when every assigned task is completed.
// A session without tasks is never complete.
func (s *Session) AllTasksCompleted() bool {
	if !s.HasTasks() {
		return false
	}
	for _, t := range s.Tasks {
		if t.Status != TaskCompleted {
			return false
		}
	}
	return true
}

// OpenTaskCount returns the number of tasks not yet completed.
func (s *Session) OpenTaskCount() int {
	open := 0
	for _, t := range s.Tasks {
		if t.Status != TaskCompleted {
			open++
		}
	}
	return open
}
