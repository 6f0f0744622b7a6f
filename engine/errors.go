package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's failure classes. Callers distinguish them
// with errors.Is.
var (
	// ErrInvalidTaskReference indicates a user referenced a task index that
	// does not exist in their session. User-correctable: the caller should
	// surface a corrective response, not fail the message.
	ErrInvalidTaskReference = errors.New("invalid task reference")

	// ErrAlreadyInitialized indicates task assignment was attempted for a
	// session that already has tasks. This is an invariant violation and
	// should be logged as an error.
	ErrAlreadyInitialized = errors.New("tasks already initialized")

	// ErrEngineUnavailable indicates a collaborator (session store, profile
	// source) failed transiently. No session mutation has been committed;
	// the caller should ask the user to retry.
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrSessionNotFound indicates no session exists for a user.
	ErrSessionNotFound = errors.New("session not found")
)

// ValidationError describes an invalid field in configuration or payloads.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// unavailable wraps a collaborator failure so callers can match it with
// errors.Is(err, ErrEngineUnavailable).
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrEngineUnavailable, err)
}

// invalidTask wraps an out-of-range task index.
func invalidTask(index int) error {
	return fmt.Errorf("task %d: %w", index, ErrInvalidTaskReference)
}
