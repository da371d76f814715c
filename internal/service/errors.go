// Package service provides application-level services for managing tasks,
// task groups and their synchronization with external collaborators.
package service

import (
	"errors"
	"fmt"

	"github.com/daybookhq/daybook-api/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check these with errors.Is(); the API layer maps them to HTTP
// status codes. External service failures (calendar, push) are never part of
// this taxonomy: they are logged and swallowed at the adapter boundary and
// never fail the primary operation.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the
	// one making the request. Enforced uniformly before any mutation.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrTaskNotFound indicates that the referenced task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrGroupNotFound indicates that the referenced task group does not exist.
	ErrGroupNotFound = errors.New("task group not found")

	// ErrUserNotFound indicates that the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// TaskServiceError wraps unexpected errors from the task service with the
// operation for context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "create_task").
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError. Known sentinel errors
// pass through directly without wrapping, and store-level not-found errors
// are mapped to their service-level equivalents.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrTaskNotFound),
		errors.Is(err, ErrGroupNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrNotOwned):
		return err
	case errors.Is(err, store.ErrTaskNotFound):
		return ErrTaskNotFound
	case errors.Is(err, store.ErrGroupNotFound):
		return ErrGroupNotFound
	case errors.Is(err, store.ErrUserNotFound):
		return ErrUserNotFound
	}

	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
