package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check these with errors.Is; the API layer maps them to HTTP status
// codes. Store-level kinds (not found, duplicate, transient) pass through
// from the store package and are dispatched on there.
var (
	// ErrDueDateNotFuture indicates that a task was created with a due date
	// that is not in the future. This rule applies at creation only; updates
	// to an existing task's due date are not re-validated.
	ErrDueDateNotFuture = errors.New("due date must be in the future")

	// ErrInvalidCredentials indicates that login failed. Unknown email and
	// wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// MissingCollaboratorsError is returned when one or more collaborator IDs
// supplied to a task mutation do not reference an existing user. It names
// the offending IDs so the caller can report them.
type MissingCollaboratorsError struct {
	IDs []uuid.UUID
}

// Error implements the error interface for MissingCollaboratorsError.
func (e *MissingCollaboratorsError) Error() string {
	parts := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		parts[i] = id.String()
	}
	return fmt.Sprintf("collaborators do not exist: %s", strings.Join(parts, ", "))
}

// TaskServiceError is a custom error type for task service errors.
type TaskServiceError struct {
	Operation string
	Message   string
	Err       error
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

// NewTaskServiceError creates a new TaskServiceError.
func NewTaskServiceError(operation, message string, err error) *TaskServiceError {
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
