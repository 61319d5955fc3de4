package service

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the principal does not own the resource.
	ErrForbidden = errors.New("permission denied")
	// ErrAssignmentNotFound indicates the requested assignment does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrDeadlinePassed indicates a submission arrived at or after the deadline.
	ErrDeadlinePassed = errors.New("deadline for this assignment has passed")
	// ErrRetryLimitExceeded indicates the attempt budget is used up.
	ErrRetryLimitExceeded = errors.New("retry limit exceeded")
	// ErrServiceUnavailable wraps every store or notifier failure.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ValidationError reports a field-level input problem.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// unavailable marks err as a dependency failure while keeping the cause.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrServiceUnavailable, err)
}
