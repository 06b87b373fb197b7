// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")

	// Concurrency errors
	ErrTransactionConflict = errors.New("transaction conflict")

	// Aggregation errors
	ErrAggregation = errors.New("aggregation error")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrSynthesisFailure   = errors.New("synthesis failure")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "task", "habit", "schedule", "user"
	Op      string // Operation that failed, e.g., "Complete", "Replace"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Task domain errors. Re-completing a task is a no-op by contract, so there is
// deliberately no "already complete" error here.
var (
	ErrTaskNotFound        = NewDomainError("task", "Find", ErrNotFound, "task not found")
	ErrInvalidTaskPriority = NewDomainError("task", "Validate", ErrInvalidInput, "invalid task priority")
)

// Habit domain errors
var (
	ErrHabitNotFound       = NewDomainError("habit", "Find", ErrNotFound, "habit not found")
	ErrInvalidHabitCadence = NewDomainError("habit", "Validate", ErrInvalidInput, "invalid habit frequency")
)

// Schedule domain errors
var (
	ErrBlockNotFound      = NewDomainError("schedule", "Find", ErrNotFound, "schedule block not found")
	ErrInvalidBlockTarget = NewDomainError("schedule", "Validate", ErrValidation, "block references an invalid target")
	ErrInvalidBlockWindow = NewDomainError("schedule", "Validate", ErrValueOutOfRange, "block end precedes start")
)

// User domain errors
var (
	ErrUserNotFound    = NewDomainError("user", "Find", ErrNotFound, "user profile not found")
	ErrInvalidTimezone = NewDomainError("user", "Validate", ErrInvalidInput, "invalid timezone")
)

// Planner errors
var (
	ErrContextAggregation = NewDomainError("planner", "Aggregate", ErrAggregation, "planning context unavailable")
	ErrReasoningTimeout   = NewDomainError("planner", "Synthesize", ErrTimeout, "reasoning call timed out")
	ErrReasoningResponse  = NewDomainError("planner", "Synthesize", ErrInvalidFormat, "reasoning response failed validation")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUserNotFound distinguishes a missing profile from any other missing entity.
func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsConflict checks if the error is a transaction conflict (retryable).
func IsConflict(err error) bool {
	return errors.Is(err, ErrTransactionConflict)
}

// IsSynthesisFailure checks if the error came from the reasoning path.
// Callers of the plan path never see these: the heuristic fallback absorbs them.
func IsSynthesisFailure(err error) bool {
	return errors.Is(err, ErrSynthesisFailure) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrServiceUnavailable)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrTransactionConflict)
}
