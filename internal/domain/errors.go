package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation                    = errors.New("rentflow: validation failed")
	ErrNotFound                      = errors.New("rentflow: not found")
	ErrInvalidTransition             = errors.New("rentflow: invalid booking transition")
	ErrPrimaryDriverMissing          = errors.New("rentflow: booking has no primary driver")
	ErrAssociatedTransactionNotFound = errors.New("rentflow: associated transaction not found")
	ErrDocumentGenerationFailed      = errors.New("rentflow: document generation failed")
	ErrDocumentGenerationTimedOut    = errors.New("rentflow: document generation timed out")
	ErrStorageFailure                = errors.New("rentflow: storage failure")
	ErrAllocationCollision           = errors.New("rentflow: sequence allocation collision")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rentflow: validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

type TransitionError struct {
	From   BookingStatus
	Action BookingAction
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("rentflow: cannot %s a %s booking", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// NotFoundError wraps ErrNotFound with the entity that was missing.
func NotFoundError(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}

// IsRetryable is true for failures a caller should retry with a fresh attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrAllocationCollision) || errors.Is(err, ErrDocumentGenerationTimedOut)
}
