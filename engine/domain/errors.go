package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration failures.
var (
	ErrArgCount      = errors.New("wrong number of arguments")
	ErrInvalidBound  = errors.New("bound is not a non-negative integer")
	ErrBoundTooLarge = errors.New("bound exceeds limit")
	ErrMinAboveMax   = errors.New("min is greater than max")
	ErrChunkSize     = errors.New("chunk size out of range")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
