package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream indicates that an external bibliographic source failed.
	ErrUpstream = errors.New("upstream failure")

	// ErrServiceUnavailable indicates that a backing store is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// UpstreamError describes a failed call to one bibliographic source.
// StatusCode is zero when no HTTP response was received (network failure,
// timeout, cancellation) or when the body could not be decoded.
type UpstreamError struct {
	Source     SourceType
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s upstream error (status %d): %v", e.Source, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s upstream error: %v", e.Source, e.Cause)
}

// Message returns the human-readable cause without the source prefix.
func (e *UpstreamError) Message() string {
	if e.Cause == nil {
		return "unknown error"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("status %d: %v", e.StatusCode, e.Cause)
	}
	return e.Cause.Error()
}

// Unwrap exposes both the cause and ErrUpstream to errors.Is / errors.As.
func (e *UpstreamError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Cause}
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewUpstreamError creates a new UpstreamError.
func NewUpstreamError(source SourceType, statusCode int, cause error) *UpstreamError {
	return &UpstreamError{
		Source:     source,
		StatusCode: statusCode,
		Cause:      cause,
	}
}
