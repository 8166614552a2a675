package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation signals a malformed request: bad criterion grammar, unknown descriptor or namespace.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals an unknown collection.
	ErrNotFound = errors.New("not found")
	// ErrDocumentNotFound signals a missing descriptor document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrUpstream signals a descriptor computation service failure.
	ErrUpstream = errors.New("upstream failure")
	// ErrExecution signals a descriptor store execution failure.
	ErrExecution = errors.New("execution failed")
	// ErrRateLimited signals that the analysis rate limiter gave up waiting.
	ErrRateLimited = errors.New("rate limited")
)

// ValidationError carries a human-readable message naming the expected grammar.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error with a formatted message.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UpstreamError carries the computation service's status and message unchanged.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("analysis service returned %d: %s", e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// HTTPStatus returns the status to forward, falling back to 502 for transport failures.
func (e *UpstreamError) HTTPStatus() int {
	if e.Status < 400 || e.Status > 599 {
		return http.StatusBadGateway
	}
	return e.Status
}

// ExecutionError wraps a store engine failure; its message is the store's.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string { return e.Err.Error() }

func (e *ExecutionError) Unwrap() []error { return []error{ErrExecution, e.Err} }

// NewExecutionError wraps err unless it is nil or already an ExecutionError.
func NewExecutionError(err error) error {
	if err == nil {
		return nil
	}
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return err
	}
	return &ExecutionError{Err: err}
}
