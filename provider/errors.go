package provider

import (
	"errors"
	"fmt"
)

// Sentinel errors for provider operations.
var (
	// ErrUnknownProvider indicates the requested provider is not registered.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrUnavailable indicates the generation service could not be reached.
	ErrUnavailable = errors.New("generation service unavailable")

	// ErrInvalidRequest indicates the request or configuration is malformed.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrContextTooLong indicates the prompt exceeds the model's context window.
	ErrContextTooLong = errors.New("context exceeds maximum length")

	// ErrTimeout indicates the request timed out.
	ErrTimeout = errors.New("request timed out")
)

// Error wraps backend errors with the provider and operation that failed.
type Error struct {
	Provider  string // Provider name ("generate")
	Op        string // Operation that failed ("complete", "stream")
	Err       error  // Underlying error
	Retryable bool   // Whether the error is likely transient
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new provider error.
func NewError(provider, op string, err error, retryable bool) *Error {
	return &Error{
		Provider:  provider,
		Op:        op,
		Err:       err,
		Retryable: retryable,
	}
}

// IsRetryable reports whether err is likely transient.
// Providers never retry on their own; this is for callers with a retry policy.
func IsRetryable(err error) bool {
	var provErr *Error
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout)
}
