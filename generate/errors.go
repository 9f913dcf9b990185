package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every *Error carries exactly one of these as its Kind.
var (
	// ErrInvalidEndpoint indicates the endpoint is not an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrEmptyModel indicates an empty model name.
	ErrEmptyModel = errors.New("model name is empty")

	// ErrInvalidRequest indicates the request body could not be built.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrPromptTooLong indicates the prompt exceeds the context window.
	ErrPromptTooLong = errors.New("prompt exceeds context window")

	// ErrTransport indicates a connection, DNS, timeout or read failure.
	ErrTransport = errors.New("transport error")

	// ErrService indicates a non-2xx HTTP status.
	ErrService = errors.New("service error")

	// ErrDecode indicates a body or line that is not a valid response object.
	ErrDecode = errors.New("decode error")

	// ErrTruncatedStream indicates the body ended cleanly before a done record.
	ErrTruncatedStream = errors.New("stream ended before completion")

	// ErrSessionConsumed indicates a Session was iterated more than once.
	ErrSessionConsumed = errors.New("session already consumed")
)

// maxErrorBody limits how much of a failed response body is kept.
const maxErrorBody = 64 * 1024

// Error describes a failed client operation.
type Error struct {
	Op   string // "new", "generate", "stream", "parse"
	Kind error  // One of the Err* sentinels

	// StatusCode and Body are set for ErrService.
	StatusCode int
	Body       string

	Err error // Underlying cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (%d %s)", e.StatusCode, http.StatusText(e.StatusCode))
		if e.Body != "" {
			msg += ": " + truncateBody(e.Body, 200)
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is this error's Kind.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is likely transient: transport failures
// other than caller cancellation, and 408, 429 or 5xx service errors.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case ErrTransport:
		return !errors.Is(e.Err, context.Canceled)
	case ErrService:
		return e.StatusCode == http.StatusRequestTimeout ||
			e.StatusCode == http.StatusTooManyRequests ||
			e.StatusCode >= 500
	}
	return false
}

func truncateBody(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
