package ollama

import (
	"context"
	"errors"
	"fmt"
)

// ErrStreamUnavailable reports a chat response that arrived without a usable
// body.
var ErrStreamUnavailable = errors.New("ollama: response stream unavailable")

// RequestError is returned when the server rejects a request. Message holds
// the server-provided error text when the body carried one.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("ollama: request failed with status %d", e.StatusCode)
}

// IsCancelled reports whether err represents user-initiated cancellation.
// Cancellation is classified before any other error condition and is never
// surfaced as a failure.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
