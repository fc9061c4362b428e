package api

import (
	"errors"
	"fmt"
)

var (
	// ErrStatus marks a non-2xx response.
	ErrStatus = errors.New("unexpected status")

	// ErrInvalidPayload marks a body that is not JSON or does not match the
	// expected shape.
	ErrInvalidPayload = errors.New("invalid payload")
)

// FetchError is returned by every Fetch* call that does not produce a snapshot.
type FetchError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s (status %d): %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Outcome classifies err for metrics: ok, transport, status or payload.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrStatus):
		return "status"
	case errors.Is(err, ErrInvalidPayload):
		return "payload"
	default:
		return "transport"
	}
}

func payloadErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPayload, fmt.Sprintf(format, args...))
}
