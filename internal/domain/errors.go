package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAPINotFound signals an API key missing from the schema document.
	ErrAPINotFound = errors.New("api not found")
	// ErrUpstreamTimeout signals an upstream call that exceeded its deadline.
	ErrUpstreamTimeout = errors.New("request timeout")
	// ErrUpstreamStatus signals an upstream response other than 200.
	ErrUpstreamStatus = errors.New("unexpected upstream status")
	// ErrUpstreamDecode signals an upstream body that is not valid JSON.
	ErrUpstreamDecode = errors.New("invalid upstream response")
	// ErrSchemaUnavailable signals that no schema document could be loaded.
	ErrSchemaUnavailable = errors.New("schema unavailable")
)

// UpstreamStatusError wraps ErrUpstreamStatus with the received status code.
type UpstreamStatusError struct {
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("API returned %d", e.StatusCode)
}

func (e *UpstreamStatusError) Unwrap() error { return ErrUpstreamStatus }

// NewUpstreamStatus creates an upstream status error.
func NewUpstreamStatus(code int) error {
	return &UpstreamStatusError{StatusCode: code}
}
