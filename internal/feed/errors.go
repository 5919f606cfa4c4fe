package feed

import (
	"errors"
	"fmt"
)

// ErrNotArray is returned when a response body is not a JSON array.
var ErrNotArray = errors.New("response is not a JSON array")

// ErrUnexpectedStatus is returned for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// FetchError describes a failed feed request.
type FetchError struct {
	// Endpoint is the path relative to the base URL (e.g. "recentvictims").
	Endpoint string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}
