package monitor

import "errors"

var (
	// ErrRefreshInProgress is returned when a refresh is triggered while
	// another one is still running.
	ErrRefreshInProgress = errors.New("refresh already in progress")

	// ErrFetchFailed is returned when a required feed could not be fetched.
	// Its message is the one shown to users.
	ErrFetchFailed = errors.New("failed to fetch data, check connectivity")

	// ErrNoSnapshot is returned when no refresh has succeeded yet.
	ErrNoSnapshot = errors.New("no snapshot available yet")

	// ErrInvalidInterval is returned for a non-positive refresh interval.
	ErrInvalidInterval = errors.New("refresh interval must be positive")
)
