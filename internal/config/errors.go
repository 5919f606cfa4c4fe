package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrInvalidBaseURL is returned when the feed URL is not absolute http(s).
	ErrInvalidBaseURL = errors.New("invalid feed base URL: must be an absolute http or https URL")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidInterval is returned when the refresh interval is not positive.
	ErrInvalidInterval = errors.New("invalid refresh interval: must be positive")

	// ErrInvalidConcurrency is returned when the fan-out limit is negative.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be zero (unlimited) or positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrUnknownTarget is returned when the target code is not in the catalogue.
	ErrUnknownTarget = errors.New("unknown target country: add it under countries in the config file")

	// ErrInvalidRegion is returned when a region is not a two-letter code.
	ErrInvalidRegion = errors.New("invalid region: must be a two-letter country code")

	// ErrInvalidCountry is returned when a configured country lacks a
	// two-letter code or a name.
	ErrInvalidCountry = errors.New("invalid country: code must be two letters and name is required")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConflictingTorModes is returned when both the embedded daemon and an
	// external proxy are requested.
	ErrConflictingTorModes = errors.New("conflicting Tor modes: --tor and --external-tor cannot be used together")
)
