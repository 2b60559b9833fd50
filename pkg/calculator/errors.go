package calculator

import "errors"

// Common errors returned by the calculator package.
var (
	// ErrLogNotFound is returned when the session event log does not exist.
	ErrLogNotFound = errors.New("log file not found")

	// ErrNoLogPath is returned when no log path is configured.
	ErrNoLogPath = errors.New("no log path configured")
)
