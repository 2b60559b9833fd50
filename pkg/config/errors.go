package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrInvalidWindowSize is returned when the context window size is <= 0.
	ErrInvalidWindowSize = errors.New("invalid context window size: must be > 0")

	// ErrInvalidThresholds is returned when usage thresholds are out of order or range.
	ErrInvalidThresholds = errors.New("invalid thresholds: need 0 < caution <= warning <= 1")

	// ErrInvalidToolCost is returned when a web tool cost is negative.
	ErrInvalidToolCost = errors.New("invalid tool cost: must be >= 0")

	// ErrInvalidJapaneseThreshold is returned when the threshold is outside [0, 1].
	ErrInvalidJapaneseThreshold = errors.New("invalid japanese threshold: must be within [0, 1]")

	// ErrInvalidCharsPerToken is returned when a chars-per-token ratio is <= 0.
	ErrInvalidCharsPerToken = errors.New("invalid chars per token: must be > 0")

	// ErrInvalidOutputLanguage is returned when the report language is not supported.
	ErrInvalidOutputLanguage = errors.New("invalid output language: must be en or ja")

	// ErrNoLogFile is returned when no event log path is configured.
	ErrNoLogFile = errors.New("no event log file configured")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid syntax.
	ErrInvalidYAML = errors.New("invalid syntax in config file")
)
