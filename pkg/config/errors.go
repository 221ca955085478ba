package config

import "errors"

// Configuration validation errors.
var (
	// ErrNoWorkspaceRoots indicates no workspace directories were specified.
	ErrNoWorkspaceRoots = errors.New("no workspace roots specified")

	// ErrInvalidDebounceTTL indicates the debounce window is invalid.
	ErrInvalidDebounceTTL = errors.New("debounce TTL must be greater than 0")

	// ErrInvalidPurgeThreshold indicates the debounce purge threshold is invalid.
	ErrInvalidPurgeThreshold = errors.New("debounce purge threshold must be greater than 0")

	// ErrInvalidBurstWindow indicates the burst window is invalid.
	ErrInvalidBurstWindow = errors.New("burst window must be greater than 0")

	// ErrInvalidBurstThreshold indicates the burst threshold is invalid.
	ErrInvalidBurstThreshold = errors.New("burst threshold must be at least 2")

	// ErrInvalidCooldown indicates the suppression cooldown is invalid.
	ErrInvalidCooldown = errors.New("cooldown must be greater than 0")

	// ErrInvalidSettleDelay indicates the settle delay is invalid.
	ErrInvalidSettleDelay = errors.New("settle delay must be greater than 0")

	// ErrInvalidMaxOpenRetries indicates the retry count is invalid.
	ErrInvalidMaxOpenRetries = errors.New("max open retries must be greater than 0")

	// ErrInvalidRetryDelay indicates a retry delay is invalid.
	ErrInvalidRetryDelay = errors.New("retry delay must be greater than 0")

	// ErrInvalidLogLevel indicates an invalid log level.
	ErrInvalidLogLevel = errors.New("log level must be one of: debug, info, warn, error")

	// ErrInvalidLogFormat indicates an invalid log format.
	ErrInvalidLogFormat = errors.New("log format must be one of: text, json")
)

// Configuration loading errors.
var (
	// ErrConfigNotFound indicates the config file doesn't exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidYAML indicates the config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML in configuration file")
)
