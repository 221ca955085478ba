// Package config provides configuration management for agentreveal.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Environment variables
// 2. Configuration file
// 3. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.NewLoader("").Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Workspace roots: %v\n", cfg.WorkspaceRoots)
package config

import (
	"time"
)

// Config represents the complete application configuration.
//
// Invariants:
// - WorkspaceRoots must have at least one directory
// - All timing durations must be > 0
// - BurstThreshold must be >= 2
// - MaxOpenRetries must be > 0.
type Config struct {
	// Disabled turns the whole engine into a no-op while keeping the
	// process alive and responsive on the editor bridge.
	Disabled bool `yaml:"disabled"`

	// Workspace directories to watch recursively
	WorkspaceRoots []string `yaml:"workspace_roots"`

	// Path classification rules
	Classifier ClassifierConfig `yaml:"classifier"`

	// Bulk-operation trigger paths
	Triggers TriggerConfig `yaml:"triggers"`

	// Timing settings for the decision pipeline
	Timing TimingConfig `yaml:"timing"`

	// Storage settings
	Storage StorageConfig `yaml:"storage"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// ClassifierConfig contains path classification rules.
type ClassifierConfig struct {
	// Directory names whose contents are never opened
	IgnoredDirs []string `yaml:"ignored_dirs"`

	// File name patterns that are never opened
	DisallowedNames []string `yaml:"disallowed_names"`

	// File extensions eligible for opening
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

// TriggerConfig contains bulk-operation trigger paths.
type TriggerConfig struct {
	// Exact file names that signal a bulk operation
	Names []string `yaml:"names"`

	// Path suffixes that signal a bulk operation
	PathSuffixes []string `yaml:"path_suffixes"`
}

// TimingConfig contains decision-pipeline timing settings.
type TimingConfig struct {
	// Window during which repeat events for a path are dropped
	DebounceTTL time.Duration `yaml:"debounce_ttl"`

	// Debounce entries kept before a purge runs
	DebouncePurgeThreshold int `yaml:"debounce_purge_threshold"`

	// Window over which nearby events form a batch
	BurstWindow time.Duration `yaml:"burst_window"`

	// Events within the window that make a batch
	BurstThreshold int `yaml:"burst_threshold"`

	// How long a trigger observation suppresses opens
	Cooldown time.Duration `yaml:"cooldown"`

	// Pause before asking the editor to open a file
	SettleDelay time.Duration `yaml:"settle_delay"`

	// Open attempts before giving up
	MaxOpenRetries int `yaml:"max_open_retries"`

	// Pause between open attempts
	RetryDelay time.Duration `yaml:"retry_delay"`

	// Extra pause after a spurious size-limit rejection
	SizeLimitRetryDelay time.Duration `yaml:"size_limit_retry_delay"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// Path to the BoltDB journal file
	JournalPath string `yaml:"journal_path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// Validate checks if the configuration satisfies all invariants.
//
// Returns an error if any invariant is violated:
//   - No workspace roots specified
//   - Invalid time durations (must be > 0)
//   - Burst threshold below 2
//   - Invalid log level or format
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	if len(c.WorkspaceRoots) == 0 {
		return ErrNoWorkspaceRoots
	}

	// Validate timing config
	if c.Timing.DebounceTTL <= 0 {
		return ErrInvalidDebounceTTL
	}
	if c.Timing.DebouncePurgeThreshold <= 0 {
		return ErrInvalidPurgeThreshold
	}
	if c.Timing.BurstWindow <= 0 {
		return ErrInvalidBurstWindow
	}
	if c.Timing.BurstThreshold < 2 {
		return ErrInvalidBurstThreshold
	}
	if c.Timing.Cooldown <= 0 {
		return ErrInvalidCooldown
	}
	if c.Timing.SettleDelay <= 0 {
		return ErrInvalidSettleDelay
	}
	if c.Timing.MaxOpenRetries <= 0 {
		return ErrInvalidMaxOpenRetries
	}
	if c.Timing.RetryDelay <= 0 {
		return ErrInvalidRetryDelay
	}
	if c.Timing.SizeLimitRetryDelay <= 0 {
		return ErrInvalidRetryDelay
	}

	// Validate logging config
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}
