package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile loads configuration from a specific file.
	LoadFromFile(path string) (*Config, error)
}

// loader implements the Loader interface.
type loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, searches for config file in:
// 1. ./config.yaml (current directory)
// 2. ~/.config/agentreveal/config.yaml.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	// Start with default configuration
	cfg := Default()

	// Find config file path
	configPath := l.configPath
	if configPath == "" {
		configPath = l.findConfigFile()
	}

	// Load from file if it exists
	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// If file is specified but can't be loaded, return error
			if l.configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
			// Otherwise, just use defaults
		} else {
			cfg = l.mergeConfigs(cfg, fileCfg)
		}
	}

	// Apply environment variable overrides
	cfg = l.applyEnvVars(cfg)

	// Validate final configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// findConfigFile searches for a config file in standard locations.
//
// Searches in order:
// 1. ./config.yaml
// 2. ~/.config/agentreveal/config.yaml
//
// Returns empty string if no config file is found.
func (l *loader) findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		defaultConfigPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// mergeConfigs merges file configuration into default configuration.
//
// File values override defaults, but only if they are non-zero.
func (l *loader) mergeConfigs(base, override *Config) *Config {
	result := *base

	// Disabled is a bool, so we always take the override value
	result.Disabled = override.Disabled

	// Merge workspace roots
	if len(override.WorkspaceRoots) > 0 {
		result.WorkspaceRoots = override.WorkspaceRoots
	}

	// Merge classifier config
	if len(override.Classifier.IgnoredDirs) > 0 {
		result.Classifier.IgnoredDirs = override.Classifier.IgnoredDirs
	}
	if len(override.Classifier.DisallowedNames) > 0 {
		result.Classifier.DisallowedNames = override.Classifier.DisallowedNames
	}
	if len(override.Classifier.AllowedExtensions) > 0 {
		result.Classifier.AllowedExtensions = override.Classifier.AllowedExtensions
	}

	// Merge trigger config
	if len(override.Triggers.Names) > 0 {
		result.Triggers.Names = override.Triggers.Names
	}
	if len(override.Triggers.PathSuffixes) > 0 {
		result.Triggers.PathSuffixes = override.Triggers.PathSuffixes
	}

	// Merge timing config
	if override.Timing.DebounceTTL > 0 {
		result.Timing.DebounceTTL = override.Timing.DebounceTTL
	}
	if override.Timing.DebouncePurgeThreshold > 0 {
		result.Timing.DebouncePurgeThreshold = override.Timing.DebouncePurgeThreshold
	}
	if override.Timing.BurstWindow > 0 {
		result.Timing.BurstWindow = override.Timing.BurstWindow
	}
	if override.Timing.BurstThreshold > 0 {
		result.Timing.BurstThreshold = override.Timing.BurstThreshold
	}
	if override.Timing.Cooldown > 0 {
		result.Timing.Cooldown = override.Timing.Cooldown
	}
	if override.Timing.SettleDelay > 0 {
		result.Timing.SettleDelay = override.Timing.SettleDelay
	}
	if override.Timing.MaxOpenRetries > 0 {
		result.Timing.MaxOpenRetries = override.Timing.MaxOpenRetries
	}
	if override.Timing.RetryDelay > 0 {
		result.Timing.RetryDelay = override.Timing.RetryDelay
	}
	if override.Timing.SizeLimitRetryDelay > 0 {
		result.Timing.SizeLimitRetryDelay = override.Timing.SizeLimitRetryDelay
	}

	// Merge storage config
	if override.Storage.JournalPath != "" {
		result.Storage.JournalPath = override.Storage.JournalPath
	}

	// Merge logging config
	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - AGENTREVEAL_DISABLED: "1" or "true" disables the engine
//   - AGENTREVEAL_WORKSPACE_ROOTS: Comma-separated list of directories
//   - AGENTREVEAL_JOURNAL: Path to journal file
//   - AGENTREVEAL_LOG_LEVEL: Log level
func (l *loader) applyEnvVars(cfg *Config) *Config {
	result := *cfg

	if envDisabled := os.Getenv("AGENTREVEAL_DISABLED"); envDisabled != "" {
		result.Disabled = envDisabled == "1" || strings.EqualFold(envDisabled, "true")
	}

	// AGENTREVEAL_WORKSPACE_ROOTS: comma-separated paths
	if envRoots := os.Getenv("AGENTREVEAL_WORKSPACE_ROOTS"); envRoots != "" {
		roots := strings.Split(envRoots, ",")
		for i := range roots {
			roots[i] = strings.TrimSpace(roots[i])
		}
		result.WorkspaceRoots = roots
	}

	if envJournal := os.Getenv("AGENTREVEAL_JOURNAL"); envJournal != "" {
		result.Storage.JournalPath = envJournal
	}

	if envLevel := os.Getenv("AGENTREVEAL_LOG_LEVEL"); envLevel != "" {
		result.Logging.Level = strings.ToLower(envLevel)
	}

	return &result
}

// Load is a convenience function that creates a loader and loads configuration.
//
// Equivalent to:
//
//	loader := NewLoader("")
//	return loader.Load()
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile is a convenience function that loads configuration from a file.
//
// Equivalent to:
//
//	loader := NewLoader(path)
//	return loader.Load()
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save writes the configuration to a YAML file.
//
// Creates parent directories if they don't exist.
// File is created with 0600 permissions (read/write for owner only).
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Create parent directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
