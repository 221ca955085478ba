package config

import (
	"os"
	"path/filepath"
	"time"

	"agentreveal/pkg/classify"
	"agentreveal/pkg/suppress"
)

// Default returns a configuration with sensible default values.
//
// Classification and trigger lists mirror the built-in rule sets so a
// file-based configuration can extend or replace them wholesale.
func Default() *Config {
	rules := classify.DefaultRules()
	triggers := suppress.DefaultTriggers()

	return &Config{
		WorkspaceRoots: defaultWorkspaceRoots(),
		Classifier: ClassifierConfig{
			IgnoredDirs:       rules.IgnoredDirs,
			DisallowedNames:   rules.DisallowedNames,
			AllowedExtensions: rules.AllowedExtensions,
		},
		Triggers: TriggerConfig{
			Names:        triggers.Names,
			PathSuffixes: triggers.PathSuffixes,
		},
		Timing: TimingConfig{
			DebounceTTL:            1500 * time.Millisecond,
			DebouncePurgeThreshold: 256,
			BurstWindow:            500 * time.Millisecond,
			BurstThreshold:         3,
			Cooldown:               30 * time.Second,
			SettleDelay:            300 * time.Millisecond,
			MaxOpenRetries:         3,
			RetryDelay:             250 * time.Millisecond,
			SizeLimitRetryDelay:    time.Second,
		},
		Storage: StorageConfig{
			JournalPath: defaultJournalPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}

// defaultWorkspaceRoots returns the default directories to watch.
//
// Returns the current working directory, falling back to "." when it
// cannot be resolved.
func defaultWorkspaceRoots() []string {
	cwd, err := os.Getwd()
	if err != nil {
		return []string{"."}
	}

	return []string{cwd}
}

// defaultJournalPath returns the default journal file path.
//
// Returns: ~/.config/agentreveal/journal.db.
func defaultJournalPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./journal.db"
	}

	return filepath.Join(homeDir, ".config", "agentreveal", "journal.db")
}

// defaultConfigPath returns the default configuration file path.
//
// Returns: ~/.config/agentreveal/config.yaml.
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}

	return filepath.Join(homeDir, ".config", "agentreveal", "config.yaml")
}
