package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"agentreveal/pkg/classify"
	"agentreveal/pkg/config"
	"agentreveal/pkg/editor"
	"agentreveal/pkg/engine"
	"agentreveal/pkg/journal"
	"agentreveal/pkg/logger"
	"agentreveal/pkg/suppress"
	"agentreveal/pkg/watcher"
)

// runCommand watches workspace roots and drives the decision engine.
type runCommand struct {
	workspace  string
	configPath string
}

// Execute runs the run command.
func (c *runCommand) Execute() error {
	cfg, err := config.NewLoader(c.configPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if c.workspace != "" {
		cfg.WorkspaceRoots = []string{c.workspace}
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	// The bridge always runs so the host keeps a responsive peer. A
	// disabled configuration only unplugs the decision engine.
	bridge := editor.NewBridge(os.Stdin, os.Stdout, log)
	defer func() {
		if err := bridge.Close(); err != nil {
			log.Error("failed to close bridge", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if cfg.Disabled {
		log.Info("engine disabled by configuration")
		return c.idle(bridge, sigChan)
	}

	jrnl, err := journal.Open(cfg.Storage.JournalPath)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer func() {
		if err := jrnl.Close(); err != nil {
			log.Error("failed to close journal", "error", err)
		}
	}()

	eng := engine.New(engine.Config{
		Rules: classify.Rules{
			IgnoredDirs:       cfg.Classifier.IgnoredDirs,
			DisallowedNames:   cfg.Classifier.DisallowedNames,
			AllowedExtensions: cfg.Classifier.AllowedExtensions,
		},
		Triggers: suppress.TriggerSet{
			Names:        cfg.Triggers.Names,
			PathSuffixes: cfg.Triggers.PathSuffixes,
		},
		DebounceTTL:            cfg.Timing.DebounceTTL,
		DebouncePurgeThreshold: cfg.Timing.DebouncePurgeThreshold,
		BurstWindow:            cfg.Timing.BurstWindow,
		BurstThreshold:         cfg.Timing.BurstThreshold,
		Cooldown:               cfg.Timing.Cooldown,
		SettleDelay:            cfg.Timing.SettleDelay,
		MaxOpenRetries:         cfg.Timing.MaxOpenRetries,
		RetryDelay:             cfg.Timing.RetryDelay,
		SizeLimitRetryDelay:    cfg.Timing.SizeLimitRetryDelay,
	}, bridge, engine.RealClock(), jrnl, log)
	defer func() {
		if err := eng.Close(); err != nil {
			log.Error("failed to close engine", "error", err)
		}
	}()

	w, err := watcher.New(watcher.Config{
		SkipDirs: cfg.Classifier.IgnoredDirs,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize watcher: %w", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			log.Error("failed to close watcher", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx, cfg.WorkspaceRoots); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	log.Info("agentreveal running", "roots", cfg.WorkspaceRoots)

	// Funnel filesystem events and editor document notifications into
	// the one decision path.
	for {
		select {
		case <-sigChan:
			log.Info("shutting down")
			return nil

		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			eng.Handle(engine.Event{
				Path: ev.Path,
				Kind: eventKind(ev.Op),
				At:   ev.Timestamp,
			})

		case werr, ok := <-w.Errors():
			if !ok {
				return nil
			}
			log.Warn("watcher error", "error", werr)

		case n, ok := <-bridge.Notifications():
			if !ok {
				log.Info("editor disconnected")
				return nil
			}
			eng.Handle(engine.Event{
				Path: n.Path,
				Kind: engine.KindModified,
				At:   n.At,
			})
		}
	}
}

// idle keeps the bridge alive without any decision making.
func (c *runCommand) idle(bridge *editor.Bridge, sigChan chan os.Signal) error {
	for {
		select {
		case <-sigChan:
			return nil
		case _, ok := <-bridge.Notifications():
			if !ok {
				return nil
			}
		}
	}
}

// eventKind maps a watcher operation to an engine event kind.
func eventKind(op watcher.Op) engine.Kind {
	if op == watcher.OpCreate {
		return engine.KindCreated
	}
	return engine.KindModified
}

// statsCommand displays decision outcome counters.
type statsCommand struct {
	format     string
	reset      bool
	configPath string
}

// Execute runs the stats command.
func (c *statsCommand) Execute() error {
	cfg, err := config.NewLoader(c.configPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	jrnl, err := journal.Open(cfg.Storage.JournalPath)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer jrnl.Close() // nolint:errcheck

	counters, err := jrnl.Counters()
	if err != nil {
		return fmt.Errorf("failed to read counters: %w", err)
	}

	if err := c.display(counters); err != nil {
		return err
	}

	if c.reset {
		if err := jrnl.Reset(); err != nil {
			return fmt.Errorf("failed to reset counters: %w", err)
		}
	}

	return nil
}

// display prints counters in the requested format.
func (c *statsCommand) display(counters map[string]uint64) error {
	if c.format == "json" {
		data, err := json.MarshalIndent(counters, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal counters: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(counters) == 0 {
		fmt.Println("No decisions recorded")
		return nil
	}

	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Decision outcomes:")
	fmt.Println()
	for _, name := range names {
		fmt.Printf("  %-16s %d\n", name, counters[name])
	}

	return nil
}
