package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"agentreveal/pkg/logger"
)

// watcher implements the Watcher interface using fsnotify.
type watcher struct {
	fsw    *fsnotify.Watcher
	logger logger.Logger
	config Config

	events chan Event
	errors chan error

	skip map[string]struct{}

	mu       sync.Mutex
	running  bool
	closed   bool
	stopChan chan struct{}

	// Circuit breaker state.
	failureCount int
}

// New creates a workspace watcher.
//
// Parameters:
//   - cfg: Watcher configuration
//   - log: Logger instance
//
// Returns:
//   - Configured Watcher
//   - Error if the underlying fsnotify watcher cannot be created
func New(cfg Config, log logger.Logger) (Watcher, error) {
	if cfg.CircuitBreakerThreshold == 0 {
		cfg.CircuitBreakerThreshold = 5
	}
	if cfg.EventBuffer == 0 {
		cfg.EventBuffer = 128
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	skip := make(map[string]struct{}, len(cfg.SkipDirs))
	for _, dir := range cfg.SkipDirs {
		skip[strings.ToLower(dir)] = struct{}{}
	}

	w := &watcher{
		fsw:      fsw,
		logger:   log,
		config:   cfg,
		events:   make(chan Event, cfg.EventBuffer),
		errors:   make(chan error, 10),
		skip:     skip,
		stopChan: make(chan struct{}),
	}

	log.Info("workspace watcher created", "skip_dirs", len(cfg.SkipDirs))

	return w, nil
}

// Start implements Watcher.Start.
func (w *watcher) Start(ctx context.Context, roots []string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.running = true
	w.mu.Unlock()

	watched := 0
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			if os.IsNotExist(err) {
				w.logger.Warn("workspace root does not exist, skipping", "root", root)
				continue
			}
			return fmt.Errorf("failed to stat root %s: %w", root, err)
		}

		if err := w.addRecursive(root); err != nil {
			return fmt.Errorf("failed to watch root %s: %w", root, err)
		}
		watched++
	}

	if watched == 0 {
		return ErrNoWatchableRoots
	}

	w.logger.Info("watcher started", "roots", roots, "root_count", watched)

	go w.processEvents(ctx)

	return nil
}

// Stop implements Watcher.Stop.
func (w *watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if !w.running {
		return ErrNotStarted
	}

	close(w.stopChan)
	w.running = false

	w.logger.Info("watcher stopped")
	return nil
}

// Events implements Watcher.Events.
func (w *watcher) Events() <-chan Event {
	return w.events
}

// Errors implements Watcher.Errors.
func (w *watcher) Errors() <-chan error {
	return w.errors
}

// Close implements Watcher.Close.
func (w *watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.running {
		close(w.stopChan)
		w.running = false
	}

	close(w.events)
	close(w.errors)

	if err := w.fsw.Close(); err != nil {
		w.logger.Error("failed to close fsnotify watcher", "error", err)
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.logger.Info("watcher closed")
	return nil
}

// processEvents forwards fsnotify events until stopped.
func (w *watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("event processing stopped", "reason", "context cancelled")
			return

		case <-w.stopChan:
			w.logger.Info("event processing stopped", "reason", "stop signal")
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				w.logger.Warn("fsnotify events channel closed")
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.logger.Warn("fsnotify errors channel closed")
				return
			}
			w.handleError(err)
		}
	}
}

// handleEvent converts and forwards a single fsnotify event.
func (w *watcher) handleEvent(event fsnotify.Event) {
	var op Op
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		op = OpCreate
	case event.Op&fsnotify.Write == fsnotify.Write:
		op = OpWrite
	default:
		return
	}

	// A directory created inside a watched tree must itself be
	// watched, or changes under it go unseen.
	if op == OpCreate {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skipped(event.Name) {
				if err := w.addRecursive(event.Name); err != nil {
					w.logger.Warn("failed to watch new directory",
						"path", event.Name,
						"error", err)
				}
			}
			return
		}
	}

	if w.skipped(event.Name) {
		return
	}

	w.forward(Event{
		Path:      event.Name,
		Op:        op,
		Timestamp: time.Now(),
	})
}

// forward emits an event without blocking the processing loop.
func (w *watcher) forward(event Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	select {
	case w.events <- event:
	default:
		w.logger.Warn("event channel full, dropping event", "path", event.Path)
	}
}

// handleError reports fsnotify errors until the circuit breaker opens.
func (w *watcher) handleError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	w.failureCount++

	w.logger.Error("fsnotify error",
		"error", err,
		"failure_count", w.failureCount)

	if w.failureCount >= w.config.CircuitBreakerThreshold {
		w.logger.Error("circuit breaker opened",
			"threshold", w.config.CircuitBreakerThreshold)
		err = ErrCircuitBreakerOpen
	}

	select {
	case w.errors <- err:
	default:
		w.logger.Warn("error channel full, dropping error")
	}
}

// addRecursive registers path and every non-skipped directory under
// it.
func (w *watcher) addRecursive(path string) error {
	if err := w.fsw.Add(path); err != nil {
		return fmt.Errorf("failed to add path: %w", err)
	}

	w.logger.Debug("watching directory", "path", path)

	return filepath.Walk(path, func(subPath string, info os.FileInfo, err error) error {
		if err != nil {
			w.logger.Warn("error walking path", "path", subPath, "error", err)
			return nil // Skip but continue walking.
		}

		if !info.IsDir() || subPath == path {
			return nil
		}

		if _, ok := w.skip[strings.ToLower(info.Name())]; ok {
			w.logger.Debug("skipping directory subtree", "path", subPath)
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(subPath); addErr != nil {
			w.logger.Warn("failed to watch subdirectory",
				"path", subPath,
				"error", addErr)
			return nil
		}

		w.logger.Debug("watching directory", "path", subPath)
		return nil
	})
}

// skipped reports whether any segment of path is on the skip list.
func (w *watcher) skipped(path string) bool {
	if len(w.skip) == 0 {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if _, ok := w.skip[strings.ToLower(seg)]; ok {
			return true
		}
	}
	return false
}
