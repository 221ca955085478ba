// Package watcher provides recursive workspace file monitoring.
//
// It wraps fsnotify, registering every directory under the workspace
// roots except those on the skip list, and keeps registration current
// as new directories appear. Raw create/modify notifications are
// forwarded as-is; debouncing and classification are the decision
// engine's job.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{
//	    SkipDirs: []string{".git", "node_modules"},
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, []string{"/path/to/workspace"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	for event := range w.Events() {
//	    fmt.Printf("%s: %s\n", event.Op, event.Path)
//	}
package watcher

import (
	"context"
	"time"
)

// Op describes a file operation type.
type Op uint8

// File operation types. Only creations and writes are forwarded;
// removals, renames, and permission changes carry no signal for
// auto-reveal.
const (
	OpCreate Op = iota + 1
	OpWrite
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	default:
		return "UNKNOWN"
	}
}

// Event represents a file system event.
type Event struct {
	// Path is the absolute path to the file that triggered the event.
	Path string

	// Op is the operation that triggered the event.
	Op Op

	// Timestamp is when the event was observed.
	Timestamp time.Time
}

// Watcher provides workspace file monitoring.
type Watcher interface {
	// Start begins watching the given workspace roots recursively.
	// Returns an error if no root can be watched.
	Start(ctx context.Context, roots []string) error

	// Stop gracefully shuts down the watcher.
	Stop() error

	// Events returns the channel of file system events.
	// The channel is closed when the watcher closes.
	Events() <-chan Event

	// Errors returns the channel of non-fatal watcher errors.
	// The channel is closed when the watcher closes.
	Errors() <-chan error

	// Close releases all watch subscriptions and resources.
	Close() error
}

// Config contains watcher configuration.
type Config struct {
	// SkipDirs are directory names never descended into or
	// registered (VCS metadata, dependency trees, build output).
	SkipDirs []string

	// CircuitBreakerThreshold is the number of consecutive fsnotify
	// failures before the watcher stops reporting individual errors.
	// Default: 5.
	CircuitBreakerThreshold int

	// EventBuffer is the event channel capacity. Default: 128.
	EventBuffer int
}
