package watcher

import "errors"

// Common errors returned by the watcher.
var (
	// ErrWatcherClosed is returned when using a closed watcher.
	ErrWatcherClosed = errors.New("watcher is closed")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("watcher already started")

	// ErrNotStarted is returned when Stop is called before Start.
	ErrNotStarted = errors.New("watcher not started")

	// ErrCircuitBreakerOpen is reported after repeated fsnotify
	// failures.
	ErrCircuitBreakerOpen = errors.New("circuit breaker open")

	// ErrNoWatchableRoots is returned when no workspace root exists.
	ErrNoWatchableRoots = errors.New("no watchable workspace roots")
)
