package engine

import "errors"

// Common errors returned by the engine.
var (
	// ErrEngineClosed is returned when handling events on a closed
	// engine.
	ErrEngineClosed = errors.New("engine is closed")
)
