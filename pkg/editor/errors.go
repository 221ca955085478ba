package editor

import "errors"

// Common errors returned by the bridge.
var (
	// ErrBridgeClosed is returned when using a closed bridge.
	ErrBridgeClosed = errors.New("editor bridge is closed")

	// ErrNotFound is returned when the host reports the target file
	// missing. Usually a transient race with the writer.
	ErrNotFound = errors.New("document not found")

	// ErrNotReady is returned when the host's document state is not
	// yet synchronized with the disk contents.
	ErrNotReady = errors.New("document not ready")

	// ErrSizeLimit is returned when the host rejects the open with a
	// size-limit error. The host is known to raise this spuriously
	// for files under the limit; callers should retry once after a
	// longer delay.
	ErrSizeLimit = errors.New("document exceeds size limit")
)
