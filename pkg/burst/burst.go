// Package burst flags bursts of near-simultaneous file changes as
// batch operations.
//
// An autonomous agent editing one file at a time produces
// low-frequency, single-file events; a version-control checkout or
// mass rewrite touches many files near-atomically. The window counts
// recent changes across all paths; reaching the threshold classifies
// the whole cohort, including the event being evaluated, as a batch.
package burst

import (
	"sync"
	"time"
)

// Default detector tuning.
const (
	// DefaultWindow is the span over which changes count as
	// near-simultaneous.
	DefaultWindow = 500 * time.Millisecond

	// DefaultThreshold is the change count at which the cohort is a
	// batch operation.
	DefaultThreshold = 3
)

// entry is one observed change.
type entry struct {
	path string
	at   time.Time
}

// Window is a sliding-window counter over recent change events.
//
// A decision flow records its event on arrival, waits out one window
// span, then asks for the verdict anchored to the event's own
// timestamp. Anchoring matters: the last member of a burst spread
// across the span must still see the earlier members, so entries are
// retained for two spans rather than one.
type Window struct {
	span      time.Duration
	threshold int

	mu      sync.Mutex
	entries []entry
}

// NewWindow creates a window with the given span and threshold.
// Non-positive values fall back to the defaults.
func NewWindow(span time.Duration, threshold int) *Window {
	if span <= 0 {
		span = DefaultWindow
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Window{span: span, threshold: threshold}
}

// Record notes a change event for path at the given time.
func (w *Window) Record(path string, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	w.entries = append(w.entries, entry{path: path, at: now})
}

// IsBatch reports whether the event recorded at eventAt belongs to a
// batch cohort, judged at time now (normally eventAt plus one span).
//
// The cohort is every recorded change within one span of the event,
// on either side; its size, not path identity, drives the verdict.
func (w *Window) IsBatch(eventAt, now time.Time) bool {
	return w.CountSince(eventAt.Add(-w.span), now) >= w.threshold
}

// CountSince prunes expired entries and returns how many recorded
// changes happened at or after from.
func (w *Window) CountSince(from, now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)

	n := 0
	for _, e := range w.entries {
		if !e.at.Before(from) {
			n++
		}
	}
	return n
}

// Threshold returns the configured batch threshold.
func (w *Window) Threshold() int {
	return w.threshold
}

// Span returns the configured window span.
func (w *Window) Span() time.Duration {
	return w.span
}

// Reset clears all recorded entries.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = nil
}

// pruneLocked drops entries too old for any in-flight decision to
// count: the latest possible observer of an entry evaluates two spans
// after it was recorded. Caller holds w.mu.
func (w *Window) pruneLocked(now time.Time) {
	keep := w.entries[:0]
	for _, e := range w.entries {
		if now.Sub(e.at) <= 2*w.span {
			keep = append(keep, e)
		}
	}
	w.entries = keep
}
