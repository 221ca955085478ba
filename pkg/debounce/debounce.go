// Package debounce suppresses repeated processing of the same path
// within a short window.
//
// A single logical write often raises several low-level change
// notifications; the ledger collapses them to one decision per TTL
// window per path. Entries are advisory: a race where two
// near-simultaneous events both pass is acceptable.
package debounce

import (
	"sync"
	"time"
)

// Default ledger tuning.
const (
	// DefaultTTL is the window during which repeat events for a path
	// are suppressed.
	DefaultTTL = 1500 * time.Millisecond

	// DefaultPurgeThreshold is the entry count at which stale entries
	// are evicted.
	DefaultPurgeThreshold = 256
)

// staleFactor is the multiple of the TTL after which an entry is
// considered stale and eligible for purge.
const staleFactor = 3

// Ledger tracks the last-seen time per path.
type Ledger struct {
	ttl            time.Duration
	purgeThreshold int

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// NewLedger creates a ledger with the given TTL. Non-positive values
// fall back to the defaults.
func NewLedger(ttl time.Duration, purgeThreshold int) *Ledger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if purgeThreshold <= 0 {
		purgeThreshold = DefaultPurgeThreshold
	}
	return &Ledger{
		ttl:            ttl,
		purgeThreshold: purgeThreshold,
		lastSeen:       make(map[string]time.Time),
	}
}

// ShouldProcess reports whether an event for path observed at now
// should be processed.
//
// It returns false, without updating state, if a fresh entry exists
// (now - lastSeen < TTL). Otherwise it records now as the last-seen
// time and returns true. When the ledger grows past its size
// threshold, entries older than a multiple of the TTL are evicted
// before the new entry is recorded.
func (l *Ledger) ShouldProcess(path string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.lastSeen[path]; ok && now.Sub(last) < l.ttl {
		return false
	}

	if len(l.lastSeen) >= l.purgeThreshold {
		l.purgeLocked(now)
	}

	l.lastSeen[path] = now
	return true
}

// purgeLocked evicts entries older than staleFactor times the TTL.
// Caller holds l.mu.
func (l *Ledger) purgeLocked(now time.Time) {
	cutoff := now.Add(-staleFactor * l.ttl)
	for path, last := range l.lastSeen {
		if last.Before(cutoff) {
			delete(l.lastSeen, path)
		}
	}
}

// Len returns the number of tracked paths. Primarily for tests.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lastSeen)
}

// Reset clears all ledger state.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastSeen = make(map[string]time.Time)
}
