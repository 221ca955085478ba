// Package suppress holds classification closed while package-manager
// or build tooling is active.
//
// Installing dependencies or running a build touches hundreds of files
// in staggered succession over many seconds, longer than the burst
// detector's window can cover. A small set of early-indicator paths
// (dependency manifests, lock files, install metadata, build manifests)
// is written at the start of such operations; observing one opens a
// suppression window during which every decision short-circuits to
// ignore. Each further trigger observation extends the window by the
// full cooldown.
package suppress

import (
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultCooldown is how long suppression stays active after the last
// trigger observation.
const DefaultCooldown = 30 * time.Second

// TriggerSet names the early-indicator paths.
type TriggerSet struct {
	// Names are base names matched exactly, case-insensitively.
	Names []string

	// PathSuffixes are slash-separated relative suffixes matched
	// against the end of the path (e.g. "vendor/composer/installed.json").
	PathSuffixes []string
}

// DefaultTriggers returns the built-in early-indicator set: dependency
// manifests, their lock files, installed-package metadata, and known
// build-manifest locations.
func DefaultTriggers() TriggerSet {
	return TriggerSet{
		Names: []string{
			"package.json", "package-lock.json", "yarn.lock", "pnpm-lock.yaml",
			"composer.json", "composer.lock",
			"go.mod", "go.sum",
			"Cargo.toml", "Cargo.lock",
			"Gemfile", "Gemfile.lock",
			"requirements.txt", "poetry.lock", "pyproject.toml",
			"mix.exs", "mix.lock",
		},
		PathSuffixes: []string{
			"node_modules/.package-lock.json",
			"vendor/composer/installed.json",
			"vendor/autoload.php",
			"public/build/manifest.json",
			".next/build-manifest.json",
			"bootstrap/cache/packages.php",
			"bootstrap/cache/services.php",
		},
	}
}

// Matches reports whether path is an early indicator.
func (t TriggerSet) Matches(path string) bool {
	normalized := filepath.ToSlash(path)
	base := filepath.Base(normalized)

	for _, name := range t.Names {
		if strings.EqualFold(base, name) {
			return true
		}
	}
	for _, suffix := range t.PathSuffixes {
		if strings.HasSuffix(strings.ToLower(normalized), strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

// Monitor is the process-wide suppression state. A single instance is
// owned by the decision engine.
type Monitor struct {
	cooldown time.Duration
	triggers TriggerSet

	mu          sync.Mutex
	active      bool
	activatedAt time.Time
	expiresAt   time.Time
}

// NewMonitor creates a monitor with the given cooldown and trigger
// set. A non-positive cooldown falls back to the default; an empty
// trigger set falls back to the built-ins.
func NewMonitor(cooldown time.Duration, triggers TriggerSet) *Monitor {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if len(triggers.Names) == 0 && len(triggers.PathSuffixes) == 0 {
		triggers = DefaultTriggers()
	}
	return &Monitor{cooldown: cooldown, triggers: triggers}
}

// Observe checks whether path is an early indicator and, if so,
// activates suppression or extends it by the full cooldown from now.
// The original activation time is preserved across extensions.
// It returns true when path matched a trigger.
func (m *Monitor) Observe(path string, now time.Time) bool {
	if !m.triggers.Matches(path) {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active || now.After(m.expiresAt) {
		m.active = true
		m.activatedAt = now
	}
	m.expiresAt = now.Add(m.cooldown)
	return true
}

// Active reports whether suppression is in effect at the given time.
// Expiry is evaluated lazily: once now passes the deadline with no
// intervening trigger, the state flips to inactive.
func (m *Monitor) Active(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active && now.After(m.expiresAt) {
		m.active = false
	}
	return m.active
}

// ActivatedAt returns the start of the current suppression window and
// whether one is active. Primarily for logging and tests.
func (m *Monitor) ActivatedAt() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activatedAt, m.active
}

// ExpiresAt returns the current expiry deadline. Zero when suppression
// has never activated.
func (m *Monitor) ExpiresAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAt
}

// Reset clears suppression state.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
	m.activatedAt = time.Time{}
	m.expiresAt = time.Time{}
}
