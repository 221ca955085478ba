package suppress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTriggerMatching(t *testing.T) {
	triggers := DefaultTriggers()

	matching := []string{
		"/w/app/package.json",
		"/w/app/package-lock.json",
		"/w/app/yarn.lock",
		"/w/app/composer.lock",
		"/w/app/go.mod",
		"/w/app/Cargo.toml",
		"/w/app/requirements.txt",
		"/w/app/node_modules/.package-lock.json",
		"/w/app/vendor/composer/installed.json",
		"/w/app/public/build/manifest.json",
		"/w/app/bootstrap/cache/services.php",
	}
	for _, p := range matching {
		assert.True(t, triggers.Matches(p), "path %s should match", p)
	}

	nonMatching := []string{
		"/w/app/src/index.ts",
		"/w/app/app/Models/User.php",
		"/w/app/README.md",
		"/w/app/packages.json",
	}
	for _, p := range nonMatching {
		assert.False(t, triggers.Matches(p), "path %s should not match", p)
	}
}

func TestObserveActivates(t *testing.T) {
	m := NewMonitor(30*time.Second, TriggerSet{})
	now := time.Now()

	assert.False(t, m.Active(now))
	assert.True(t, m.Observe("/w/app/package-lock.json", now))
	assert.True(t, m.Active(now))
	assert.True(t, m.Active(now.Add(29*time.Second)))
}

func TestNonTriggerDoesNotActivate(t *testing.T) {
	m := NewMonitor(30*time.Second, TriggerSet{})
	now := time.Now()

	assert.False(t, m.Observe("/w/app/src/index.ts", now))
	assert.False(t, m.Active(now))
}

func TestExpiry(t *testing.T) {
	m := NewMonitor(30*time.Second, TriggerSet{})
	now := time.Now()

	m.Observe("/w/app/yarn.lock", now)

	assert.True(t, m.Active(now.Add(30*time.Second)))
	assert.False(t, m.Active(now.Add(31*time.Second)))
}

func TestExtensionFromNewObservation(t *testing.T) {
	m := NewMonitor(30*time.Second, TriggerSet{})
	now := time.Now()

	m.Observe("/w/app/package.json", now)
	// A second trigger before expiry extends by the full cooldown
	// from the new observation, not from the original activation.
	m.Observe("/w/app/package-lock.json", now.Add(20*time.Second))

	assert.True(t, m.Active(now.Add(45*time.Second)))
	assert.False(t, m.Active(now.Add(51*time.Second)))
}

func TestExtensionPreservesActivatedAt(t *testing.T) {
	m := NewMonitor(30*time.Second, TriggerSet{})
	now := time.Now()

	m.Observe("/w/app/package.json", now)
	m.Observe("/w/app/yarn.lock", now.Add(10*time.Second))

	activatedAt, active := m.ActivatedAt()
	assert.True(t, active)
	assert.Equal(t, now, activatedAt)
	assert.Equal(t, now.Add(40*time.Second), m.ExpiresAt())
}

func TestReactivationAfterExpiryResetsActivatedAt(t *testing.T) {
	m := NewMonitor(30*time.Second, TriggerSet{})
	now := time.Now()

	m.Observe("/w/app/package.json", now)
	later := now.Add(2 * time.Minute)
	m.Observe("/w/app/package.json", later)

	activatedAt, active := m.ActivatedAt()
	assert.True(t, active)
	assert.Equal(t, later, activatedAt)
}

func TestSourceChangeUnderAndAfterCooldown(t *testing.T) {
	// Scenario: a lock-file change, then a source change 5s later is
	// inside the window; the same change 31s after the lock file is
	// not.
	m := NewMonitor(30*time.Second, TriggerSet{})
	now := time.Now()

	m.Observe("/w/app/composer.lock", now)

	assert.True(t, m.Active(now.Add(5*time.Second)))
	assert.False(t, m.Active(now.Add(31*time.Second)))
}

func TestCustomTriggers(t *testing.T) {
	m := NewMonitor(time.Minute, TriggerSet{
		Names: []string{"BUILD.bazel"},
	})
	now := time.Now()

	assert.True(t, m.Observe("/w/app/BUILD.bazel", now))
	assert.False(t, m.Observe("/w/app/package.json", now))
}

func TestReset(t *testing.T) {
	m := NewMonitor(30*time.Second, TriggerSet{})
	now := time.Now()

	m.Observe("/w/app/package.json", now)
	m.Reset()

	assert.False(t, m.Active(now))
	assert.True(t, m.ExpiresAt().IsZero())
}
