package burst

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSingleEventIsNotBatch(t *testing.T) {
	w := NewWindow(500*time.Millisecond, 3)
	now := time.Now()

	w.Record("/w/a.go", now)

	assert.False(t, w.IsBatch(now, now.Add(500*time.Millisecond)))
}

func TestThresholdWithinWindowIsBatch(t *testing.T) {
	w := NewWindow(500*time.Millisecond, 3)
	now := time.Now()

	w.Record("/w/a.go", now)
	w.Record("/w/b.go", now.Add(100*time.Millisecond))
	w.Record("/w/c.go", now.Add(200*time.Millisecond))

	// Every cohort member, the first event included, sees the batch
	// verdict when its own window elapses.
	assert.True(t, w.IsBatch(now, now.Add(500*time.Millisecond)))
	assert.True(t, w.IsBatch(now.Add(200*time.Millisecond), now.Add(700*time.Millisecond)))
}

func TestBelowThresholdIsNotBatch(t *testing.T) {
	w := NewWindow(500*time.Millisecond, 3)
	now := time.Now()

	w.Record("/w/a.go", now)
	w.Record("/w/b.go", now.Add(100*time.Millisecond))

	assert.False(t, w.IsBatch(now, now.Add(500*time.Millisecond)))
}

func TestDistantEventsAreSeparateCohorts(t *testing.T) {
	w := NewWindow(500*time.Millisecond, 3)
	now := time.Now()

	w.Record("/w/a.go", now)
	w.Record("/w/b.go", now.Add(2*time.Second))
	w.Record("/w/c.go", now.Add(4*time.Second))

	assert.False(t, w.IsBatch(now.Add(4*time.Second), now.Add(4500*time.Millisecond)))
}

func TestSimulatedCheckout(t *testing.T) {
	// Ten files changed within 200ms: every member sees a batch when
	// its own window elapses, the last one included.
	w := NewWindow(500*time.Millisecond, 3)
	now := time.Now()

	times := make([]time.Time, 10)
	for i := 0; i < 10; i++ {
		times[i] = now.Add(time.Duration(i*20) * time.Millisecond)
		w.Record(fmt.Sprintf("/w/file-%d.go", i), times[i])
	}

	for i := 0; i < 10; i++ {
		assert.True(t, w.IsBatch(times[i], times[i].Add(500*time.Millisecond)),
			"member %d should see a batch verdict", i)
	}
}

func TestCountIsSizeNotIdentity(t *testing.T) {
	// Repeated changes to the same path still count individually; the
	// collection is a multiset.
	w := NewWindow(500*time.Millisecond, 3)
	now := time.Now()

	w.Record("/w/a.go", now)
	w.Record("/w/a.go", now.Add(50*time.Millisecond))
	w.Record("/w/a.go", now.Add(100*time.Millisecond))

	assert.True(t, w.IsBatch(now, now.Add(500*time.Millisecond)))
}

func TestEntriesAgeOut(t *testing.T) {
	w := NewWindow(500*time.Millisecond, 3)
	now := time.Now()

	w.Record("/w/a.go", now)
	w.Record("/w/b.go", now)
	w.Record("/w/c.go", now)

	// Two spans later nothing remains for any observer.
	assert.Equal(t, 0, w.CountSince(now.Add(-500*time.Millisecond), now.Add(1100*time.Millisecond)))
}

func TestReset(t *testing.T) {
	w := NewWindow(500*time.Millisecond, 3)
	now := time.Now()

	w.Record("/w/a.go", now)
	w.Reset()

	assert.Equal(t, 0, w.CountSince(now.Add(-time.Second), now))
}

func TestDefaults(t *testing.T) {
	w := NewWindow(0, 0)
	assert.Equal(t, DefaultWindow, w.Span())
	assert.Equal(t, DefaultThreshold, w.Threshold())
}
