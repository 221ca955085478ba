package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentreveal/pkg/editor"
	"agentreveal/pkg/logger"
)

// fakeClock is a controllable time source. Sleep blocks until Advance
// moves the clock past the deadline.
type fakeClock struct {
	mu       sync.Mutex
	now      time.Time
	sleepers []fakeSleeper
}

type fakeSleeper struct {
	deadline time.Time
	ch       chan struct{}
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	if d <= 0 {
		c.mu.Unlock()
		return
	}
	ch := make(chan struct{})
	c.sleepers = append(c.sleepers, fakeSleeper{deadline: c.now.Add(d), ch: ch})
	c.mu.Unlock()
	<-ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	remaining := c.sleepers[:0]
	for _, s := range c.sleepers {
		if s.deadline.After(c.now) {
			remaining = append(remaining, s)
		} else {
			close(s.ch)
		}
	}
	c.sleepers = remaining
	c.mu.Unlock()
}

func (c *fakeClock) sleeperCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sleepers)
}

// awaitSleepers waits until at least n decision flows are suspended on
// the clock.
func awaitSleepers(t *testing.T, c *fakeClock, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.sleeperCount() >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("never reached %d suspended flows", n)
}

// drive advances the clock until every in-flight decision settles.
func drive(t *testing.T, e *Engine, c *fakeClock) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		e.Wait()
		close(done)
	}()
	for i := 0; i < 10000; i++ {
		select {
		case <-done:
			return
		default:
			c.Advance(100 * time.Millisecond)
			time.Sleep(time.Millisecond)
		}
	}
	t.Fatal("engine did not settle")
}

// mockEditor implements editor.Editor for testing.
type mockEditor struct {
	mu         sync.Mutex
	visible    map[string]bool
	opens      []string
	openErrs   []error
	panicQuery bool
}

func newMockEditor() *mockEditor {
	return &mockEditor{visible: make(map[string]bool)}
}

func (m *mockEditor) IsVisible(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicQuery {
		panic("visibility query exploded")
	}
	return m.visible[path]
}

func (m *mockEditor) IsOpen(path string) bool {
	return m.IsVisible(path)
}

func (m *mockEditor) Open(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.openErrs) > 0 {
		err := m.openErrs[0]
		m.openErrs = m.openErrs[1:]
		if err != nil {
			return err
		}
	}
	m.opens = append(m.opens, path)
	return nil
}

func (m *mockEditor) setVisible(path string, v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible[path] = v
}

func (m *mockEditor) queueErrors(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErrs = append(m.openErrs, errs...)
}

func (m *mockEditor) openedPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.opens))
	copy(out, m.opens)
	return out
}

// mockRecorder counts outcomes.
type mockRecorder struct {
	mu     sync.Mutex
	counts map[Outcome]int
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{counts: make(map[Outcome]int)}
}

func (r *mockRecorder) Record(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[o]++
}

func (r *mockRecorder) count(o Outcome) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[o]
}

func newTestEngine(t *testing.T) (*Engine, *mockEditor, *mockRecorder, *fakeClock) {
	t.Helper()
	host := newMockEditor()
	rec := newMockRecorder()
	clk := newFakeClock()
	e := New(Config{}, host, clk, rec, logger.Noop())
	t.Cleanup(func() {
		drive(t, e, clk)
		require.NoError(t, e.Close())
	})
	return e, host, rec, clk
}

func TestSingleFileOpensOnce(t *testing.T) {
	e, host, rec, clk := newTestEngine(t)

	e.Handle(Event{Path: "/w/app/src/service.go", Kind: KindCreated})
	drive(t, e, clk)

	assert.Equal(t, []string{"/w/app/src/service.go"}, host.openedPaths())
	assert.Equal(t, 1, rec.count(OutcomeOpened))
}

func TestCheckoutBurstSuppressed(t *testing.T) {
	e, host, rec, clk := newTestEngine(t)

	// Ten files changed within 200ms, as a checkout would.
	base := clk.Now()
	for i := 0; i < 10; i++ {
		e.Handle(Event{
			Path: fmt.Sprintf("/w/app/src/file-%d.go", i),
			Kind: KindModified,
			At:   base.Add(time.Duration(i*20) * time.Millisecond),
		})
	}
	drive(t, e, clk)

	assert.Empty(t, host.openedPaths())
	assert.Equal(t, 10, rec.count(OutcomeBatch))
}

func TestTwoFilesBelowThresholdOpen(t *testing.T) {
	e, host, _, clk := newTestEngine(t)

	base := clk.Now()
	e.Handle(Event{Path: "/w/app/a.go", Kind: KindModified, At: base})
	e.Handle(Event{Path: "/w/app/b.go", Kind: KindModified, At: base.Add(50 * time.Millisecond)})
	drive(t, e, clk)

	assert.Len(t, host.openedPaths(), 2)
}

func TestCooldownSuppressesSourceChange(t *testing.T) {
	e, host, rec, clk := newTestEngine(t)

	// Lock-file change engages suppression.
	e.Handle(Event{Path: "/w/app/composer.lock", Kind: KindModified})
	assert.Equal(t, 1, rec.count(OutcomeTrigger))

	// A source change 5s later falls inside the cooldown.
	clk.Advance(5 * time.Second)
	e.Handle(Event{Path: "/w/app/app/Models/User.php", Kind: KindModified})
	assert.Equal(t, 1, rec.count(OutcomeSuppressed))

	// The same change 31s after the lock-file event is not suppressed.
	clk.Advance(26 * time.Second)
	e.Handle(Event{Path: "/w/app/app/Models/User.php", Kind: KindModified})
	drive(t, e, clk)

	assert.Equal(t, []string{"/w/app/app/Models/User.php"}, host.openedPaths())
}

func TestTriggerExtensionShiftsExpiry(t *testing.T) {
	e, _, rec, clk := newTestEngine(t)

	// The manifest event is both a trigger and itself suppressed.
	e.Handle(Event{Path: "/w/app/package.json", Kind: KindModified})
	assert.Equal(t, 1, rec.count(OutcomeSuppressed))

	clk.Advance(20 * time.Second)
	e.Handle(Event{Path: "/w/app/package-lock.json", Kind: KindModified})

	// 45s after the first trigger is still inside the extended window.
	clk.Advance(25 * time.Second)
	e.Handle(Event{Path: "/w/app/src/index.ts", Kind: KindModified})
	assert.Equal(t, 2, rec.count(OutcomeSuppressed))
}

func TestVisibleFileNeverOpened(t *testing.T) {
	e, host, rec, clk := newTestEngine(t)

	host.setVisible("/w/app/main.go", true)
	e.Handle(Event{Path: "/w/app/main.go", Kind: KindModified})
	drive(t, e, clk)

	assert.Empty(t, host.openedPaths())
	assert.Equal(t, 1, rec.count(OutcomeVisible))
}

func TestDeniedPathsIgnored(t *testing.T) {
	e, host, rec, clk := newTestEngine(t)

	e.Handle(Event{Path: "/w/app/node_modules/x/index.js", Kind: KindCreated})
	e.Handle(Event{Path: "/w/app/build.log", Kind: KindModified})
	e.Handle(Event{Path: "/w/app/binary.exe", Kind: KindCreated})
	drive(t, e, clk)

	assert.Empty(t, host.openedPaths())
	assert.Equal(t, 3, rec.count(OutcomeDenied))
}

func TestDebounceCollapsesRedundantNotifications(t *testing.T) {
	e, host, rec, clk := newTestEngine(t)

	e.Handle(Event{Path: "/w/app/a.go", Kind: KindModified})
	clk.Advance(100 * time.Millisecond)
	e.Handle(Event{Path: "/w/app/a.go", Kind: KindModified})
	drive(t, e, clk)

	assert.Equal(t, 1, rec.count(OutcomeDebounced))
	assert.Equal(t, []string{"/w/app/a.go"}, host.openedPaths())
}

func TestOpenedFileNotReopened(t *testing.T) {
	e, host, rec, clk := newTestEngine(t)

	e.Handle(Event{Path: "/w/app/a.go", Kind: KindModified})
	drive(t, e, clk)
	require.Len(t, host.openedPaths(), 1)

	// Well past the debounce TTL, the same file is touched again
	// while still being written by the agent.
	clk.Advance(10 * time.Second)
	e.Handle(Event{Path: "/w/app/a.go", Kind: KindModified})
	drive(t, e, clk)

	assert.Len(t, host.openedPaths(), 1)
	assert.Equal(t, 1, rec.count(OutcomeAlreadyOpened))
}

func TestSuppressionEngagedDuringWait(t *testing.T) {
	e, host, rec, clk := newTestEngine(t)

	e.Handle(Event{Path: "/w/app/a.go", Kind: KindModified})
	awaitSleepers(t, clk, 1)

	// Package activity starts while the first decision is suspended.
	e.Handle(Event{Path: "/w/app/package.json", Kind: KindModified})
	drive(t, e, clk)

	assert.Empty(t, host.openedPaths())
	assert.GreaterOrEqual(t, rec.count(OutcomeSuppressed), 1)
}

func TestSpuriousSizeLimitRetried(t *testing.T) {
	e, host, rec, clk := newTestEngine(t)

	host.queueErrors(editor.ErrSizeLimit)
	e.Handle(Event{Path: "/w/app/a.go", Kind: KindModified})
	drive(t, e, clk)

	assert.Equal(t, []string{"/w/app/a.go"}, host.openedPaths())
	assert.Equal(t, 1, rec.count(OutcomeOpened))
}

func TestTransientNotFoundRetried(t *testing.T) {
	e, host, _, clk := newTestEngine(t)

	host.queueErrors(editor.ErrNotFound, editor.ErrNotReady)
	e.Handle(Event{Path: "/w/app/a.go", Kind: KindModified})
	drive(t, e, clk)

	assert.Equal(t, []string{"/w/app/a.go"}, host.openedPaths())
}

func TestRetryLadderExhaustedSilently(t *testing.T) {
	e, host, rec, clk := newTestEngine(t)

	host.queueErrors(editor.ErrNotFound, editor.ErrNotFound, editor.ErrNotFound)
	e.Handle(Event{Path: "/w/app/a.go", Kind: KindModified})
	drive(t, e, clk)

	assert.Empty(t, host.openedPaths())
	assert.Equal(t, 1, rec.count(OutcomeOpenFailed))
}

func TestTriggerEventItselfNeverOpens(t *testing.T) {
	e, host, _, clk := newTestEngine(t)

	e.Handle(Event{Path: "/w/app/package.json", Kind: KindModified})
	drive(t, e, clk)

	assert.Empty(t, host.openedPaths())
}

func TestClosedEngineDropsEvents(t *testing.T) {
	host := newMockEditor()
	clk := newFakeClock()
	e := New(Config{}, host, clk, nil, logger.Noop())
	require.NoError(t, e.Close())

	e.Handle(Event{Path: "/w/app/a.go", Kind: KindModified})
	e.Wait()

	assert.Empty(t, host.openedPaths())
}

func TestCloseIdempotent(t *testing.T) {
	e := New(Config{}, newMockEditor(), newFakeClock(), nil, logger.Noop())
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
}

func TestPanicDoesNotEscapeHandle(t *testing.T) {
	host := newMockEditor()
	host.panicQuery = true
	clk := newFakeClock()
	e := New(Config{}, host, clk, nil, logger.Noop())
	defer func() {
		_ = e.Close()
	}()

	assert.NotPanics(t, func() {
		e.Handle(Event{Path: "/w/app/a.go", Kind: KindModified})
	})
}
