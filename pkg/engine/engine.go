package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"agentreveal/pkg/burst"
	"agentreveal/pkg/classify"
	"agentreveal/pkg/debounce"
	"agentreveal/pkg/editor"
	"agentreveal/pkg/logger"
	"agentreveal/pkg/suppress"
)

// openRequestTimeout bounds a single open request to the host.
const openRequestTimeout = 5 * time.Second

// Engine runs the per-event decision state machine.
type Engine struct {
	config   Config
	logger   logger.Logger
	host     editor.Editor
	clock    Clock
	recorder Recorder

	rules      classify.Rules
	ledger     *debounce.Ledger
	window     *burst.Window
	suppressor *suppress.Monitor

	mu     sync.Mutex
	opened map[string]struct{}
	closed bool

	wg sync.WaitGroup
}

// New creates an engine.
//
// Parameters:
//   - cfg: Engine tuning; zero fields take defaults
//   - host: The editor the engine queries and opens documents in
//   - clk: Time source; nil means the wall clock
//   - rec: Outcome recorder; nil discards outcomes
//   - log: Logger instance
func New(cfg Config, host editor.Editor, clk Clock, rec Recorder, log logger.Logger) *Engine {
	if cfg.BurstWindow == 0 {
		cfg.BurstWindow = burst.DefaultWindow
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 300 * time.Millisecond
	}
	if cfg.MaxOpenRetries == 0 {
		cfg.MaxOpenRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 250 * time.Millisecond
	}
	if cfg.SizeLimitRetryDelay == 0 {
		cfg.SizeLimitRetryDelay = time.Second
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = suppress.DefaultCooldown
	}
	if clk == nil {
		clk = RealClock()
	}
	if rec == nil {
		rec = nopRecorder{}
	}

	rules := cfg.Rules
	if len(rules.AllowedExtensions) == 0 {
		rules = classify.DefaultRules()
	}

	e := &Engine{
		config:     cfg,
		logger:     log,
		host:       host,
		clock:      clk,
		recorder:   rec,
		rules:      rules,
		ledger:     debounce.NewLedger(cfg.DebounceTTL, cfg.DebouncePurgeThreshold),
		window:     burst.NewWindow(cfg.BurstWindow, cfg.BurstThreshold),
		suppressor: suppress.NewMonitor(cfg.Cooldown, cfg.Triggers),
		opened:     make(map[string]struct{}),
	}

	log.Info("decision engine created",
		"burst_window", cfg.BurstWindow,
		"cooldown", cfg.Cooldown,
		"max_open_retries", cfg.MaxOpenRetries)

	return e
}

// Handle runs the decision state machine for one event. It is the
// single entry point for every event source: filesystem watcher
// events and editor document notifications alike.
//
// Handle never panics across the caller boundary; failures are
// downgraded to log lines.
func (e *Engine) Handle(ev Event) {
	defer e.recoverPanic("handle")

	if e.isClosed() {
		return
	}

	if ev.At.IsZero() {
		ev.At = e.clock.Now()
	}
	e.recorder.Record(OutcomeEvents)

	// Early indicators are checked on the raw stream, before any
	// other filter: they must engage suppression even when the
	// trigger path itself would be denied by classification.
	if e.suppressor.Observe(ev.Path, ev.At) {
		e.recorder.Record(OutcomeTrigger)
		e.logger.Debug("package/build activity trigger",
			"path", ev.Path,
			"suppressed_until", e.suppressor.ExpiresAt())
	}

	verdict := e.rules.Check(ev.Path)
	if !verdict.Allowed {
		e.recorder.Record(OutcomeDenied)
		e.logger.Debug("event denied by classifier",
			"path", ev.Path,
			"reason", verdict.Reason,
			"match", verdict.Match)
		return
	}

	if e.suppressor.Active(ev.At) {
		e.recorder.Record(OutcomeSuppressed)
		e.logger.Debug("event suppressed by package/build activity", "path", ev.Path)
		return
	}

	if !e.ledger.ShouldProcess(ev.Path, ev.At) {
		e.recorder.Record(OutcomeDebounced)
		return
	}

	if e.host.IsVisible(ev.Path) {
		e.recorder.Record(OutcomeVisible)
		e.logger.Debug("event ignored, document visible to user", "path", ev.Path)
		return
	}

	if e.hasOpened(ev.Path) {
		e.recorder.Record(OutcomeAlreadyOpened)
		return
	}

	e.window.Record(ev.Path, ev.At)

	e.wg.Add(1)
	go e.finish(ev)
}

// finish completes a decision after the burst-detection wait. It runs
// in its own goroutine; multiple decisions may be in flight at once.
func (e *Engine) finish(ev Event) {
	defer e.wg.Done()
	defer e.recoverPanic("finish")

	e.clock.Sleep(e.config.BurstWindow)
	now := e.clock.Now()

	// Suppression may have newly activated during the wait. The wait
	// itself is never cancelled; only the outcome is.
	if e.suppressor.Active(now) {
		e.recorder.Record(OutcomeSuppressed)
		e.logger.Debug("suppression engaged during wait", "path", ev.Path)
		return
	}

	if e.window.IsBatch(ev.At, now) {
		e.recorder.Record(OutcomeBatch)
		e.logger.Debug("event classified as batch operation",
			"path", ev.Path,
			"kind", ev.Kind.String())
		return
	}

	e.clock.Sleep(e.config.SettleDelay)
	e.open(ev.Path)
}

// open performs the idempotent open action with its retry ladder.
//
// Transient host races (file briefly missing, unsynchronized document
// state, spurious size-limit rejections) are retried; a spurious
// size-limit error gets one extra retry after a longer delay. When the
// ladder is exhausted the event is dropped silently, logged only.
func (e *Engine) open(path string) {
	if e.hasOpened(path) || e.host.IsVisible(path) {
		e.recorder.Record(OutcomeAlreadyOpened)
		return
	}

	var lastErr error
	sizeLimitRetried := false

	for attempt := 1; attempt <= e.config.MaxOpenRetries; attempt++ {
		if e.isClosed() {
			return
		}

		err := e.tryOpen(path)
		if err == nil {
			e.markOpened(path)
			e.recorder.Record(OutcomeOpened)
			e.logger.Info("opened agent-edited file",
				"path", path,
				"attempt", attempt)
			return
		}
		lastErr = err

		if attempt == e.config.MaxOpenRetries {
			break
		}

		delay := e.config.RetryDelay
		if errors.Is(err, editor.ErrSizeLimit) {
			if sizeLimitRetried {
				break
			}
			// Known host quirk: size-limit errors can be raised for
			// files under the limit. Treated as transient, retried
			// once after a longer delay.
			sizeLimitRetried = true
			delay = e.config.SizeLimitRetryDelay
		}

		e.clock.Sleep(delay)
	}

	e.recorder.Record(OutcomeOpenFailed)
	e.logger.Warn("giving up on open after retries",
		"path", path,
		"error", lastErr)
}

// tryOpen issues a single open request.
func (e *Engine) tryOpen(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), openRequestTimeout)
	defer cancel()
	return e.host.Open(ctx, path)
}

// Wait blocks until every in-flight decision has run to completion.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close marks the engine closed, waits for in-flight decisions, and
// clears all decision state.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.wg.Wait()

	e.ledger.Reset()
	e.window.Reset()
	e.suppressor.Reset()

	e.mu.Lock()
	e.opened = make(map[string]struct{})
	e.mu.Unlock()

	e.logger.Info("decision engine closed")
	return nil
}

// Suppressor exposes the suppression monitor for status reporting.
func (e *Engine) Suppressor() *suppress.Monitor {
	return e.suppressor
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Engine) hasOpened(path string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.opened[path]
	return ok
}

func (e *Engine) markOpened(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opened[path] = struct{}{}
}

// recoverPanic downgrades a panic to a log line: no failure may cross
// the event boundary back into the host's dispatch loop.
func (e *Engine) recoverPanic(where string) {
	if r := recover(); r != nil {
		e.logger.Error("recovered panic in decision flow",
			"where", where,
			"panic", r)
	}
}
