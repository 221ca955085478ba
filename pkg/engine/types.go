// Package engine decides, per file change event, whether the change
// was made by an autonomous code-editing agent and should be revealed
// to the user.
//
// Checks run strictly in order, cheapest and most certain first: path
// classification, package/build suppression, per-path debouncing,
// visibility, and finally, after waiting out the burst-detection
// window, the batch verdict. Only an event that survives every check reaches
// the open action, which is idempotent and retried through a bounded
// ladder.
//
// All mutable decision state (debounce ledger, burst window,
// suppression monitor, opened record) is owned by the Engine and
// cleared on Close.
package engine

import (
	"time"

	"agentreveal/pkg/classify"
	"agentreveal/pkg/suppress"
)

// Kind describes how a change event entered the system.
type Kind uint8

// Event kinds. Editor document change/save notifications are funneled
// in as KindModified so every source shares one decision path.
const (
	KindCreated Kind = iota + 1
	KindModified
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindCreated:
		return "created"
	case KindModified:
		return "modified"
	default:
		return "unknown"
	}
}

// Event is a single change notification entering the engine.
type Event struct {
	// Path is the absolute path of the changed file.
	Path string

	// Kind is the change kind.
	Kind Kind

	// At is when the change was observed. Zero means "now".
	At time.Time
}

// Outcome names the result of a decision, used for logging and
// journal counters.
type Outcome string

// Decision outcomes.
const (
	OutcomeEvents        Outcome = "events"
	OutcomeTrigger       Outcome = "trigger"
	OutcomeDenied        Outcome = "denied"
	OutcomeSuppressed    Outcome = "suppressed"
	OutcomeDebounced     Outcome = "debounced"
	OutcomeVisible       Outcome = "visible"
	OutcomeAlreadyOpened Outcome = "already_opened"
	OutcomeBatch         Outcome = "batch"
	OutcomeOpened        Outcome = "opened"
	OutcomeOpenFailed    Outcome = "open_failed"
)

// Recorder counts decision outcomes. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// Record increments the counter for an outcome.
	Record(outcome Outcome)
}

// nopRecorder discards all outcomes.
type nopRecorder struct{}

func (nopRecorder) Record(Outcome) {}

// Config contains engine tuning.
type Config struct {
	// Rules drive path classification. Zero value means the built-in
	// rule sets.
	Rules classify.Rules

	// Triggers are the package/build early-indicator paths. Zero
	// value means the built-in set.
	Triggers suppress.TriggerSet

	// DebounceTTL suppresses repeat events per path. Default: 1.5s.
	DebounceTTL time.Duration

	// DebouncePurgeThreshold is the ledger size at which stale
	// entries are evicted. Default: 256.
	DebouncePurgeThreshold int

	// BurstWindow is the span within which changes count as
	// near-simultaneous, and the delay each decision waits before its
	// batch verdict. Default: 500ms.
	BurstWindow time.Duration

	// BurstThreshold is the change count at which a cohort is a batch
	// operation. Default: 3.
	BurstThreshold int

	// Cooldown is how long package/build suppression stays active
	// after the last trigger observation. Default: 30s.
	Cooldown time.Duration

	// SettleDelay is how long a surviving event waits before the open
	// action, letting the writer finish. Default: 300ms.
	SettleDelay time.Duration

	// MaxOpenRetries bounds the open retry ladder. Default: 3.
	MaxOpenRetries int

	// RetryDelay separates open attempts. Default: 250ms.
	RetryDelay time.Duration

	// SizeLimitRetryDelay is the longer delay used once after a
	// spurious size-limit rejection. Default: 1s.
	SizeLimitRetryDelay time.Duration
}
