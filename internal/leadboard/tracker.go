package leadboard

import (
	"log/slog"
	"strings"

	"github.com/masterstrokeglobal/leadboard/internal/domain"
)

// Tracker converts raw price ticks into change-percent values with the
// round's baseline semantics: one baseline per symbol per round, captured at
// the first tick seen during tracking, never overwritten afterwards.
//
// Not safe for concurrent use; the engine serializes calls under its mutex.
type Tracker struct {
	baselines map[string]float64 // lowercase bitcode → baseline price
	initial   map[string]float64 // backend-provided baselines, lowercase bitcode
}

// NewTracker creates a tracker for one round instance. initialValues may be
// nil; when a symbol has a backend baseline it wins over the first tick.
func NewTracker(initialValues map[string]float64) *Tracker {
	return &Tracker{
		baselines: make(map[string]float64),
		initial:   initialValues,
	}
}

// Apply folds one tick into the item given the current round phase.
// It reports whether the tick was accepted during tracking, i.e. whether the
// caller must recompute ranks.
func (t *Tracker) Apply(item *domain.TrackedItem, price float64, phase domain.Phase) bool {
	switch phase {
	case domain.PhaseCompleted:
		// Frozen: the last computed values are retained as-is.
		return false

	case domain.PhasePreTracking:
		// Keep the latest price visible but measure nothing yet.
		item.Price = price
		item.ChangeValue = 0
		item.ChangePercent = "0"
		return false
	}

	key := strings.ToLower(item.Bitcode)
	baseline, ok := t.baselines[key]
	if !ok {
		baseline = price
		if v, has := t.initial[key]; has {
			baseline = v
		}
		if baseline <= 0 {
			// A zero baseline would poison every later division. Skip the
			// tick; the next one with a usable price seeds the baseline.
			slog.Debug("leadboard: skipping tick with unusable baseline",
				"bitcode", item.Bitcode, "price", price)
			return false
		}
		t.baselines[key] = baseline
		item.InitialPrice = baseline
		item.Price = price
		item.ChangeValue = 0
		item.ChangePercent = "0"
		return true
	}

	if baseline <= 0 {
		slog.Debug("leadboard: zero baseline, skipping tick", "bitcode", item.Bitcode)
		return false
	}

	change := (price - baseline) / baseline * 100
	item.Price = price
	item.ChangeValue = change
	item.ChangePercent = domain.FormatChange(change)
	return true
}

// Baseline returns the captured baseline for a bitcode, if any.
func (t *Tracker) Baseline(bitcode string) (float64, bool) {
	v, ok := t.baselines[strings.ToLower(bitcode)]
	return v, ok
}

// Clear drops all captured baselines. Called on round finalization so no
// baseline can leak into a later round instance.
func (t *Tracker) Clear() {
	t.baselines = make(map[string]float64)
}
