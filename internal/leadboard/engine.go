package leadboard

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/masterstrokeglobal/leadboard/internal/domain"
	"github.com/masterstrokeglobal/leadboard/internal/ports"
)

const (
	defaultSnapshotInterval = 2 * time.Second
	defaultEndCheckInterval = 1 * time.Second
)

// Config holds the timing knobs of the engine. The defaults match what the
// UI consumes in production; tests shrink them.
type Config struct {
	// SnapshotInterval is the cadence at which observers receive an
	// immutable copy of the tracked-item list.
	SnapshotInterval time.Duration
	// EndCheckInterval is the cadence of the end-of-round detection check.
	EndCheckInterval time.Duration
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Hooks are the engine's outbound callbacks. Both receive defensive copies
// and may be nil.
type Hooks struct {
	// OnSnapshot fires every SnapshotInterval with the current ranking.
	OnSnapshot func(items []*domain.TrackedItem)
	// OnFinalize fires exactly once per round instance, when the end of
	// the round is first detected, with the frozen final ranking.
	OnFinalize func(items []*domain.TrackedItem)
}

// Engine owns the live ranking of one round: one price feed, one tracker,
// and the snapshot/finalization timers. It is constructed fresh per round
// and fully torn down on switch so no state leaks across rounds.
type Engine struct {
	id    string
	round domain.Round
	cfg   Config
	hooks Hooks

	mu        sync.Mutex
	items     []*domain.TrackedItem
	byCode    map[string]*domain.TrackedItem // lowercase bitcode → item
	tracker   *Tracker
	finalized bool

	feed     ports.PriceFeed
	done     chan struct{}
	stopOnce sync.Once
}

// New seeds the tracked items from the round's market list (zero state) and
// wires the price feed for its stream channels. The feed is not started
// until Start.
func New(round domain.Round, factory ports.FeedFactory, cfg Config, hooks Hooks) *Engine {
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = defaultSnapshotInterval
	}
	if cfg.EndCheckInterval <= 0 {
		cfg.EndCheckInterval = defaultEndCheckInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	e := &Engine{
		id:      uuid.New().String(),
		round:   round,
		cfg:     cfg,
		hooks:   hooks,
		items:   domain.NewTrackedItems(round.Market),
		byCode:  make(map[string]*domain.TrackedItem, len(round.Market)),
		tracker: NewTracker(round.InitialValues),
		done:    make(chan struct{}),
	}
	for _, it := range e.items {
		e.byCode[strings.ToLower(it.Bitcode)] = it
	}

	if streams := round.Streams(); len(streams) > 0 {
		e.feed = factory(streams, e.handleTick, e.handleState)
	}
	return e
}

// Start connects the feed and launches the snapshot and end-check timers.
// It does not block.
func (e *Engine) Start(ctx context.Context) error {
	slog.Info("leadboard: engine starting",
		"engine", e.id,
		"round", e.round.ID,
		"symbols", len(e.items),
		"placement_end", e.round.PlacementEndTime,
		"end", e.round.EndTime,
	)

	if e.feed != nil {
		if err := e.feed.Start(ctx); err != nil {
			return err
		}
	} else {
		slog.Warn("leadboard: round has no streams, feed not started", "round", e.round.ID)
	}

	go e.loop(ctx)
	return nil
}

// Stop tears the engine down: cancels both timers, closes the feed and
// clears the baseline map. Idempotent, safe across rapid round switches.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.done)
		if e.feed != nil {
			e.feed.Stop()
		}
		e.mu.Lock()
		e.tracker.Clear()
		e.mu.Unlock()
		slog.Info("leadboard: engine stopped", "engine", e.id, "round", e.round.ID)
	})
}

// State returns the feed connection state for display.
func (e *Engine) State() domain.ConnState {
	if e.feed == nil {
		return domain.ConnDisconnected
	}
	return e.feed.State()
}

// Snapshot returns an immutable copy of the current ranking. Observers never
// see in-flight mutation.
func (e *Engine) Snapshot() []*domain.TrackedItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyItems(e.items)
}

// Finalized reports whether end-of-round finalization already ran.
func (e *Engine) Finalized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finalized
}

// loop runs the two periodic timers until teardown or finalization.
func (e *Engine) loop(ctx context.Context) {
	snap := time.NewTicker(e.cfg.SnapshotInterval)
	defer snap.Stop()
	endCheck := time.NewTicker(e.cfg.EndCheckInterval)
	defer endCheck.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case <-snap.C:
			e.publishSnapshot()
		case <-endCheck.C:
			if !e.cfg.Now().Before(e.round.EndTime) {
				e.finalize()
				return
			}
		}
	}
}

// handleTick is the feed callback. Ticks are serialized per connection, so
// per-symbol state only mutates in arrival order.
func (e *Engine) handleTick(symbol string, price float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.finalized {
		return
	}
	item, ok := e.byCode[strings.ToLower(symbol)]
	if !ok {
		return
	}

	phase := e.round.PhaseAt(e.cfg.Now())
	if e.tracker.Apply(item, price, phase) && phase == domain.PhaseTracking {
		domain.RankByChange(e.items)
	}
}

func (e *Engine) handleState(state domain.ConnState) {
	slog.Info("leadboard: feed state", "engine", e.id, "round", e.round.ID, "state", state)
}

func (e *Engine) publishSnapshot() {
	if e.hooks.OnSnapshot == nil {
		return
	}
	e.mu.Lock()
	items := copyItems(e.items)
	e.mu.Unlock()
	e.hooks.OnSnapshot(items)
}

// finalize runs the end-of-round sequence exactly once: log the final
// standings, close the feed, clear baselines, hand the frozen ranking to the
// OnFinalize hook. The caller (loop) stops both timers by returning.
func (e *Engine) finalize() {
	e.mu.Lock()
	if e.finalized {
		e.mu.Unlock()
		return
	}
	e.finalized = true

	for _, it := range e.items {
		slog.Info("leadboard: final standing",
			"round", e.round.ID,
			"rank", it.Rank,
			"bitcode", it.Bitcode,
			"initial", it.InitialPrice,
			"final", it.Price,
			"change", it.ChangePercent,
		)
	}
	items := copyItems(e.items)
	e.tracker.Clear()
	e.mu.Unlock()

	if e.feed != nil {
		e.feed.Stop()
	}
	slog.Info("leadboard: round finalized", "engine", e.id, "round", e.round.ID)

	if e.hooks.OnFinalize != nil {
		e.hooks.OnFinalize(items)
	}
}

func copyItems(items []*domain.TrackedItem) []*domain.TrackedItem {
	out := make([]*domain.TrackedItem, len(items))
	for i, it := range items {
		c := *it
		out[i] = &c
	}
	return out
}
