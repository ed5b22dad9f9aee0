package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/masterstrokeglobal/leadboard/internal/domain"
	"github.com/masterstrokeglobal/leadboard/internal/leadboard"
	"github.com/masterstrokeglobal/leadboard/internal/ports"
)

// Config contiene la configuración del runner.
type Config struct {
	// PollInterval es la cadencia de consulta de la ronda activa al backend.
	PollInterval time.Duration
	// GameType identifica el juego cuyas rondas se siguen.
	GameType string
	// Engine son los knobs de timing del engine por ronda.
	Engine leadboard.Config
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		PollInterval: 5 * time.Second,
	}
}

// Runner es el orquestador: sigue la ronda activa del backend y mantiene un
// engine de leaderboard por ronda. Al cambiar de ronda, el engine anterior
// se destruye por completo antes de arrancar el siguiente.
type Runner struct {
	cfg        Config
	rounds     ports.RoundProvider
	placements ports.PlacementProvider
	storage    ports.ResultStorage
	notifier   ports.Notifier
	feeds      ports.FeedFactory

	engine  *leadboard.Engine
	current domain.Round
	baseCtx context.Context
}

// New crea un Runner con todas las dependencias inyectadas.
// storage y notifier pueden ser nil (p.ej. en dry-run).
func New(
	cfg Config,
	rounds ports.RoundProvider,
	placements ports.PlacementProvider,
	storage ports.ResultStorage,
	notifier ports.Notifier,
	feeds ports.FeedFactory,
) *Runner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	return &Runner{
		cfg:        cfg,
		rounds:     rounds,
		placements: placements,
		storage:    storage,
		notifier:   notifier,
		feeds:      feeds,
	}
}

// Run sigue rondas hasta que el contexto se cancele.
func (r *Runner) Run(ctx context.Context) error {
	slog.Info("runner starting",
		"game_type", r.cfg.GameType,
		"poll_interval", r.cfg.PollInterval,
	)
	r.baseCtx = ctx

	r.poll(ctx)

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.teardown()
			slog.Info("runner stopped")
			return nil
		case <-ticker.C:
			r.poll(ctx)
		}
	}
}

// RunOnce sigue exactamente una ronda hasta su finalización y termina.
func (r *Runner) RunOnce(ctx context.Context) error {
	r.baseCtx = ctx
	r.poll(ctx)
	if r.engine == nil {
		return fmt.Errorf("runner.RunOnce: no active round for game type %q", r.cfg.GameType)
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.teardown()
			return nil
		case <-ticker.C:
			if r.engine.Finalized() {
				r.teardown()
				return nil
			}
		}
	}
}

// poll consulta la ronda activa y cambia de engine si la ronda cambió.
// Errores del backend se loguean y se reintenta en el siguiente tick:
// el engine en curso sigue funcionando con su snapshot.
func (r *Runner) poll(ctx context.Context) {
	round, err := r.rounds.CurrentRound(ctx, r.cfg.GameType)
	if err != nil {
		slog.Warn("runner: fetching current round failed", "err", err)
		return
	}

	if r.engine != nil && round.ID == r.current.ID {
		return
	}
	if r.engine == nil && round.PhaseAt(time.Now()) == domain.PhaseCompleted {
		slog.Debug("runner: current round already completed, waiting for next", "round", round.ID)
		return
	}

	r.switchRound(ctx, round)
}

// switchRound destruye el engine anterior (si existe) y arranca uno nuevo
// para la ronda dada. El teardown es completo: ningún estado mutable cruza
// de una ronda a otra.
func (r *Runner) switchRound(ctx context.Context, round domain.Round) {
	if r.engine != nil {
		slog.Info("runner: switching round", "from", r.current.ID, "to", round.ID)
		r.engine.Stop()
		r.engine = nil
	}

	eng := leadboard.New(round, r.feeds, r.cfg.Engine, leadboard.Hooks{
		OnSnapshot: func(items []*domain.TrackedItem) {
			if r.notifier == nil {
				return
			}
			if err := r.notifier.NotifySnapshot(r.baseCtx, round.ID, items); err != nil {
				slog.Warn("runner: notifier error", "err", err)
			}
		},
		OnFinalize: func(items []*domain.TrackedItem) {
			r.finalizeRound(round, items)
		},
	})
	if err := eng.Start(ctx); err != nil {
		slog.Warn("runner: engine start failed", "round", round.ID, "err", err)
		eng.Stop()
		return
	}

	r.engine = eng
	r.current = round
}

// finalizeRound cierra el ciclo de una ronda terminada: agrega standings con
// las apuestas del backend, notifica y archiva. Todo best-effort: un fallo
// en un paso no impide los demás.
func (r *Runner) finalizeRound(round domain.Round, items []*domain.TrackedItem) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.baseCtx), 15*time.Second)
	defer cancel()

	var standings []domain.Standing
	placements, err := r.placements.RoundPlacements(ctx, round.ID)
	if err != nil {
		slog.Warn("runner: fetching placements failed", "round", round.ID, "err", err)
	} else {
		standings = domain.AggregateStandings(placements, items)
	}

	if r.notifier != nil {
		if err := r.notifier.NotifyFinal(ctx, round, items, standings); err != nil {
			slog.Warn("runner: notifier error", "err", err)
		}
	}

	if r.storage != nil {
		if err := r.storage.SaveResult(ctx, round, items, standings); err != nil {
			slog.Warn("runner: storage error", "round", round.ID, "err", err)
		}
	}
}

// teardown destruye el engine actual si existe. Idempotente.
func (r *Runner) teardown() {
	if r.engine != nil {
		r.engine.Stop()
		r.engine = nil
	}
}
