package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/masterstrokeglobal/leadboard/config"
	"github.com/masterstrokeglobal/leadboard/internal/adapters/backend"
	"github.com/masterstrokeglobal/leadboard/internal/adapters/binance"
	"github.com/masterstrokeglobal/leadboard/internal/adapters/notify"
	"github.com/masterstrokeglobal/leadboard/internal/adapters/storage"
	"github.com/masterstrokeglobal/leadboard/internal/leadboard"
	"github.com/masterstrokeglobal/leadboard/internal/runner"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "follow one round to completion and exit")
	dryRun := flag.Bool("dry-run", false, "skip persistence, console output only")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print live snapshots as full tables (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("leadboard starting",
		"config", *configPath,
		"backend", cfg.Backend.BaseURL,
		"game_type", cfg.Backend.GameType,
		"dry_run", *dryRun,
		"once", *once,
	)

	client := backend.NewClient(cfg.Backend.BaseURL)

	var store *storage.SQLiteStorage
	if !*dryRun {
		store, err = storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()
	}

	notifier := notify.NewConsole(*table)

	runCfg := runner.DefaultConfig()
	runCfg.PollInterval = cfg.PollInterval()
	runCfg.GameType = cfg.Backend.GameType
	runCfg.Engine = leadboard.Config{
		SnapshotInterval: cfg.SnapshotInterval(),
		EndCheckInterval: cfg.EndCheckInterval(),
	}

	feeds := binance.Factory(cfg.Feed.URL, cfg.ReconnectDelay())

	var r *runner.Runner
	if store != nil {
		r = runner.New(runCfg, client, client, store, notifier, feeds)
	} else {
		r = runner.New(runCfg, client, client, nil, notifier, feeds)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		if err := r.RunOnce(ctx); err != nil {
			slog.Error("runner exited with error", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := r.Run(ctx); err != nil {
		slog.Error("runner exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("leadboard stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
