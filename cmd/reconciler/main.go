package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucasmv/marketbot/internal/config"
	"github.com/lucasmv/marketbot/internal/database"
	"github.com/lucasmv/marketbot/internal/jobs"
	"github.com/lucasmv/marketbot/internal/normalize"
	"github.com/lucasmv/marketbot/internal/store"
	"github.com/lucasmv/marketbot/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/reconciler.local.yaml", "path to config file")
	jobsPath := flag.String("jobs", "", "job file path (overrides config)")
	watch := flag.Bool("watch", false, "watch the job file and re-run on change")
	flag.Parse()

	// Set up structured logging; level is refined after config load
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting reconciler",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *jobsPath != "" {
		cfg.Jobs.File = *jobsPath
	}

	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"jobs_file", cfg.Jobs.File,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("database connected")

	norm := normalize.New(normalize.DefaultConfig())
	st := store.NewPostgres(pool, norm, logger)
	if err := st.Migrate(ctx); err != nil {
		logger.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}

	scheduler := jobs.New(jobs.Config{
		File:          cfg.Jobs.File,
		WatchInterval: cfg.Jobs.WatchInterval,
	}, st, norm, logger)

	if !*watch {
		if err := scheduler.RunOnce(ctx); err != nil {
			logger.Error("job run failed", "error", err)
			os.Exit(1)
		}
		logger.Info("reconciler done")
		return
	}

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	logger.Info("reconciler running", "instance_id", cfg.Instance.ID)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler stop timed out", "error", err)
	}

	logger.Info("reconciler stopped")
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
