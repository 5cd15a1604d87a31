package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lucasmv/marketbot/internal/model"
	"github.com/lucasmv/marketbot/internal/normalize"
	"github.com/lucasmv/marketbot/internal/reconcile"
	"github.com/lucasmv/marketbot/internal/store"
)

// Config holds scheduler settings.
type Config struct {
	File          string        // Job file path
	WatchInterval time.Duration // Mtime poll interval in watch mode (default: 1s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		File:          "config/jobs.yaml",
		WatchInterval: time.Second,
	}
}

// Scheduler executes the job file against the store.
type Scheduler struct {
	cfg    Config
	store  store.Store
	norm   *normalize.Normalizer
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler.
func New(cfg Config, st store.Store, norm *normalize.Normalizer, logger *slog.Logger) *Scheduler {
	if cfg.WatchInterval <= 0 {
		cfg.WatchInterval = DefaultConfig().WatchInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:    cfg,
		store:  st,
		norm:   norm,
		logger: logger,
	}
}

// RunOnce loads the job file and executes every job in sequence under a
// single run row. Job-level failures are fatal only when storage is
// involved; unknown kinds are recorded and skipped.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	file, err := LoadFile(s.cfg.File)
	if err != nil {
		return err
	}

	runID, err := s.store.BeginRun(ctx, "jobs", filepath.Base(s.cfg.File))
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	var total model.RunSummary
	runErr := s.executeJobs(ctx, file.Jobs, &total)

	if err := s.store.EndRun(ctx, runID, total); err != nil {
		if runErr == nil {
			runErr = fmt.Errorf("end run: %w", err)
		}
	}
	return runErr
}

func (s *Scheduler) executeJobs(ctx context.Context, list []Job, total *model.RunSummary) error {
	for i, job := range list {
		switch job.Kind {
		case KindReconcileOrders:
			summary, err := s.runReconcile(ctx, job)
			if err != nil {
				return fmt.Errorf("job %d (%s): %w", i, job.Kind, err)
			}
			total.Matched += summary.Matched
			total.Filled += summary.Filled
			total.ClosedMissing += summary.ClosedMissing

		case KindCollectWatchlist, KindCollectCategory:
			// Collection is the UI driver's job; this binary only reconciles.
			s.logger.Info("job requires ui driver, skipped", "kind", job.Kind)

		default:
			s.logger.Warn("unknown job kind, skipped", "kind", job.Kind)
		}
	}
	return nil
}

func (s *Scheduler) runReconcile(ctx context.Context, job Job) (model.RunSummary, error) {
	params, err := job.ReconcileParams()
	if err != nil {
		return model.RunSummary{}, err
	}

	if len(job.Snapshots) > 0 {
		if err := s.importSnapshots(ctx, job.Snapshots); err != nil {
			return model.RunSummary{}, err
		}
	}

	engine, err := reconcile.New(params, s.store, s.norm, s.logger)
	if err != nil {
		return model.RunSummary{}, err
	}
	return engine.Run(ctx)
}

// importSnapshots stores the job's inline snapshot rows. Rows missing a
// required field are skipped, not fatal.
func (s *Scheduler) importSnapshots(ctx context.Context, rows []SnapshotRow) error {
	now := time.Now().UTC()
	snaps := make([]model.MarketSnapshot, 0, len(rows))
	skipped := 0
	for _, r := range rows {
		if !r.complete() {
			skipped++
			continue
		}
		snaps = append(snaps, r.toSnapshot(now))
	}

	imported, err := s.store.ImportSnapshots(ctx, snaps)
	if err != nil {
		return fmt.Errorf("import inline snapshots: %w", err)
	}
	if imported > 0 || skipped > 0 {
		s.logger.Info("inline snapshots imported",
			"imported", imported,
			"skipped", skipped,
		)
	}
	return nil
}

// Start begins watching the job file, re-running it whenever its
// modification time changes. The first run fires as soon as the file is
// seen.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.watch()

	s.logger.Info("job scheduler started",
		"file", s.cfg.File,
		"watch_interval", s.cfg.WatchInterval,
	)
	return nil
}

// Stop gracefully shuts down the watch loop.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("job scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// watch polls the job file's mtime and re-runs on change.
func (s *Scheduler) watch() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.WatchInterval)
	defer ticker.Stop()

	var lastMtime time.Time
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(s.cfg.File)
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					s.logger.Warn("stat job file failed", "err", err)
				}
				continue
			}
			if info.ModTime().Equal(lastMtime) {
				continue
			}
			lastMtime = info.ModTime()

			if err := s.RunOnce(s.ctx); err != nil {
				s.logger.Error("job run failed", "err", err)
			}
		}
	}
}
