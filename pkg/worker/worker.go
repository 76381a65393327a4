package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/youth-roster-sync/pkg/db"
)

// Notifier sends the outcome of a finished job
type Notifier interface {
	SendSyncSummary(ctx context.Context, job db.SyncJob) error
}

// Config controls job polling
type Config struct {
	PollInterval    time.Duration
	StaleJobTimeout time.Duration
}

// Worker claims queued sync jobs and runs them one at a time
type Worker struct {
	jobs     db.JobStore
	runner   *Runner
	notifier Notifier
	cfg      Config
	logger   *zap.Logger

	once sync.Once
	now  func() time.Time
}

// NewWorker creates a worker, notifier may be nil
func NewWorker(jobs db.JobStore, runner *Runner, notifier Notifier, cfg Config, logger *zap.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.StaleJobTimeout <= 0 {
		cfg.StaleJobTimeout = 30 * time.Minute
	}

	return &Worker{
		jobs:     jobs,
		runner:   runner,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the worker loop in the background, later calls are no-ops
func (w *Worker) Start(ctx context.Context) {
	w.once.Do(func() {
		go func() {
			if err := w.Run(ctx); err != nil {
				w.logger.Error("Worker stopped", zap.Error(err))
			}
		}()
	})
}

// Run polls for jobs until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	stale, err := w.jobs.FailStaleJobs(ctx, w.now().Add(-w.cfg.StaleJobTimeout))
	if err != nil {
		return err
	}
	if stale > 0 {
		w.logger.Warn("Marked stale sync jobs as failed", zap.Int("count", stale))
	}

	w.logger.Info("Worker started", zap.Duration("poll_interval", w.cfg.PollInterval))

	for {
		if ctx.Err() != nil {
			w.logger.Info("Worker stopping")
			return nil
		}

		processed, err := w.ProcessNext(ctx)
		if err != nil {
			w.logger.Error("Failed to process sync job", zap.Error(err))
		}

		if !processed || err != nil {
			if !sleepWithContext(ctx, w.cfg.PollInterval) {
				w.logger.Info("Worker stopping")
				return nil
			}
		}
	}
}

// ProcessNext runs the next queued job, returning false when the queue was empty
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	job, err := w.jobs.ClaimNextJob(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	logger := w.logger.With(zap.String("job_id", job.ID))
	logger.Info("Running sync job", zap.String("url", job.SpreadsheetURL), zap.String("source", job.Source))

	result := w.runner.sync(ctx, job.SpreadsheetURL)
	summary := db.JobSummary{
		Message:   result.Message,
		Fetched:   result.Fetched,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
	}

	// The outcome is recorded even when shutdown cancelled ctx mid-run
	recordCtx := context.WithoutCancel(ctx)
	if result.Success {
		err = w.jobs.CompleteJob(recordCtx, job.ID, summary)
		job.Status = db.JobSucceeded
	} else {
		err = w.jobs.FailJob(recordCtx, job.ID, summary)
		job.Status = db.JobFailed
	}
	if err != nil {
		return true, err
	}

	logger.Info("Sync job finished", zap.String("status", string(job.Status)), zap.String("message", result.Message))

	if w.notifier != nil {
		job.Message = summary.Message
		job.Fetched = summary.Fetched
		job.Succeeded = summary.Succeeded
		job.Failed = summary.Failed
		if err := w.notifier.SendSyncSummary(recordCtx, *job); err != nil {
			logger.Warn("Failed to send sync summary", zap.Error(err))
		}
	}

	return true, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
