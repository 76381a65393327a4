package db

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound is returned when no job has the requested id
var ErrJobNotFound = errors.New("sync job not found")

// JobStore defines the database operations on sync jobs
type JobStore interface {
	EnqueueJob(ctx context.Context, spreadsheetURL, source string) (*SyncJob, error)
	// ClaimNextJob marks the oldest queued job as running and returns it, or nil when none is queued
	ClaimNextJob(ctx context.Context) (*SyncJob, error)
	CompleteJob(ctx context.Context, id string, summary JobSummary) error
	FailJob(ctx context.Context, id string, summary JobSummary) error
	GetJob(ctx context.Context, id string) (*SyncJob, error)
	ListJobs(ctx context.Context, limit int) ([]SyncJob, error)
	// FailStaleJobs fails running jobs started before olderThan and returns how many it changed
	FailStaleJobs(ctx context.Context, olderThan time.Time) (int, error)
}
