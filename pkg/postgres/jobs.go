package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/youth-roster-sync/pkg/db"
)

const jobColumns = `id, spreadsheet_url, status, source, message, fetched, succeeded, failed, created_at, started_at, finished_at`

func scanJob(row pgx.Row) (*db.SyncJob, error) {
	var j db.SyncJob
	var id uuid.UUID
	var status string
	if err := row.Scan(&id, &j.SpreadsheetURL, &status, &j.Source, &j.Message,
		&j.Fetched, &j.Succeeded, &j.Failed, &j.CreatedAt, &j.StartedAt, &j.FinishedAt); err != nil {
		return nil, err
	}
	j.ID = id.String()
	j.Status = db.JobStatus(status)
	return &j, nil
}

// EnqueueJob inserts a queued sync job
func (d *DB) EnqueueJob(ctx context.Context, spreadsheetURL, source string) (*db.SyncJob, error) {
	job, err := scanJob(d.pool.QueryRow(ctx, `
		INSERT INTO sync_job (id, spreadsheet_url, status, source)
		VALUES ($1, $2, 'queued', $3)
		RETURNING `+jobColumns,
		uuid.New(), spreadsheetURL, source))
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue sync job: %w", err)
	}
	return job, nil
}

// ClaimNextJob marks the oldest queued job as running
// Concurrent workers skip rows another transaction has locked
func (d *DB) ClaimNextJob(ctx context.Context) (*db.SyncJob, error) {
	job, err := scanJob(d.pool.QueryRow(ctx, `
		UPDATE sync_job SET status = 'running', started_at = NOW()
		WHERE id = (
			SELECT id FROM sync_job
			WHERE status = 'queued'
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim sync job: %w", err)
	}
	return job, nil
}

// CompleteJob records a successful run
func (d *DB) CompleteJob(ctx context.Context, id string, summary db.JobSummary) error {
	return d.finishJob(ctx, id, db.JobSucceeded, summary)
}

// FailJob records a failed run
func (d *DB) FailJob(ctx context.Context, id string, summary db.JobSummary) error {
	return d.finishJob(ctx, id, db.JobFailed, summary)
}

func (d *DB) finishJob(ctx context.Context, id string, status db.JobStatus, summary db.JobSummary) error {
	jobID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %s", db.ErrJobNotFound, id)
	}

	tag, err := d.pool.Exec(ctx, `
		UPDATE sync_job
		SET status = $2, message = $3, fetched = $4, succeeded = $5, failed = $6, finished_at = NOW()
		WHERE id = $1
	`, jobID, string(status), summary.Message, summary.Fetched, summary.Succeeded, summary.Failed)
	if err != nil {
		return fmt.Errorf("failed to update sync job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", db.ErrJobNotFound, id)
	}
	return nil
}

// GetJob retrieves a sync job by id
func (d *DB) GetJob(ctx context.Context, id string) (*db.SyncJob, error) {
	jobID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", db.ErrJobNotFound, id)
	}

	job, err := scanJob(d.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM sync_job WHERE id = $1`, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", db.ErrJobNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync job: %w", err)
	}
	return job, nil
}

// ListJobs returns the most recent jobs first
func (d *DB) ListJobs(ctx context.Context, limit int) ([]db.SyncJob, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM sync_job
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync jobs: %w", err)
	}
	defer rows.Close()

	var jobs []db.SyncJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync job: %w", err)
		}
		jobs = append(jobs, *job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync jobs: %w", err)
	}

	return jobs, nil
}

// FailStaleJobs fails jobs left running by a worker that stopped before finishing them
func (d *DB) FailStaleJobs(ctx context.Context, olderThan time.Time) (int, error) {
	tag, err := d.pool.Exec(ctx, `
		UPDATE sync_job
		SET status = 'failed', message = 'worker stopped before the sync finished', finished_at = NOW()
		WHERE status = 'running' AND started_at < $1
	`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale sync jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
