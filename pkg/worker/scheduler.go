package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/youth-roster-sync/pkg/db"
)

const scheduleSource = "schedule"

// Enqueuer queues sync jobs
type Enqueuer interface {
	EnqueueJob(ctx context.Context, spreadsheetURL, source string) (*db.SyncJob, error)
}

// Scheduler enqueues a sync of one spreadsheet at every occurrence of a recurrence rule
type Scheduler struct {
	rule   *rrule.RRule
	url    string
	jobs   Enqueuer
	logger *zap.Logger

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) bool
}

// NewScheduler parses schedule as an RFC 5545 RRULE
func NewScheduler(schedule, url string, jobs Enqueuer, logger *zap.Logger) (*Scheduler, error) {
	rule, err := rrule.StrToRRule(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid rrule %q: %w", schedule, err)
	}

	return &Scheduler{
		rule:   rule,
		url:    url,
		jobs:   jobs,
		logger: logger,
		now:    time.Now,
		wait:   sleepWithContext,
	}, nil
}

// Next returns the first occurrence strictly after t, zero when the rule is exhausted
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.rule.After(t, false)
}

// Run enqueues jobs until ctx is cancelled or the rule has no further occurrences
func (s *Scheduler) Run(ctx context.Context) error {
	last := s.now()
	for {
		next := s.Next(last)
		if next.IsZero() {
			s.logger.Info("Schedule has no further occurrences")
			return nil
		}

		s.logger.Info("Next scheduled sync", zap.Time("at", next))
		if !s.wait(ctx, next.Sub(s.now())) {
			return nil
		}

		job, err := s.jobs.EnqueueJob(ctx, s.url, scheduleSource)
		if err != nil {
			s.logger.Error("Failed to enqueue scheduled sync", zap.Error(err))
		} else {
			s.logger.Info("Enqueued scheduled sync", zap.String("job_id", job.ID))
		}

		last = next
	}
}
