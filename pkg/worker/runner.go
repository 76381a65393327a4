package worker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/youth-roster-sync/pkg/core/model"
	"github.com/jakechorley/youth-roster-sync/pkg/core/services"
)

// ErrSyncFailed is returned by Runner.Run when the sync reports failure
var ErrSyncFailed = errors.New("sync failed")

// Syncer runs one roster sync
type Syncer interface {
	Run(ctx context.Context, url string, progress model.ProgressFunc) services.SyncResult
}

// Runner runs syncs on behalf of non-interactive callers
// Per-row progress goes to the debug log only
type Runner struct {
	syncer Syncer
	logger *zap.Logger
}

// NewRunner creates a runner
func NewRunner(syncer Syncer, logger *zap.Logger) *Runner {
	return &Runner{syncer: syncer, logger: logger}
}

// Run syncs url and returns nil on success or an error carrying the summary
func (r *Runner) Run(ctx context.Context, url string) error {
	result := r.sync(ctx, url)
	if !result.Success {
		return fmt.Errorf("%w: %s", ErrSyncFailed, result.Message)
	}
	return nil
}

func (r *Runner) sync(ctx context.Context, url string) services.SyncResult {
	return r.syncer.Run(ctx, url, func(p model.Progress) {
		r.logger.Debug("Sync progress",
			zap.String("stage", string(p.Stage)),
			zap.String("message", p.Message),
			zap.Int("row", p.Row),
			zap.Int("total", p.Total))
	})
}
