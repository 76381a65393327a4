package gmailclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/youth-roster-sync/pkg/db"
)

// SendSyncSummary emails the outcome of a finished sync job to the configured recipients
func (c *Client) SendSyncSummary(ctx context.Context, job db.SyncJob) error {
	if len(c.recipients) == 0 {
		return nil
	}

	subject, body := formatSyncSummary(job)
	if err := c.SendEmail(ctx, c.recipients, subject, body); err != nil {
		return err
	}

	c.logger.Info("Sent sync summary", zap.String("job_id", job.ID), zap.Int("recipients", len(c.recipients)))
	return nil
}

func formatSyncSummary(job db.SyncJob) (string, string) {
	outcome := "succeeded"
	if job.Status == db.JobFailed {
		outcome = "failed"
	}
	subject := fmt.Sprintf("Roster sync %s: %s", outcome, job.Message)

	var b strings.Builder
	fmt.Fprintf(&b, "Spreadsheet: %s\n", job.SpreadsheetURL)
	fmt.Fprintf(&b, "Triggered by: %s\n", job.Source)
	fmt.Fprintf(&b, "Result: %s\n", job.Message)
	fmt.Fprintf(&b, "Rows: %d fetched, %d succeeded, %d failed\n", job.Fetched, job.Succeeded, job.Failed)
	if job.StartedAt != nil {
		fmt.Fprintf(&b, "Started: %s\n", job.StartedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "Job: %s\n", job.ID)
	if job.Failed > 0 {
		b.WriteString("\nFailed rows are listed in the sync logs.\n")
	}

	return subject, b.String()
}
