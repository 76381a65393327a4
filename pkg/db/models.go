package db

import "time"

// JobStatus is the lifecycle state of a sync job
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// SyncJob is a queued or finished roster sync
type SyncJob struct {
	ID             string     `json:"id"`
	SpreadsheetURL string     `json:"spreadsheet_url"`
	Status         JobStatus  `json:"status"`
	Source         string     `json:"source"` // cli, api or schedule
	Message        string     `json:"message,omitempty"`
	Fetched        int        `json:"fetched"`
	Succeeded      int        `json:"succeeded"`
	Failed         int        `json:"failed"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// Done reports whether the job has finished
func (j SyncJob) Done() bool {
	return j.Status == JobSucceeded || j.Status == JobFailed
}

// JobSummary is the outcome recorded for a finished job
type JobSummary struct {
	Message   string
	Fetched   int
	Succeeded int
	Failed    int
}
