package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/youth-roster-sync/pkg/core/model"
	"github.com/jakechorley/youth-roster-sync/pkg/core/services"
	"github.com/jakechorley/youth-roster-sync/pkg/db"
)

// mockJobStore is an in-memory db.JobStore
type mockJobStore struct {
	mu          sync.Mutex
	jobs        []*db.SyncJob
	summaries   map[string]db.JobSummary
	claimErr    error
	staleCalls  int
	staleCutoff time.Time
}

func newMockJobStore() *mockJobStore {
	return &mockJobStore{summaries: make(map[string]db.JobSummary)}
}

func (m *mockJobStore) EnqueueJob(ctx context.Context, spreadsheetURL, source string) (*db.SyncJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &db.SyncJob{
		ID:             uuid.New().String(),
		SpreadsheetURL: spreadsheetURL,
		Source:         source,
		Status:         db.JobQueued,
		CreatedAt:      time.Now(),
	}
	m.jobs = append(m.jobs, job)
	copied := *job
	return &copied, nil
}

func (m *mockJobStore) ClaimNextJob(ctx context.Context) (*db.SyncJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.claimErr != nil {
		return nil, m.claimErr
	}
	for _, job := range m.jobs {
		if job.Status == db.JobQueued {
			job.Status = db.JobRunning
			copied := *job
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockJobStore) finish(id string, status db.JobStatus, summary db.JobSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, job := range m.jobs {
		if job.ID == id {
			job.Status = status
			job.Message = summary.Message
			m.summaries[id] = summary
			return nil
		}
	}
	return db.ErrJobNotFound
}

func (m *mockJobStore) CompleteJob(ctx context.Context, id string, summary db.JobSummary) error {
	return m.finish(id, db.JobSucceeded, summary)
}

func (m *mockJobStore) FailJob(ctx context.Context, id string, summary db.JobSummary) error {
	return m.finish(id, db.JobFailed, summary)
}

func (m *mockJobStore) GetJob(ctx context.Context, id string) (*db.SyncJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, job := range m.jobs {
		if job.ID == id {
			copied := *job
			return &copied, nil
		}
	}
	return nil, db.ErrJobNotFound
}

func (m *mockJobStore) ListJobs(ctx context.Context, limit int) ([]db.SyncJob, error) {
	return nil, nil
}

func (m *mockJobStore) FailStaleJobs(ctx context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.staleCalls++
	m.staleCutoff = olderThan
	return 0, nil
}

func (m *mockJobStore) status(id string) db.JobStatus {
	job, _ := m.GetJob(context.Background(), id)
	if job == nil {
		return ""
	}
	return job.Status
}

// mockSyncer returns a fixed result per url
type mockSyncer struct {
	mu      sync.Mutex
	results map[string]services.SyncResult
	calls   []string
}

func (m *mockSyncer) Run(ctx context.Context, url string, progress model.ProgressFunc) services.SyncResult {
	m.mu.Lock()
	m.calls = append(m.calls, url)
	m.mu.Unlock()

	progress.Report(model.Progress{Stage: model.StageFetching, Message: "Fetching rows"})
	if r, ok := m.results[url]; ok {
		return r
	}
	return services.SyncResult{Success: true, Message: "No data found in spreadsheet"}
}

type mockNotifier struct {
	mu   sync.Mutex
	jobs []db.SyncJob
	err  error
}

func (m *mockNotifier) SendSyncSummary(ctx context.Context, job db.SyncJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobs = append(m.jobs, job)
	return m.err
}

const (
	goodSheet = "https://docs.google.com/spreadsheets/d/good/edit"
	badSheet  = "https://docs.google.com/spreadsheets/d/bad/edit"
)

func newMockSyncer() *mockSyncer {
	return &mockSyncer{results: map[string]services.SyncResult{
		goodSheet: {Success: true, Message: "2 fetched, 2 succeeded, 0 failed", Fetched: 2, Succeeded: 2},
		badSheet:  {Success: false, Message: "2 fetched, 1 succeeded, 1 failed", Fetched: 2, Succeeded: 1, Failed: 1},
	}}
}

func TestRunner_Run(t *testing.T) {
	runner := NewRunner(newMockSyncer(), zap.NewNop())

	assert.NoError(t, runner.Run(context.Background(), goodSheet))

	err := runner.Run(context.Background(), badSheet)
	assert.ErrorIs(t, err, ErrSyncFailed)
	assert.Contains(t, err.Error(), "1 failed")
}

func TestProcessNext_EmptyQueue(t *testing.T) {
	w := NewWorker(newMockJobStore(), NewRunner(newMockSyncer(), zap.NewNop()), nil, Config{}, zap.NewNop())

	processed, err := w.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestProcessNext_RecordsOutcome(t *testing.T) {
	store := newMockJobStore()
	notifier := &mockNotifier{}
	w := NewWorker(store, NewRunner(newMockSyncer(), zap.NewNop()), notifier, Config{}, zap.NewNop())
	ctx := context.Background()

	good, err := store.EnqueueJob(ctx, goodSheet, "api")
	require.NoError(t, err)
	bad, err := store.EnqueueJob(ctx, badSheet, "cli")
	require.NoError(t, err)

	processed, err := w.ProcessNext(ctx)
	require.NoError(t, err)
	assert.True(t, processed)

	processed, err = w.ProcessNext(ctx)
	require.NoError(t, err)
	assert.True(t, processed)

	assert.Equal(t, db.JobSucceeded, store.status(good.ID))
	assert.Equal(t, db.JobFailed, store.status(bad.ID))
	assert.Equal(t, 1, store.summaries[bad.ID].Failed)

	require.Len(t, notifier.jobs, 2)
	assert.Equal(t, db.JobSucceeded, notifier.jobs[0].Status)
	assert.Equal(t, "2 fetched, 1 succeeded, 1 failed", notifier.jobs[1].Message)
}

func TestProcessNext_NotifierFailureIgnored(t *testing.T) {
	store := newMockJobStore()
	notifier := &mockNotifier{err: errors.New("smtp down")}
	w := NewWorker(store, NewRunner(newMockSyncer(), zap.NewNop()), notifier, Config{}, zap.NewNop())

	job, err := store.EnqueueJob(context.Background(), goodSheet, "api")
	require.NoError(t, err)

	processed, err := w.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, db.JobSucceeded, store.status(job.ID))
}

func TestProcessNext_ClaimError(t *testing.T) {
	store := newMockJobStore()
	store.claimErr = errors.New("connection refused")
	w := NewWorker(store, NewRunner(newMockSyncer(), zap.NewNop()), nil, Config{}, zap.NewNop())

	processed, err := w.ProcessNext(context.Background())
	assert.Error(t, err)
	assert.False(t, processed)
}

func TestRun_FailsStaleJobsAndDrainsQueue(t *testing.T) {
	store := newMockJobStore()
	syncer := newMockSyncer()
	w := NewWorker(store, NewRunner(syncer, zap.NewNop()), nil, Config{
		PollInterval:    5 * time.Millisecond,
		StaleJobTimeout: time.Hour,
	}, zap.NewNop())
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, _ := store.EnqueueJob(ctx, goodSheet, "api")
	second, _ := store.EnqueueJob(ctx, badSheet, "api")

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return store.status(first.ID) == db.JobSucceeded && store.status(second.ID) == db.JobFailed
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation")
	}

	assert.Equal(t, 1, store.staleCalls)
	assert.Equal(t, fixed.Add(-time.Hour), store.staleCutoff)
}

func TestStart_OnlyOnce(t *testing.T) {
	store := newMockJobStore()
	w := NewWorker(store, NewRunner(newMockSyncer(), zap.NewNop()), nil, Config{PollInterval: 5 * time.Millisecond}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w.Start(ctx)
	w.Start(ctx)

	job, _ := store.EnqueueJob(ctx, goodSheet, "api")
	assert.Eventually(t, func() bool {
		return store.status(job.ID) == db.JobSucceeded
	}, time.Second, 5*time.Millisecond)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.staleCalls)
}
