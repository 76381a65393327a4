package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/youth-roster-sync/pkg/clients/mediaclient"
	"github.com/jakechorley/youth-roster-sync/pkg/clients/storageclient"
	"github.com/jakechorley/youth-roster-sync/pkg/core/model"
)

const noDataMessage = "No data found in spreadsheet"

// RosterSheet reads member rows from a spreadsheet
type RosterSheet interface {
	ValidateURL(ctx context.Context, url string) error
	FetchRows(ctx context.Context, url string, progress model.ProgressFunc) ([]model.SheetRow, error)
}

// MediaFetcher downloads member media
type MediaFetcher interface {
	IsFetchable(url string) bool
	Fetch(ctx context.Context, url string) (*model.MediaBlob, error)
}

// ObjectStore persists blobs and JSON documents
type ObjectStore interface {
	Init(ctx context.Context) error
	PutBytes(ctx context.Context, path string, data []byte, contentType string) error
	PutJSON(ctx context.Context, path string, v any) error
}

// SyncResult is the outcome of one sync run
type SyncResult struct {
	Success   bool
	Message   string
	Fetched   int
	Succeeded int
	Failed    int
}

// SyncOptions tunes row processing
type SyncOptions struct {
	// Concurrency above 1 processes rows in a bounded pool; progress order is then not guaranteed
	Concurrency int
	// RowTimeout bounds a single row's download and uploads, zero means no limit
	RowTimeout time.Duration
}

// SyncOrchestrator runs the roster sync pipeline
type SyncOrchestrator struct {
	sheet  RosterSheet
	media  MediaFetcher
	store  ObjectStore
	logger *zap.Logger
	opts   SyncOptions

	now func() time.Time
}

// NewSyncOrchestrator creates an orchestrator
func NewSyncOrchestrator(sheet RosterSheet, media MediaFetcher, store ObjectStore, logger *zap.Logger, opts SyncOptions) *SyncOrchestrator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &SyncOrchestrator{
		sheet:  sheet,
		media:  media,
		store:  store,
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

// Run syncs every member row of the spreadsheet at url into the object store
// Rows that fail are counted and logged; successful rows stay persisted either way.
func (o *SyncOrchestrator) Run(ctx context.Context, url string, progress model.ProgressFunc) SyncResult {
	o.logger.Info("Starting roster sync", zap.String("url", url))

	progress.Report(model.Progress{Stage: model.StageValidating, Message: "Connecting to storage"})
	if err := o.store.Init(ctx); err != nil {
		o.logger.Error("Storage unavailable", zap.Error(err))
		return o.fail(progress, fmt.Sprintf("Storage unavailable: %v", err))
	}

	progress.Report(model.Progress{Stage: model.StageValidating, Message: "Validating spreadsheet"})
	if err := o.sheet.ValidateURL(ctx, url); err != nil {
		o.logger.Error("Spreadsheet validation failed", zap.String("url", url), zap.Error(err))
		return o.fail(progress, fmt.Sprintf("Invalid spreadsheet URL: %v", err))
	}

	progress.Report(model.Progress{Stage: model.StageFetching, Message: "Fetching rows"})
	rows, err := o.sheet.FetchRows(ctx, url, progress)
	if err != nil {
		o.logger.Error("Failed to fetch rows", zap.Error(err))
		return o.fail(progress, fmt.Sprintf("Failed to fetch rows: %v", err))
	}

	if len(rows) == 0 {
		o.logger.Info("Spreadsheet has no data rows")
		result := SyncResult{Success: true, Message: noDataMessage}
		progress.Report(model.Progress{Stage: model.StageSucceeded, Message: result.Message})
		return result
	}

	o.logger.Info("Fetched rows", zap.Int("count", len(rows)))

	failed := o.processRows(ctx, rows, progress)

	progress.Report(model.Progress{Stage: model.StageSummarizing, Message: "Summarizing", Total: len(rows)})

	result := SyncResult{
		Fetched:   len(rows),
		Succeeded: len(rows) - failed,
		Failed:    failed,
	}
	result.Message = fmt.Sprintf("%d fetched, %d succeeded, %d failed", result.Fetched, result.Succeeded, result.Failed)
	result.Success = !(result.Failed > 0 && result.Fetched > 0)

	stage := model.StageSucceeded
	if !result.Success {
		stage = model.StageFailed
	}
	progress.Report(model.Progress{Stage: stage, Message: result.Message, Total: len(rows)})

	o.logger.Info("Roster sync finished",
		zap.Bool("success", result.Success),
		zap.Int("fetched", result.Fetched),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))

	return result
}

func (o *SyncOrchestrator) fail(progress model.ProgressFunc, message string) SyncResult {
	progress.Report(model.Progress{Stage: model.StageFailed, Message: message})
	return SyncResult{Success: false, Message: message}
}

// processRows runs every row and returns how many failed
func (o *SyncOrchestrator) processRows(ctx context.Context, rows []model.SheetRow, progress model.ProgressFunc) int {
	if o.opts.Concurrency == 1 {
		failed := 0
		for i, row := range rows {
			if err := o.syncRow(ctx, row, i+1, len(rows), progress); err != nil {
				failed++
			}
		}
		return failed
	}

	var (
		mu     sync.Mutex
		failed int
	)

	// Row errors are counted, never returned, so the group does not cancel siblings
	g := new(errgroup.Group)
	g.SetLimit(o.opts.Concurrency)
	for i, row := range rows {
		g.Go(func() error {
			if err := o.syncRow(ctx, row, i+1, len(rows), progress); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return failed
}

// syncRow converts a row, uploads its photo when it has one and always attempts the metadata upload
// The returned error joins every sub-step failure of the row
func (o *SyncOrchestrator) syncRow(ctx context.Context, row model.SheetRow, position, total int, progress model.ProgressFunc) error {
	if o.opts.RowTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.RowTimeout)
		defer cancel()
	}

	logger := o.logger.With(zap.Int("row", row.Index), zap.String("name", row.Name))

	record, err := ToMemberRecord(row, o.now())
	if err != nil {
		logger.Warn("Skipping row that could not be converted", zap.Error(err))
		return err
	}

	var rowErr error
	photoPath := ""

	if record.PhotoURL != "" {
		progress.Report(model.Progress{
			Stage:   model.StageDownloading,
			Message: fmt.Sprintf("Downloading photo for %s", record.Name),
			Row:     position,
			Total:   total,
		})

		path, err := o.uploadPhoto(ctx, record)
		if err != nil {
			logger.Warn("Photo upload failed", zap.String("photo_url", record.PhotoURL), zap.Error(err))
			rowErr = err
		} else {
			photoPath = path
		}
	}

	progress.Report(model.Progress{
		Stage:   model.StageUploading,
		Message: fmt.Sprintf("Uploading metadata for %s", record.Name),
		Row:     position,
		Total:   total,
	})

	metadata := model.MemberMetadata{
		MemberRecord: *record,
		PhotoPath:    photoPath,
		UploadedAt:   o.now().UTC().Format(time.RFC3339),
	}

	metadataPath := storageclient.StudentMetadataPath(record.Month, record.ID)
	if err := o.store.PutJSON(ctx, metadataPath, metadata); err != nil {
		logger.Warn("Metadata upload failed", zap.String("path", metadataPath), zap.Error(err))
		rowErr = errors.Join(rowErr, fmt.Errorf("%w: %w", ErrUpload, err))
	}

	if rowErr == nil {
		logger.Debug("Row synced", zap.String("id", record.ID), zap.String("month", record.Month))
	}

	return rowErr
}

// uploadPhoto downloads the record's photo and stores it, returning the object path
func (o *SyncOrchestrator) uploadPhoto(ctx context.Context, record *model.MemberRecord) (string, error) {
	if !o.media.IsFetchable(record.PhotoURL) {
		return "", fmt.Errorf("%w: unsupported photo url %q", ErrFetch, record.PhotoURL)
	}

	blob, err := o.media.Fetch(ctx, record.PhotoURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}

	path := storageclient.StudentPhotoPath(record.Month, record.ID)
	contentType := mediaclient.InferImageContentType(record.PhotoURL, blob.ContentType)
	if err := o.store.PutBytes(ctx, path, blob.Data, contentType); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpload, err)
	}

	return path, nil
}
