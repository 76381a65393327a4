package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jakechorley/youth-roster-sync/pkg/clients/sheetsclient"
	"github.com/jakechorley/youth-roster-sync/pkg/db"
)

const (
	apiSource       = "api"
	defaultJobLimit = 20
	maxJobLimit     = 200
)

// JobQueue queues sync jobs and reads their status
type JobQueue interface {
	EnqueueJob(ctx context.Context, spreadsheetURL, source string) (*db.SyncJob, error)
	GetJob(ctx context.Context, id string) (*db.SyncJob, error)
	ListJobs(ctx context.Context, limit int) ([]db.SyncJob, error)
}

type createSyncRequest struct {
	SpreadsheetURL string `json:"spreadsheet_url" validate:"required,url"`
}

// SyncHandler triggers syncs by queueing jobs for the worker
type SyncHandler struct {
	jobs     JobQueue
	validate *validator.Validate
	logger   *zap.Logger
}

func NewSyncHandler(jobs JobQueue, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{jobs: jobs, validate: validator.New(), logger: logger}
}

func (h *SyncHandler) CreateSync(c echo.Context) error {
	var req createSyncRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid_url", "spreadsheet_url must be a valid URL")
	}
	if _, ok := sheetsclient.ExtractSpreadsheetID(req.SpreadsheetURL); !ok {
		return respondError(c, http.StatusBadRequest, "invalid_url", "spreadsheet_url is not a Google Sheets URL")
	}

	job, err := h.jobs.EnqueueJob(c.Request().Context(), req.SpreadsheetURL, apiSource)
	if err != nil {
		h.logger.Error("Failed to enqueue sync job", zap.Error(err))
		return internalError(c, "failed to enqueue sync job")
	}

	return respond(c, http.StatusAccepted, job)
}

func (h *SyncHandler) GetSync(c echo.Context) error {
	job, err := h.jobs.GetJob(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrJobNotFound) {
			return respondError(c, http.StatusNotFound, "not_found", "sync job not found")
		}
		h.logger.Error("Failed to get sync job", zap.Error(err))
		return internalError(c, "failed to get sync job")
	}

	return respond(c, http.StatusOK, job)
}

func (h *SyncHandler) ListSyncs(c echo.Context) error {
	limit := defaultJobLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxJobLimit {
			return badRequest(c, "limit must be between 1 and 200")
		}
		limit = n
	}

	jobs, err := h.jobs.ListJobs(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list sync jobs", zap.Error(err))
		return internalError(c, "failed to list sync jobs")
	}
	if jobs == nil {
		jobs = []db.SyncJob{}
	}

	return respond(c, http.StatusOK, jobs)
}
