package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jakechorley/youth-roster-sync/internal/config"
	"github.com/jakechorley/youth-roster-sync/pkg/clients/gmailclient"
	"github.com/jakechorley/youth-roster-sync/pkg/clients/sheetsclient"
	"github.com/jakechorley/youth-roster-sync/pkg/clients/storageclient"
	"github.com/jakechorley/youth-roster-sync/pkg/core/services"
	"github.com/jakechorley/youth-roster-sync/pkg/db"
)

// errNoDatabase is returned by commands that need the job queue when database.url is unset
var errNoDatabase = errors.New("database.url is not configured")

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg          *config.Config
	SheetsClient *sheetsclient.Client
	Storage      *storageclient.Client
	Orchestrator *services.SyncOrchestrator
	Documents    *services.DocumentService
	GmailClient  *gmailclient.Client // nil unless notify is configured
	Jobs         db.JobStore         // nil unless database.url is set
	Logger       *zap.Logger
	Ctx          context.Context
}

func (app *AppContext) jobStore() (db.JobStore, error) {
	if app.Jobs == nil {
		return nil, errNoDatabase
	}
	return app.Jobs, nil
}
