package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/youth-roster-sync/cmd/cli/commands"
	"github.com/jakechorley/youth-roster-sync/internal/config"
	"github.com/jakechorley/youth-roster-sync/pkg/clients/gmailclient"
	"github.com/jakechorley/youth-roster-sync/pkg/clients/mediaclient"
	"github.com/jakechorley/youth-roster-sync/pkg/clients/sheetsclient"
	"github.com/jakechorley/youth-roster-sync/pkg/clients/storageclient"
	"github.com/jakechorley/youth-roster-sync/pkg/core/services"
	"github.com/jakechorley/youth-roster-sync/pkg/postgres"
	"github.com/jakechorley/youth-roster-sync/pkg/utils"
	"github.com/jakechorley/youth-roster-sync/pkg/utils/logging"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{}

	database *postgres.DB
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "roster-sync",
		Short: "Youth roster sync - spreadsheet rows and member photos into cloud storage",
		Long:  `A CLI tool for syncing the youth group roster from Google Sheets into Google Cloud Storage, and for running the sync worker and HTTP API.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeApp()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.SyncCmd(app))
	rootCmd.AddCommand(commands.ValidateCmd(app))
	rootCmd.AddCommand(commands.EnqueueCmd(app))
	rootCmd.AddCommand(commands.JobsCmd(app))
	rootCmd.AddCommand(commands.WorkerCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.FamilyMembersCmd(app))
	rootCmd.AddCommand(commands.GalleryCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		closeApp()
		os.Exit(1)
	}
}

// initApp sets up logger, config, clients and the optional job database
func initApp() error {
	var err error
	app.Ctx = context.Background()

	app.Logger, err = logging.InitLogger(env, logging.Options{Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded", zap.String("bucket", app.Cfg.Bucket))

	// Credentials load lazily so a bad storage key only fails the commands that touch storage
	credentials := utils.NewFileCredentialProvider(app.Cfg.Credentials)

	app.SheetsClient = sheetsclient.NewClient(credentials, app.Cfg.Sync.SheetRange, app.Logger)
	app.Storage = storageclient.NewClient(credentials, app.Cfg.Bucket, app.Logger)

	media := mediaclient.NewClient(mediaclient.Config{
		ConnectTimeout: app.Cfg.Media.ConnectTimeout,
		ReadTimeout:    app.Cfg.Media.ReadTimeout,
		MaxBytes:       app.Cfg.Media.MaxBytes,
	}, app.Logger)

	app.Orchestrator = services.NewSyncOrchestrator(app.SheetsClient, media, app.Storage, app.Logger, services.SyncOptions{
		Concurrency: app.Cfg.Sync.Concurrency,
		RowTimeout:  app.Cfg.Sync.RowTimeout,
	})
	app.Documents = services.NewDocumentService(app.Storage, app.Logger)

	if len(app.Cfg.Notify.Recipients) > 0 {
		keyJSON, _, err := config.LoadServiceAccountKey(app.Cfg.Notify.KeyFile)
		if err != nil {
			return fmt.Errorf("failed to load notify key: %w", err)
		}
		app.GmailClient, err = gmailclient.NewClient(app.Ctx, keyJSON, app.Cfg.Notify.Sender, app.Cfg.Notify.Recipients, app.Logger)
		if err != nil {
			return fmt.Errorf("failed to create gmail client: %w", err)
		}
		app.Logger.Debug("Gmail client initialized", zap.Int("recipients", len(app.Cfg.Notify.Recipients)))
	}

	if app.Cfg.Database.URL != "" {
		app.Logger.Info("Connecting to database")
		database, err = postgres.NewDB(app.Ctx, app.Cfg.Database.URL, app.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.RunMigrations(app.Ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		app.Jobs = database
		app.Logger.Debug("Database initialized")
	}

	return nil
}

func closeApp() {
	if database != nil {
		database.Close()
		database = nil
	}
	if app.Storage != nil {
		if err := app.Storage.Close(); err != nil && app.Logger != nil {
			app.Logger.Warn("Failed to close storage client", zap.Error(err))
		}
	}
	if app.Logger != nil {
		_ = app.Logger.Sync()
	}
}
