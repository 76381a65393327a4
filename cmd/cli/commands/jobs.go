package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/youth-roster-sync/pkg/clients/sheetsclient"
	"github.com/jakechorley/youth-roster-sync/pkg/worker"
)

const cliSource = "cli"

// EnqueueCmd creates the enqueue command
func EnqueueCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <spreadsheet_url>",
		Short: "Queue a sync for the background worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := sheetsclient.ExtractSpreadsheetID(args[0]); !ok {
				return fmt.Errorf("not a Google Sheets URL: %q", args[0])
			}

			jobs, err := app.jobStore()
			if err != nil {
				return err
			}

			job, err := jobs.EnqueueJob(app.Ctx, args[0], cliSource)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Queued sync job %s\n", job.ID)
			return nil
		},
	}
}

// JobsCmd creates the jobs command
func JobsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent sync jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := app.jobStore()
			if err != nil {
				return err
			}

			limit, _ := cmd.Flags().GetInt("limit")
			list, err := jobs.ListJobs(app.Ctx, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%d sync jobs:\n\n", len(list))
			for _, j := range list {
				fmt.Fprintf(out, "- %s  %-9s  %-8s  %s  %s\n",
					j.ID, j.Status, j.Source, j.CreatedAt.Local().Format(time.DateTime), j.Message)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Number of jobs to show")
	return cmd
}

// WorkerCmd creates the worker command
func WorkerCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run queued syncs, and scheduled syncs when sync.schedule is set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := app.jobStore()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(app.Ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)

			w := newWorker(app)
			g.Go(func() error { return w.Run(ctx) })

			scheduler, err := newScheduler(app, jobs)
			if err != nil {
				return err
			}
			if scheduler != nil {
				g.Go(func() error { return scheduler.Run(ctx) })
			}

			app.Logger.Info("Worker running, press Ctrl+C to stop")
			return g.Wait()
		},
	}
}

func newWorker(app *AppContext) *worker.Worker {
	var notifier worker.Notifier
	if app.GmailClient != nil {
		notifier = app.GmailClient
	}

	return worker.NewWorker(app.Jobs, worker.NewRunner(app.Orchestrator, app.Logger), notifier, worker.Config{
		PollInterval:    app.Cfg.Worker.PollInterval,
		StaleJobTimeout: app.Cfg.Worker.StaleJobTimeout,
	}, app.Logger)
}

// newScheduler returns nil when sync.schedule is unset
func newScheduler(app *AppContext, jobs worker.Enqueuer) (*worker.Scheduler, error) {
	if app.Cfg.Sync.Schedule == "" {
		return nil, nil
	}
	return worker.NewScheduler(app.Cfg.Sync.Schedule, app.Cfg.Sync.SpreadsheetURL, jobs, app.Logger)
}

// waitForShutdown blocks until ctx is done, then runs shutdown with a bounded context
func waitForShutdown(ctx context.Context, logger *zap.Logger, shutdown func(context.Context) error) error {
	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return shutdown(shutdownCtx)
}
