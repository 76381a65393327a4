package commands

import (
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/youth-roster-sync/pkg/api"
)

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API for sync triggers and app documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := app.jobStore()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(app.Ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			e := api.NewServer(app.Logger)
			api.RegisterRoutes(e,
				api.NewSyncHandler(jobs, app.Logger),
				api.NewDocumentHandler(app.Documents, app.Cfg.Media.MaxBytes, app.Logger))

			g, ctx := errgroup.WithContext(ctx)

			if withWorker, _ := cmd.Flags().GetBool("with-worker"); withWorker {
				scheduler, err := newScheduler(app, jobs)
				if err != nil {
					return err
				}
				newWorker(app).Start(ctx)
				if scheduler != nil {
					g.Go(func() error { return scheduler.Run(ctx) })
				}
			}

			g.Go(func() error {
				app.Logger.Info("HTTP API listening", zap.String("addr", app.Cfg.Server.Addr))
				if err := e.Start(app.Cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				return waitForShutdown(ctx, app.Logger, e.Shutdown)
			})

			return g.Wait()
		},
	}

	cmd.Flags().Bool("with-worker", false, "Also run the job worker, and the sync.schedule scheduler when set, in this process")
	return cmd
}
