package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jakechorley/youth-roster-sync/pkg/core/model"
)

// SyncCmd creates the sync command
func SyncCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <spreadsheet_url>",
		Short: "Sync roster rows and member photos from a spreadsheet into storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			result := app.Orchestrator.Run(app.Ctx, args[0], progressPrinter(out))

			if !result.Success {
				fmt.Fprintf(out, "\n✗ Sync failed: %s\n\n", result.Message)
				return fmt.Errorf("sync failed: %s", result.Message)
			}

			fmt.Fprintf(out, "\n✓ Sync complete: %s\n\n", result.Message)
			return nil
		},
	}
}

// progressPrinter prints row-level progress lines
func progressPrinter(out io.Writer) model.ProgressFunc {
	return func(p model.Progress) {
		switch p.Stage {
		case model.StageDownloading, model.StageUploading:
			fmt.Fprintf(out, "  [%d/%d] %s\n", p.Row, p.Total, p.Message)
		case model.StageSucceeded, model.StageFailed:
			// Summarized by the caller
		default:
			fmt.Fprintf(out, "%s...\n", p.Message)
		}
	}
}

// ValidateCmd creates the validate command
func ValidateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <spreadsheet_url>",
		Short: "Check that a spreadsheet URL is readable by the sheets service account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.SheetsClient.ValidateURL(app.Ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Spreadsheet is reachable\n")
			return nil
		},
	}
}
