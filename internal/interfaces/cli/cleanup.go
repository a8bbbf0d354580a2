package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

func newCleanupCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Retire domains inactive past the grace period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(ctx, "cleanup", func(c context.Context, app *App, out io.Writer) error {
				report, err := app.orch.Cleanup(c, ctx.IsDryRun())
				if report != nil {
					printCleanup(out, report)
				}
				return err
			})
		},
	}
}

func newOrphansCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "orphans",
		Short: "Re-verify delegation of orphaned domains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(ctx, "orphans", func(c context.Context, app *App, out io.Writer) error {
				report, err := app.orch.SweepOrphans(c)
				if report != nil {
					printSweep(out, report)
				}
				return err
			})
		},
	}
}
