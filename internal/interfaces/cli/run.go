package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Reconcile a batch of tracked domains",
		Long: "Fold the cPanel domain list into the tracking store, reconcile the next\n" +
			"fair batch of domains, and clean up domains inactive past the grace period.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(ctx, "run", func(c context.Context, app *App, out io.Writer) error {
				report, err := app.orch.Sync(c, ctx.IsDryRun())
				if report != nil {
					printTransitions(out, &report.Transitions)
					if report.Summary != nil {
						printSummary(out, report.Summary)
					}
					printCleanup(out, &report.Cleanup)
				}
				return err
			})
		},
	}
}
