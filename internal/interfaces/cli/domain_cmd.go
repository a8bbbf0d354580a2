package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

func newDomainCommand(ctx *Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domain <name>",
		Short: "Reconcile a single domain",
		Long: "Verify delegation, create the remote zone when missing, check serial drift\n" +
			"and correct it. With --step every check and correction asks first.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(ctx, "domain", func(c context.Context, app *App, out io.Writer) error {
				return runDomain(c, app, out, args[0], ctx.IsDryRun())
			})
		},
	}
	cmd.Flags().BoolVar(&ctx.Step, "step", false, "Confirm each step interactively")
	return cmd
}

func runDomain(ctx context.Context, app *App, out io.Writer, name string, dryRun bool) error {
	res, err := app.orch.ProcessDomain(ctx, name, dryRun)
	switch {
	case errors.Is(err, domain.ErrExcludedDomain):
		logger.FromContext(ctx).Info("domain is excluded, nothing to do", "domain", name)
		fmt.Fprintf(out, "%s is excluded from sync.\n", name)
		return nil
	case errors.Is(err, domain.ErrDeclined):
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}
	if res != nil {
		printResult(out, res)
	}
	return err
}
