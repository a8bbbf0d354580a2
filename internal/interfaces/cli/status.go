package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/infrastructure/tracking"
)

func newStatusCommand(ctx *Context) *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show tracked domains by state",
		Long:  "Show the tracking store as last committed. Does not take the run lock.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(ctx, state, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "Only list names in this state (active, inactive, orphan)")
	return cmd
}

func runStatus(c *Context, state string, out io.Writer) error {
	ctx := context.Background()
	cfg, err := loadConfig(ctx, c)
	if err != nil {
		return err
	}
	store, err := tracking.OpenReadOnly(ctx, cfg.Tracking.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	if state != "" {
		s, err := entity.ParseState(state)
		if err != nil {
			return err
		}
		names, err := store.ByState(ctx, s)
		if err != nil {
			return err
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintln(out, n)
		}
		return nil
	}

	domains, err := store.Load(ctx)
	if err != nil {
		return err
	}
	printStatus(out, domains, cfg.Sync.GracePeriod.Std())
	return nil
}
