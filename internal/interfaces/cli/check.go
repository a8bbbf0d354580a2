package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lite-lake/dnssync/internal/infrastructure/environment"
)

func newCheckCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "check [domain]",
		Short: "Run preflight checks",
		Long: "Check the cPanel tooling, zone directories, local nameserver and remote\n" +
			"authority. A hosted domain, when given, is used for the serial checks.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sample := ""
			if len(args) > 0 {
				sample = args[0]
			}
			return runCheck(ctx, sample)
		},
	}
}

func runCheck(c *Context, sample string) error {
	ctx := context.Background()
	cfg, err := loadConfig(ctx, c)
	if err != nil {
		return err
	}
	app, err := NewApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	host := "localhost"
	if cfg.Local.SSH != nil {
		host = cfg.Local.SSH.Host
	}
	results := app.checker.CheckAll(ctx, sample)
	fmt.Fprint(os.Stdout, environment.FormatResults(host, results))
	if environment.Failed(results) {
		return errors.New("preflight checks failed")
	}
	return nil
}
