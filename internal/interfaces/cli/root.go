package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lite-lake/dnssync/internal/constants"
)

var Version = "dev"

var showVersion bool

func newRootCommand(ctx *Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dnssync",
		Short: "Keep cPanel BIND zones and the remote DNS authority in sync",
		Long: "Dnssync compares SOA serials between the local cPanel/BIND server and a remote\n" +
			"DNS authority, corrects critical drift, and retires domains that left the server.\n" +
			"Every command runs in dry-run mode unless --write is given.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if showVersion {
				fmt.Println(Version)
				os.Exit(0)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.ConfigPath, "config", "c", constants.DefaultConfigPath, "Configuration file")
	flags.BoolVar(&ctx.DryRun, "dry-run", true, "Report what would change without writing (default)")
	flags.BoolVar(&ctx.Write, "write", false, "Apply changes")
	flags.BoolVarP(&ctx.Verbose, "verbose", "v", false, "Debug logging")
	flags.BoolVarP(&ctx.Silent, "silent", "s", false, "Only log warnings and errors")
	flags.BoolVar(&showVersion, "version", false, "Show version information")
	rootCmd.MarkFlagsMutuallyExclusive("dry-run", "write")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "silent")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newDomainCommand(ctx))
	rootCmd.AddCommand(newCleanupCommand(ctx))
	rootCmd.AddCommand(newOrphansCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))

	return rootCmd
}

func Execute() {
	if err := newRootCommand(NewContext()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
