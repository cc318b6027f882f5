package main

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "dltcheck",
		Short: "dltcheck - score DLT lottery recommendations against the latest draw",
		Long: `dltcheck evaluates the recommendations of an analysis report against the
draw that followed it.

The newest period in the draw CSV is scored; the report whose data cutoff is
the period before it supplies the discrete tickets and the complex pool.
Results are prepended to a rolling text report and optionally kept in SQLite
and announced on Telegram.

Running dltcheck without a subcommand is the same as "dltcheck run".`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, &opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (defaults and DLTCHECK_* environment when empty)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")

	cmd.AddCommand(newRunCommand(&opts))
	cmd.AddCommand(newWatchCommand(&opts))
	cmd.AddCommand(newCheckCommand(&opts))
	cmd.AddCommand(newHistoryCommand(&opts))

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
