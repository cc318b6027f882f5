package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/dltcheck/internal/evaluator"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Evaluate the latest draw once",
		Long: `Evaluate the newest draw against the report written before it.

Recognised data problems (missing files, too few draws, no matching report) are
recorded in the rolling report and exit with status 0. Only unexpected failures
exit non-zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, opts)
		},
	}
}

func runOnce(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	_, err = a.evaluator.Run(cmd.Context())
	return exitError(err)
}

// exitError drops run errors that were expected and already recorded.
func exitError(err error) error {
	var runErr *evaluator.RunError
	if errors.As(err, &runErr) && runErr.Expected() {
		return nil
	}
	return err
}
