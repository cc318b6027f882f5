package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rewired-gh/dltcheck/internal/ledger"
	"github.com/rewired-gh/dltcheck/internal/storage"
)

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var (
		limit      int
		showErrors bool
		period     string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored evaluations",
		Long: `List evaluations kept in the SQLite history, newest first.

Use --errors to list recorded run failures instead, or --period to print the
full entry of the newest evaluation of one draw period.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New("history is disabled (history.enabled = false)")
			}

			store, err := storage.New(cfg.History.MaxRecords, cfg.History.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open history: %w", err)
			}
			defer store.Close()

			if period != "" {
				return printPeriod(store, period, cmd.OutOrStdout())
			}
			if showErrors {
				return printRunErrors(store, limit, cmd.OutOrStdout())
			}
			return printEvaluations(store, limit, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of records to show")
	cmd.Flags().BoolVar(&showErrors, "errors", false, "Show run errors instead of evaluations")
	cmd.Flags().StringVar(&period, "period", "", "Show the newest evaluation of this period in full")

	return cmd
}

func printEvaluations(store *storage.Storage, limit int, out io.Writer) error {
	evaluations, err := store.ListEvaluations(limit)
	if err != nil {
		return fmt.Errorf("failed to list evaluations: %w", err)
	}
	if len(evaluations) == 0 {
		fmt.Fprintln(out, "No evaluations recorded yet.")
		return nil
	}

	for _, e := range evaluations {
		fmt.Fprintf(out, "%s  期号 %s (截止 %s)  开奖 %s + %s  单式 %s / 复式 %s / 合计 %s 元  %s\n",
			e.CreatedAt.Format("2006-01-02 15:04"),
			e.EvalPeriod,
			e.CutoffPeriod,
			ledger.FormatNumbers(e.Winning.Front),
			ledger.FormatNumbers(e.Winning.Back),
			humanize.Comma(e.Discrete.Prize),
			humanize.Comma(e.Complex.Prize),
			humanize.Comma(e.TotalPrize),
			filepath.Base(e.ReportPath),
		)
	}
	return nil
}

func printRunErrors(store *storage.Storage, limit int, out io.Writer) error {
	runErrors, err := store.ListRunErrors(limit)
	if err != nil {
		return fmt.Errorf("failed to list run errors: %w", err)
	}
	if len(runErrors) == 0 {
		fmt.Fprintln(out, "No run errors recorded.")
		return nil
	}

	for _, re := range runErrors {
		fmt.Fprintf(out, "%s  %-28s  %s\n", re.CreatedAt.Format("2006-01-02 15:04"), re.Kind, re.Message)
	}
	return nil
}

func printPeriod(store *storage.Storage, period string, out io.Writer) error {
	e, err := store.LatestForPeriod(period)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no evaluation recorded for period %s", period)
	}
	if err != nil {
		return fmt.Errorf("failed to load evaluation: %w", err)
	}
	fmt.Fprintln(out, ledger.FormatEvaluation(e))
	return nil
}
