package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rewired-gh/dltcheck/internal/draws"
	"github.com/rewired-gh/dltcheck/internal/ledger"
	"github.com/rewired-gh/dltcheck/internal/models"
)

type checkOptions struct {
	period string
	front  string
	back   string
}

func newCheckCommand(opts *rootOptions) *cobra.Command {
	var co checkOptions

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Score one ticket against a draw",
		Long: `Score a single ticket against a draw from the configured draw CSV.

Numbers may be separated by commas or spaces. The newest period is used when
--period is not given.`,
		Example: `  dltcheck check --front 1,5,12,30,35 --back 3,12
  dltcheck check --period 24001 --front "01 02 03 04 05" --back "06 07"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkE(cmd.Context(), opts, co, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&co.period, "period", "", "Draw period to score against (default: newest)")
	cmd.Flags().StringVar(&co.front, "front", "", "Five front-zone numbers (1-35)")
	cmd.Flags().StringVar(&co.back, "back", "", "Two back-zone numbers (1-12)")
	_ = cmd.MarkFlagRequired("front")
	_ = cmd.MarkFlagRequired("back")

	return cmd
}

func checkE(ctx context.Context, opts *rootOptions, co checkOptions, out io.Writer) error {
	ticket, err := parseTicket(co.front, co.back)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	content, err := newDrawClient(cfg).Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to load draws: %w", err)
	}
	store, err := draws.Parse(content)
	if err != nil {
		return fmt.Errorf("failed to parse draws: %w", err)
	}

	draw := store.Latest()
	if co.period != "" {
		var ok bool
		if draw, ok = store.Get(co.period); !ok {
			return fmt.Errorf("period %s not found in draw data", co.period)
		}
	}

	fmt.Fprintf(out, "期号 %s 开奖号码: 前区 %s 后区 %s\n", draw.Period, ledger.FormatNumbers(draw.Front), ledger.FormatNumbers(draw.Back))

	scored, won := engine.ScoreTicket(ticket, draw)
	if !won {
		fmt.Fprintf(out, "投注: 前区 %s 后区 %s\n结果: 未中奖\n", ledger.FormatNumbers(ticket.Front), ledger.FormatNumbers(ticket.Back))
		return nil
	}
	fmt.Fprintln(out, ledger.FormatWinner(scored))
	fmt.Fprintf(out, "结果: %s %s 元\n", scored.Tier.Label(), humanize.Comma(engine.Amount(scored.Tier)))
	return nil
}

// parseTicket accepts comma or whitespace separated numbers for each zone.
func parseTicket(front, back string) (models.Ticket, error) {
	f, err := draws.ParseNumbers(strings.ReplaceAll(front, ",", " "), "")
	if err != nil {
		return models.Ticket{}, fmt.Errorf("invalid --front: %w", err)
	}
	b, err := draws.ParseNumbers(strings.ReplaceAll(back, ",", " "), "")
	if err != nil {
		return models.Ticket{}, fmt.Errorf("invalid --back: %w", err)
	}
	ticket, err := models.NewTicket(f, b)
	if err != nil {
		return models.Ticket{}, fmt.Errorf("invalid ticket: %w", err)
	}
	return ticket, nil
}
