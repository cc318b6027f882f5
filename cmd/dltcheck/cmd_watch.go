package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/rewired-gh/dltcheck/internal/config"
	"github.com/rewired-gh/dltcheck/internal/logger"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Evaluate on a cron schedule until interrupted",
		Long: `Run evaluations on schedule.cron (six fields, seconds first) until SIGINT or
SIGTERM. A run still in progress when the next one is due is skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(cmd.Context(), opts, runNow)
		},
	}

	cmd.Flags().BoolVar(&runNow, "now", false, "Run one evaluation immediately before waiting for the schedule")

	return cmd
}

func watch(ctx context.Context, opts *rootOptions, runNow bool) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if cfg.Schedule.Cron == "" {
		return errors.New("schedule.cron is required for watch")
	}
	schedule, err := cron.NewParser(config.CronParseOptions).Parse(cfg.Schedule.Cron)
	if err != nil {
		return fmt.Errorf("failed to parse schedule: %w", err)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	// Setup graceful shutdown
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			logger.Info("Shutdown signal received, cleaning up...")
			cancel()
		case <-ctx.Done():
		}
	}()

	runCycle := func() {
		if _, err := a.evaluator.Run(ctx); exitError(err) != nil {
			logger.Error("Scheduled evaluation failed: %v", err)
		}
	}

	scheduler := cron.New(
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
		cron.WithLogger(cronLogger{}),
	)
	scheduler.Schedule(schedule, cron.FuncJob(runCycle))

	if runNow {
		logger.Debug("Running initial evaluation")
		runCycle()
	}

	scheduler.Start()
	logger.Info("Watching with schedule %q (next run: %s)", cfg.Schedule.Cron, schedule.Next(time.Now()).Format("2006-01-02 15:04:05"))

	<-ctx.Done()
	// Wait for a running evaluation to finish before closing history
	<-scheduler.Stop().Done()
	logger.Info("Service stopped")
	return nil
}

// cronLogger routes cron's own messages through the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: %s: %v %v", msg, err, keysAndValues)
}
