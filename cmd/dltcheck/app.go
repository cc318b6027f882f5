package main

import (
	"fmt"

	"github.com/rewired-gh/dltcheck/internal/config"
	"github.com/rewired-gh/dltcheck/internal/drawfeed"
	"github.com/rewired-gh/dltcheck/internal/evaluator"
	"github.com/rewired-gh/dltcheck/internal/ledger"
	"github.com/rewired-gh/dltcheck/internal/logger"
	"github.com/rewired-gh/dltcheck/internal/prize"
	"github.com/rewired-gh/dltcheck/internal/recommend"
	"github.com/rewired-gh/dltcheck/internal/report"
	"github.com/rewired-gh/dltcheck/internal/storage"
	"github.com/rewired-gh/dltcheck/internal/telegram"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

// loadConfig reads, overrides and validates configuration, then initialises logging.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if opts.configPath != "" {
		logger.Info("Configuration loaded from %s", opts.configPath)
	} else {
		logger.Debug("No config file given, using defaults and environment")
	}
	return cfg, nil
}

func newDrawClient(cfg *config.Config) *drawfeed.Client {
	return drawfeed.NewClient(cfg.Draws.Path, cfg.Draws.URL, drawfeed.ClientConfig{
		Timeout:        cfg.Draws.Timeout,
		MaxRetries:     cfg.Draws.MaxRetries,
		RetryDelayBase: cfg.Draws.RetryDelayBase,
		Encodings:      cfg.Reports.Encodings,
	})
}

func newEngine(cfg *config.Config) (*prize.Engine, error) {
	table, err := cfg.PrizeTable()
	if err != nil {
		return nil, fmt.Errorf("invalid prize table: %w", err)
	}
	return prize.NewEngine(table)
}

// app holds the wired evaluator and the resources it owns.
type app struct {
	cfg       *config.Config
	evaluator *evaluator.Evaluator
	history   *storage.Storage
}

func newApp(cfg *config.Config) (*app, error) {
	engine, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}

	deps := evaluator.Deps{
		Source:    newDrawClient(cfg),
		Reports:   report.NewLocator(cfg.Reports.Dir, cfg.Reports.Pattern, cfg.Reports.Encodings),
		Expander:  recommend.NewExpander(cfg.Expansion.MaxTickets),
		Engine:    engine,
		Ledger:    ledger.New(cfg.Ledger.Path, cfg.Ledger.MaxEntries, cfg.Ledger.MaxErrors),
		Encodings: cfg.Reports.Encodings,
	}

	a := &app{cfg: cfg}

	// Initialize storage
	if cfg.History.Enabled {
		a.history, err = storage.New(cfg.History.MaxRecords, cfg.History.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize history: %w", err)
		}
		deps.History = a.history
	} else {
		logger.Debug("History disabled")
	}

	// Initialize Telegram client
	if cfg.Telegram.Enabled {
		telegramClient, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		deps.Notifier = telegramClient
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	a.evaluator, err = evaluator.New(deps)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	if a.history == nil {
		return
	}
	if err := a.history.Close(); err != nil {
		logger.Error("Failed to close history: %v", err)
	}
}
