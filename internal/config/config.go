package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/rewired-gh/dltcheck/internal/models"
	"github.com/rewired-gh/dltcheck/internal/prize"
	"github.com/rewired-gh/dltcheck/internal/textenc"
)

// Config represents the complete application configuration
type Config struct {
	Draws     DrawsConfig     `mapstructure:"draws"`
	Reports   ReportsConfig   `mapstructure:"reports"`
	Expansion ExpansionConfig `mapstructure:"expansion"`
	Prize     PrizeConfig     `mapstructure:"prize"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	History   HistoryConfig   `mapstructure:"history"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DrawsConfig holds the draw CSV source. URL wins over Path when both are set.
type DrawsConfig struct {
	Path           string        `mapstructure:"path"`
	URL            string        `mapstructure:"url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// ReportsConfig holds where analysis reports are found and how they are decoded
type ReportsConfig struct {
	Dir       string   `mapstructure:"dir"`
	Pattern   string   `mapstructure:"pattern"`
	Encodings []string `mapstructure:"encodings"`
}

// ExpansionConfig bounds complex pool expansion
type ExpansionConfig struct {
	MaxTickets int `mapstructure:"max_tickets"`
}

// PrizeConfig holds the payout per tier, keyed "1" to "9"
type PrizeConfig struct {
	Table map[string]int64 `mapstructure:"table"`
}

// LedgerConfig holds the rolling report settings
type LedgerConfig struct {
	Path       string `mapstructure:"path"`
	MaxEntries int    `mapstructure:"max_entries"`
	MaxErrors  int    `mapstructure:"max_errors"`
}

// HistoryConfig holds the SQLite history settings
type HistoryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	DBPath     string `mapstructure:"db_path"`
	MaxRecords int    `mapstructure:"max_records"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// ScheduleConfig holds the cron expression used by watch mode (seconds field included)
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Enable environment variable override, e.g. DLTCHECK_DRAWS_PATH
	v.SetEnvPrefix("DLTCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Draw source defaults
	v.SetDefault("draws.path", "daletou.csv")
	v.SetDefault("draws.url", "")
	v.SetDefault("draws.timeout", "30s")
	v.SetDefault("draws.max_retries", 3)
	v.SetDefault("draws.retry_delay_base", "1s")

	// Report defaults
	v.SetDefault("reports.dir", ".")
	v.SetDefault("reports.pattern", "dlt_analysis_output_*.txt")
	v.SetDefault("reports.encodings", textenc.DefaultEncodings)

	v.SetDefault("expansion.max_tickets", 20000)

	table := make(map[string]interface{})
	for tier, amount := range prize.DefaultTable() {
		table[strconv.Itoa(int(tier))] = amount
	}
	v.SetDefault("prize.table", table)

	// Ledger defaults
	v.SetDefault("ledger.path", "latest_dlt_calculation.txt")
	v.SetDefault("ledger.max_entries", 10)
	v.SetDefault("ledger.max_errors", 20)

	// History defaults
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.db_path", "./data/dltcheck.db")
	v.SetDefault("history.max_records", 1000)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Draws are held Mon/Wed/Sat evenings
	v.SetDefault("schedule.cron", "0 30 21 * * 1,3,6")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate draw source
	if c.Draws.Path == "" && c.Draws.URL == "" {
		return errors.New("draws.path or draws.url is required")
	}
	if c.Draws.URL != "" && !strings.HasPrefix(c.Draws.URL, "http://") && !strings.HasPrefix(c.Draws.URL, "https://") {
		return errors.New("draws.url must be an http or https URL")
	}
	if c.Draws.Timeout < time.Second {
		return errors.New("draws.timeout must be at least 1 second")
	}
	if c.Draws.MaxRetries < 1 {
		return errors.New("draws.max_retries must be at least 1")
	}

	// Validate reports
	if c.Reports.Dir == "" {
		return errors.New("reports.dir is required")
	}
	if c.Reports.Pattern == "" {
		return errors.New("reports.pattern is required")
	}
	if len(c.Reports.Encodings) == 0 {
		return errors.New("reports.encodings must contain at least one encoding")
	}
	if err := textenc.Validate(c.Reports.Encodings); err != nil {
		return fmt.Errorf("reports.encodings: %w", err)
	}

	if c.Expansion.MaxTickets < 1 {
		return errors.New("expansion.max_tickets must be at least 1")
	}

	if _, err := c.PrizeTable(); err != nil {
		return fmt.Errorf("prize.table: %w", err)
	}

	// Validate ledger
	if c.Ledger.Path == "" {
		return errors.New("ledger.path is required")
	}
	if c.Ledger.MaxEntries < 1 {
		return errors.New("ledger.max_entries must be at least 1")
	}
	if c.Ledger.MaxErrors < 1 {
		return errors.New("ledger.max_errors must be at least 1")
	}

	if c.History.Enabled {
		if c.History.DBPath == "" {
			return errors.New("history.db_path is required when history is enabled")
		}
		if c.History.MaxRecords < c.Ledger.MaxEntries {
			return errors.New("history.max_records must be at least ledger.max_entries")
		}
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return errors.New("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return errors.New("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.Schedule.Cron != "" {
		if _, err := cron.NewParser(CronParseOptions).Parse(c.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron is invalid: %w", err)
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return errors.New("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return errors.New("logging.format must be one of: json, text")
	}

	return nil
}

// CronParseOptions is the cron dialect for schedule.cron: seconds first, descriptors allowed.
const CronParseOptions = cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor

// PrizeTable converts the configured table to a validated prize.Table.
func (c *Config) PrizeTable() (prize.Table, error) {
	table := make(prize.Table, len(c.Prize.Table))
	for key, amount := range c.Prize.Table {
		tier, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("tier key %q is not a number", key)
		}
		if err := models.Tier(tier).Validate(); err != nil {
			return nil, fmt.Errorf("tier key %q: %w", key, err)
		}
		table[models.Tier(tier)] = amount
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
