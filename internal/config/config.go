// Package config loads and validates the pipeline configuration from a YAML
// file with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"stockpipe/internal/domain"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the stockpipe pipeline.
type Config struct {
	Storage  Storage  `yaml:"storage"`
	Alpaca   Alpaca   `yaml:"alpaca"`
	Logging  Logging  `yaml:"logging"`
	Pipeline Pipeline `yaml:"pipeline"`
	Schedule Schedule `yaml:"schedule"`
}

// Storage holds paths for data persistence.
type Storage struct {
	SQLitePath string `yaml:"sqlite_path"`
	DataDir    string `yaml:"data_dir"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey          string `yaml:"api_key"`
	APISecret       string `yaml:"api_secret"`
	DataURL         string `yaml:"data_url"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Ticker is one seed entry for the ticker_metadata table.
type Ticker struct {
	Ticker      string `yaml:"ticker"`
	CompanyName string `yaml:"company_name"`
	Sector      string `yaml:"sector"`
}

// Pipeline controls the fetch/load run: the tracked universe, the date range,
// throttling, and retry behaviour.
type Pipeline struct {
	Tickers           []Ticker `yaml:"tickers"`
	StartDate         string   `yaml:"start_date"`
	EndDate           string   `yaml:"end_date"` // empty = today
	DownloadSleepSecs int      `yaml:"download_sleep_secs"`
	MaxAttempts       int      `yaml:"max_attempts"`
	BackoffBaseSecs   int      `yaml:"backoff_base_secs"`
	SnapshotEnabled   bool     `yaml:"snapshot_enabled"`
}

// Schedule configures periodic execution. An empty Cron means run once and
// exit.
type Schedule struct {
	Cron string `yaml:"cron"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Canonical Alpaca env vars used by the SDK take precedence over the file.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "stockpipe.db"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Alpaca.RateLimitPerMin <= 0 {
		cfg.Alpaca.RateLimitPerMin = 200
	}
	if cfg.Pipeline.MaxAttempts <= 0 {
		cfg.Pipeline.MaxAttempts = 3
	}
	if cfg.Pipeline.BackoffBaseSecs <= 0 {
		cfg.Pipeline.BackoffBaseSecs = 1
	}
	if cfg.Pipeline.DownloadSleepSecs < 0 {
		cfg.Pipeline.DownloadSleepSecs = 0
	}
}

// ---------------------------------------------------------------------------
// Validation and accessors
// ---------------------------------------------------------------------------

// ErrNoTickers is returned when the configuration names no tickers; the
// pipeline refuses to start a partial run without a universe to fetch.
var ErrNoTickers = errors.New("config: no tickers configured")

// Validate enforces the preconditions for a pipeline run.
func (c *Config) Validate() error {
	if len(c.Pipeline.Tickers) == 0 {
		return ErrNoTickers
	}
	for i, t := range c.Pipeline.Tickers {
		if t.Ticker == "" {
			return fmt.Errorf("config: tickers[%d] has an empty symbol", i)
		}
	}
	if _, err := time.Parse(domain.DateLayout, c.Pipeline.StartDate); err != nil {
		return fmt.Errorf("config: invalid start_date %q: %w", c.Pipeline.StartDate, err)
	}
	if c.Pipeline.EndDate != "" {
		if _, err := time.Parse(domain.DateLayout, c.Pipeline.EndDate); err != nil {
			return fmt.Errorf("config: invalid end_date %q: %w", c.Pipeline.EndDate, err)
		}
	}
	return nil
}

// StartTime returns the parsed start of the fetch range. Call Validate first.
func (c *Config) StartTime() time.Time {
	t, _ := time.Parse(domain.DateLayout, c.Pipeline.StartDate)
	return t
}

// EndTime returns the parsed end of the fetch range. It is zero when
// end_date is unset; the fetcher then uses the current day at fetch time, so
// scheduled runs keep picking up new days.
func (c *Config) EndTime() time.Time {
	if c.Pipeline.EndDate == "" {
		return time.Time{}
	}
	t, _ := time.Parse(domain.DateLayout, c.Pipeline.EndDate)
	return t
}

// DownloadSleep returns the fixed inter-request delay between tickers.
func (c *Config) DownloadSleep() time.Duration {
	return time.Duration(c.Pipeline.DownloadSleepSecs) * time.Second
}

// BackoffBase returns the base delay unit for fetch retry backoff.
func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.Pipeline.BackoffBaseSecs) * time.Second
}

// SeedTickers converts the configured ticker list into domain metadata rows.
func (c *Config) SeedTickers() []domain.TickerMetadata {
	out := make([]domain.TickerMetadata, 0, len(c.Pipeline.Tickers))
	for _, t := range c.Pipeline.Tickers {
		out = append(out, domain.TickerMetadata{
			Ticker:      t.Ticker,
			CompanyName: t.CompanyName,
			Sector:      t.Sector,
		})
	}
	return out
}
