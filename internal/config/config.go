package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Failure policies for a symbol whose data cannot be fetched.
const (
	PolicyIsolate = "isolate" // show an inline error and continue with the next symbol
	PolicyAbort   = "abort"   // stop the run at the first failing symbol
)

// Data providers.
const (
	ProviderYahoo  = "yahoo"
	ProviderAlpaca = "alpaca"
	ProviderMock   = "mock"
)

// DefaultSymbols is the dashboard's built-in symbol list.
var DefaultSymbols = []string{"AAPL", "GOOG", "MSFT", "AMZN", "TSLA", "NVDA", "META", "CRM", "JPM", "XOM"}

// Pipeline holds everything the render loop needs besides its collaborators.
type Pipeline struct {
	Symbols       []string `yaml:"symbols"`
	LookbackYears int      `yaml:"lookback_years"`
	DisplayPoints int      `yaml:"display_points"`
	ShortWindow   int      `yaml:"short_window"`
	LongWindow    int      `yaml:"long_window"`
	FailurePolicy string   `yaml:"failure_policy"`
}

// DataSource selects and configures the market-data provider.
type DataSource struct {
	Provider       string `yaml:"provider"`
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	APISecret      string `yaml:"api_secret"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Config holds all application configuration.
type Config struct {
	Title      string     `yaml:"title"`
	Pipeline   Pipeline   `yaml:"pipeline"`
	DataSource DataSource `yaml:"data_source"`
	Server     struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Schedule struct {
		SnapshotCron string `yaml:"snapshot_cron"`
		RunOnStart   bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Snapshot struct {
		Path string `yaml:"path"`
	} `yaml:"snapshot"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy    string `yaml:"proxy"`
	LogLevel string `yaml:"log_level"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error: defaults cover every field.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DASHBOARD_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("ALPACA_SECRET_KEY"); v != "" {
		cfg.DataSource.APISecret = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SNAPSHOT_CRON"); v != "" {
		cfg.Schedule.SnapshotCron = v
	}
	if v := os.Getenv("FAILURE_POLICY"); v != "" {
		cfg.Pipeline.FailurePolicy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	// Defaults
	if cfg.Title == "" {
		cfg.Title = "Stocks Dashboard"
	}
	if len(cfg.Pipeline.Symbols) == 0 {
		cfg.Pipeline.Symbols = append([]string(nil), DefaultSymbols...)
	}
	cfg.Pipeline.Symbols = lo.Map(cfg.Pipeline.Symbols, func(s string, _ int) string {
		return strings.ToUpper(strings.TrimSpace(s))
	})
	if cfg.Pipeline.LookbackYears == 0 {
		cfg.Pipeline.LookbackYears = 3
	}
	if cfg.Pipeline.DisplayPoints == 0 {
		cfg.Pipeline.DisplayPoints = 504 // ~2 trading years
	}
	if cfg.Pipeline.ShortWindow == 0 {
		cfg.Pipeline.ShortWindow = 20
	}
	if cfg.Pipeline.LongWindow == 0 {
		cfg.Pipeline.LongWindow = 200
	}
	cfg.Pipeline.FailurePolicy = strings.ToLower(cfg.Pipeline.FailurePolicy)
	if cfg.Pipeline.FailurePolicy == "" {
		cfg.Pipeline.FailurePolicy = PolicyIsolate
	}
	cfg.DataSource.Provider = strings.ToLower(cfg.DataSource.Provider)
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = ProviderYahoo
	}
	if cfg.DataSource.TimeoutSeconds == 0 {
		cfg.DataSource.TimeoutSeconds = 30
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8501"
	}
	if cfg.Snapshot.Path == "" {
		cfg.Snapshot.Path = "data/dashboard.html"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/dashboard.db"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	p := c.Pipeline
	if len(p.Symbols) == 0 {
		return fmt.Errorf("pipeline.symbols must not be empty")
	}
	if lo.Contains(p.Symbols, "") {
		return fmt.Errorf("pipeline.symbols must not contain blank entries")
	}
	if p.LookbackYears < 1 {
		return fmt.Errorf("pipeline.lookback_years must be at least 1")
	}
	if p.DisplayPoints < 1 {
		return fmt.Errorf("pipeline.display_points must be at least 1")
	}
	if p.ShortWindow < 1 || p.LongWindow < 1 {
		return fmt.Errorf("pipeline.short_window and pipeline.long_window must be at least 1")
	}
	if p.FailurePolicy != PolicyIsolate && p.FailurePolicy != PolicyAbort {
		return fmt.Errorf("pipeline.failure_policy must be %q or %q, got %q", PolicyIsolate, PolicyAbort, p.FailurePolicy)
	}
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderMock:
	case ProviderAlpaca:
		if c.DataSource.APIKey == "" || c.DataSource.APISecret == "" {
			return fmt.Errorf("data_source.api_key and data_source.api_secret are required for alpaca")
		}
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	if c.DataSource.TimeoutSeconds < 1 {
		return fmt.Errorf("data_source.timeout_seconds must be at least 1")
	}
	return nil
}
