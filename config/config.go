package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rustyeddy/dukas/market"
	"gopkg.in/yaml.v3"
)

// Config is the complete pipeline configuration. Components receive the
// section they need at construction; there is no process-wide mutable state.
type Config struct {
	Download DownloadConfig `json:"download" yaml:"download"`
	Store    StoreConfig    `json:"store" yaml:"store"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Ingest   IngestConfig   `json:"ingest" yaml:"ingest"`
}

// DownloadConfig configures the hourly file fetcher.
type DownloadConfig struct {
	Dir       string `json:"dir" yaml:"dir"`
	BaseURL   string `json:"base_url" yaml:"base_url"`
	Workers   int    `json:"workers" yaml:"workers"`
	TimeoutMS int    `json:"timeout_ms" yaml:"timeout_ms"`
	SleepMS   int    `json:"sleep_ms" yaml:"sleep_ms"`
}

func (d DownloadConfig) Timeout() time.Duration { return time.Duration(d.TimeoutMS) * time.Millisecond }
func (d DownloadConfig) Sleep() time.Duration   { return time.Duration(d.SleepMS) * time.Millisecond }

// StoreConfig configures the partitioned bar store.
type StoreConfig struct {
	Dir           string `json:"dir" yaml:"dir"`
	Compression   string `json:"compression" yaml:"compression"`
	MaxScanMonths int    `json:"max_scan_months,omitempty" yaml:"max_scan_months,omitempty"`
}

// JournalConfig configures the ingest journal. An empty path disables it.
type JournalConfig struct {
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// IngestConfig holds the default timeframe set for ingest runs.
type IngestConfig struct {
	Timeframes []string `json:"timeframes" yaml:"timeframes"`
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration. Timeframe grammar is rejected here,
// before any I/O happens.
func (c *Config) Validate() error {
	if c.Download.Dir == "" {
		return fmt.Errorf("download.dir is required")
	}
	if c.Download.BaseURL == "" {
		return fmt.Errorf("download.base_url is required")
	}
	if c.Download.Workers <= 0 {
		return fmt.Errorf("download.workers must be positive")
	}
	if c.Store.Dir == "" {
		return fmt.Errorf("store.dir is required")
	}
	switch c.Store.Compression {
	case "zstd", "snappy", "lz4", "gzip", "none":
	default:
		return fmt.Errorf("store.compression must be one of zstd|snappy|lz4|gzip|none")
	}
	if len(c.Ingest.Timeframes) == 0 {
		return fmt.Errorf("ingest.timeframes must not be empty")
	}
	for _, s := range c.Ingest.Timeframes {
		if _, err := market.ParseTimeframe(s); err != nil {
			return fmt.Errorf("ingest.timeframes: %w", err)
		}
	}
	return nil
}

// Timeframes returns the parsed ingest timeframe set. Call Validate first.
func (c *Config) Timeframes() ([]market.Timeframe, error) {
	tfs := make([]market.Timeframe, 0, len(c.Ingest.Timeframes))
	for _, s := range c.Ingest.Timeframes {
		tf, err := market.ParseTimeframe(s)
		if err != nil {
			return nil, err
		}
		tfs = append(tfs, tf)
	}
	return tfs, nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Download: DownloadConfig{
			Dir:       "./download",
			BaseURL:   "https://datafeed.dukascopy.com/datafeed",
			Workers:   8,
			TimeoutMS: 45000,
			SleepMS:   50,
		},
		Store: StoreConfig{
			Dir:         "./data",
			Compression: "zstd",
		},
		Ingest: IngestConfig{
			Timeframes: []string{"1m", "5m", "15m", "30m", "1h", "4h", "1D"},
		},
	}
}
