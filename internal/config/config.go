package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the jobscraper sync pipeline.
type Config struct {
	Accounts      []AccountConfig
	Oracle        OracleConfig
	Scan          ScanConfig
	Storage       StorageConfig
	StatePath     string
	Notification  NotificationConfig
	Filters       FilterConfig
	WatchInterval time.Duration
}

// AccountConfig describes one mailbox to scan. Accounts are processed in the
// order they appear in the file.
type AccountConfig struct {
	Address  string `yaml:"address"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"` // expanded from env by Load; empty = use keyring
	Enabled  bool   `yaml:"enabled"`
}

// OracleConfig controls the LLM classification backend.
type OracleConfig struct {
	BaseURL string        // defaults to https://api.openai.com/v1
	Model   string        // OpenAI model identifier, e.g. "gpt-4o-mini"
	APIKey  string        // expanded from env var by Load
	Timeout time.Duration // per-request timeout
}

// ScanConfig controls the incremental scan window and pacing.
type ScanConfig struct {
	Throttle time.Duration // minimum gap between per-message operations
	Backfill time.Duration // scan window for the very first run (no watermark yet)
}

// StorageConfig selects the record store backend.
type StorageConfig struct {
	Type string `yaml:"type"` // "csv" or "sqlite"
	Path string `yaml:"path"`
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// FilterConfig holds the local subject screen applied before any oracle call.
type FilterConfig struct {
	SubjectExcludeKeywords []string
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultIMAPHost      = "imap.gmail.com"
	defaultIMAPPort      = "993"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Accounts      []AccountConfig    `yaml:"accounts"`
	Oracle        rawOracleConfig    `yaml:"oracle"`
	Scan          rawScanConfig      `yaml:"scan"`
	Storage       StorageConfig      `yaml:"storage"`
	StatePath     string             `yaml:"state_path"`
	Notification  NotificationConfig `yaml:"notification"`
	Filters       rawFilterConfig    `yaml:"filters"`
	WatchInterval string             `yaml:"watch_interval"`
}

type rawOracleConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

type rawScanConfig struct {
	Throttle string `yaml:"throttle"`
	Backfill string `yaml:"backfill"`
}

type rawFilterConfig struct {
	SubjectExcludeKeywords []string `yaml:"subject_exclude_keywords"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	throttle := 100 * time.Millisecond // default: polite pacing per message
	if raw.Scan.Throttle != "" {
		throttle, err = time.ParseDuration(raw.Scan.Throttle)
		if err != nil {
			return nil, fmt.Errorf("parse scan.throttle %q: %w", raw.Scan.Throttle, err)
		}
	}

	backfill := 720 * time.Hour // default: 30 days on a first run
	if raw.Scan.Backfill != "" {
		backfill, err = time.ParseDuration(raw.Scan.Backfill)
		if err != nil {
			return nil, fmt.Errorf("parse scan.backfill %q: %w", raw.Scan.Backfill, err)
		}
	}

	oracleTimeout := 30 * time.Second // default
	if raw.Oracle.Timeout != "" {
		oracleTimeout, err = time.ParseDuration(raw.Oracle.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse oracle.timeout %q: %w", raw.Oracle.Timeout, err)
		}
	}

	watchInterval := 1 * time.Hour // default
	if raw.WatchInterval != "" {
		watchInterval, err = time.ParseDuration(raw.WatchInterval)
		if err != nil {
			return nil, fmt.Errorf("parse watch_interval %q: %w", raw.WatchInterval, err)
		}
	}

	oracleBaseURL := raw.Oracle.BaseURL
	if oracleBaseURL == "" {
		oracleBaseURL = defaultOpenAIBaseURL
	}

	accounts := make([]AccountConfig, len(raw.Accounts))
	for i, a := range raw.Accounts {
		if a.Host == "" {
			a.Host = defaultIMAPHost
		}
		if a.Port == "" {
			a.Port = defaultIMAPPort
		}
		accounts[i] = a
	}

	storage := raw.Storage
	if storage.Type == "" {
		storage.Type = "csv"
	}
	if storage.Path == "" {
		storage.Path = defaultStoragePath(storage.Type)
	}

	statePath := raw.StatePath
	if statePath == "" {
		statePath = "state.yaml"
	}

	cfg := &Config{
		Accounts: accounts,
		Oracle: OracleConfig{
			BaseURL: oracleBaseURL,
			Model:   raw.Oracle.Model,
			APIKey:  raw.Oracle.APIKey,
			Timeout: oracleTimeout,
		},
		Scan: ScanConfig{
			Throttle: throttle,
			Backfill: backfill,
		},
		Storage:      storage,
		StatePath:    statePath,
		Notification: raw.Notification,
		Filters: FilterConfig{
			SubjectExcludeKeywords: raw.Filters.SubjectExcludeKeywords,
		},
		WatchInterval: watchInterval,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultStoragePath(storageType string) string {
	if storageType == "sqlite" {
		return "jobs.db"
	}
	return "jobs.csv"
}

func validate(cfg *Config) error {
	enabled := 0
	for i, a := range cfg.Accounts {
		if a.Address == "" {
			return fmt.Errorf("accounts[%d].address is required", i)
		}
		if a.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one account must be enabled")
	}

	if cfg.Oracle.Model == "" {
		return fmt.Errorf("oracle.model is required")
	}
	if cfg.Oracle.APIKey == "" {
		return fmt.Errorf("oracle.api_key is required")
	}

	switch cfg.Storage.Type {
	case "csv", "sqlite":
	default:
		return fmt.Errorf("storage.type must be \"csv\" or \"sqlite\", got %q", cfg.Storage.Type)
	}

	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if len(cfg.Notification.WebhookURL) < len("https://hooks.slack.com/") ||
			cfg.Notification.WebhookURL[:len("https://hooks.slack.com/")] != "https://hooks.slack.com/" {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	}

	if cfg.Scan.Throttle < 0 {
		return fmt.Errorf("scan.throttle must not be negative, got %v", cfg.Scan.Throttle)
	}
	if cfg.Scan.Backfill <= 0 {
		return fmt.Errorf("scan.backfill must be positive, got %v", cfg.Scan.Backfill)
	}
	if cfg.WatchInterval <= 0 {
		return fmt.Errorf("watch_interval must be positive, got %v", cfg.WatchInterval)
	}

	return nil
}
