package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const minimalConfig = `
accounts:
  - address: me@example.com
    password: app-password
    enabled: true
oracle:
  model: gpt-4o-mini
  api_key: sk-test
`

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Accounts[0].Host != "imap.gmail.com" {
		t.Errorf("host = %q, want imap.gmail.com", cfg.Accounts[0].Host)
	}
	if cfg.Accounts[0].Port != "993" {
		t.Errorf("port = %q, want 993", cfg.Accounts[0].Port)
	}
	if cfg.Oracle.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("base URL = %q", cfg.Oracle.BaseURL)
	}
	if cfg.Scan.Throttle != 100*time.Millisecond {
		t.Errorf("throttle = %v, want 100ms", cfg.Scan.Throttle)
	}
	if cfg.Scan.Backfill != 720*time.Hour {
		t.Errorf("backfill = %v, want 720h", cfg.Scan.Backfill)
	}
	if cfg.Storage.Type != "csv" || cfg.Storage.Path != "jobs.csv" {
		t.Errorf("storage = %+v, want csv/jobs.csv", cfg.Storage)
	}
	if cfg.StatePath != "state.yaml" {
		t.Errorf("state path = %q", cfg.StatePath)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_ORACLE_KEY", "sk-from-env")

	content := strings.Replace(minimalConfig, "sk-test", "${TEST_ORACLE_KEY}", 1)
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Oracle.APIKey != "sk-from-env" {
		t.Errorf("api key = %q, want sk-from-env", cfg.Oracle.APIKey)
	}
}

func TestLoad_RejectsNoEnabledAccounts(t *testing.T) {
	content := strings.Replace(minimalConfig, "enabled: true", "enabled: false", 1)
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Fatal("expected error for config with no enabled accounts")
	}
}

func TestLoad_RejectsMissingAPIKey(t *testing.T) {
	content := strings.Replace(minimalConfig, "  api_key: sk-test\n", "", 1)
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Fatal("expected error for config without oracle.api_key")
	}
}

func TestLoad_RejectsUnknownStorageType(t *testing.T) {
	content := minimalConfig + `
storage:
  type: postgres
`
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Fatal("expected error for unknown storage type")
	}
}

func TestLoad_SQLiteDefaultPath(t *testing.T) {
	content := minimalConfig + `
storage:
  type: sqlite
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Path != "jobs.db" {
		t.Errorf("path = %q, want jobs.db", cfg.Storage.Path)
	}
}

func TestLoad_ParsesDurations(t *testing.T) {
	content := minimalConfig + `
scan:
  throttle: 250ms
  backfill: 48h
watch_interval: 15m
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scan.Throttle != 250*time.Millisecond {
		t.Errorf("throttle = %v", cfg.Scan.Throttle)
	}
	if cfg.Scan.Backfill != 48*time.Hour {
		t.Errorf("backfill = %v", cfg.Scan.Backfill)
	}
	if cfg.WatchInterval != 15*time.Minute {
		t.Errorf("watch interval = %v", cfg.WatchInterval)
	}
}

func TestLoad_SlackRequiresWebhook(t *testing.T) {
	content := minimalConfig + `
notification:
  type: slack
`
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Fatal("expected error for slack notifier without webhook_url")
	}
}
