package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
origin: co

scoring:
  - context: risk
    paths: [risk]
    aggregate: max
    values:
      none: 0
      low: 1
      high: 3
      critical: 4
  - context: oversight
    paths: [oversight]
    aggregate: max
    values:
      none: 0
      spot: 1
      full: 4

levels:
  - name: red
    color: red
    when: risk >= 4 AND oversight <= 2
  - name: orange
    label: semi-auto
    color: orange
    when: risk >= 2

default:
  name: green
  label: human-led
  color: green
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "avouch.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Origin != "co" {
		t.Errorf("cfg.Origin = %q, want co", cfg.Origin)
	}
	if cfg.Version != DefaultVersion {
		t.Errorf("cfg.Version = %d, want default %d", cfg.Version, DefaultVersion)
	}
	if len(cfg.Scoring) != 2 || len(cfg.Levels) != 2 {
		t.Fatalf("expected 2 scoring rules and 2 levels, got %d and %d", len(cfg.Scoring), len(cfg.Levels))
	}

	// Defaults fill in what the file leaves out.
	if cfg.Levels[0].Label != "red" {
		t.Errorf("level label should default to its name, got %q", cfg.Levels[0].Label)
	}
	if cfg.Levels[1].Label != "semi-auto" {
		t.Errorf("explicit level label should survive, got %q", cfg.Levels[1].Label)
	}
	if cfg.Badge.Label != DefaultBadgeLabel {
		t.Errorf("cfg.Badge.Label = %q, want default %q", cfg.Badge.Label, DefaultBadgeLabel)
	}
	if cfg.Badge.Template != DefaultBadgeTemplate {
		t.Errorf("cfg.Badge.Template = %q, want default", cfg.Badge.Template)
	}
	if cfg.Server.Address != DefaultListenAddress {
		t.Errorf("cfg.Server.Address = %q, want default %q", cfg.Server.Address, DefaultListenAddress)
	}
	if cfg.Server.History != DefaultHistory {
		t.Errorf("cfg.Server.History = %d, want default %d", cfg.Server.History, DefaultHistory)
	}
	if cfg.Storage.Enabled {
		t.Error("storage should be disabled by default")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("logging defaults = %q/%q, want info/text", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load() of a missing file should fail")
	}
	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "origin: co\nlevels: [\n"))
	if err == nil {
		t.Fatal("Load() of malformed YAML should fail")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadRejectsBadCondition(t *testing.T) {
	broken := strings.Replace(validYAML, "when: risk >= 2", "when: risk >=", 1)

	_, err := Load(writeConfig(t, broken))
	if err == nil {
		t.Fatal("a configuration with a malformed condition must be rejected whole")
	}

	var vErr ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if len(vErr.Errors) != 1 {
		t.Fatalf("expected 1 field error, got %d: %v", len(vErr.Errors), vErr)
	}
	if vErr.Errors[0].Field != "levels[1].when" {
		t.Errorf("field = %q, want levels[1].when", vErr.Errors[0].Field)
	}
	if !strings.Contains(vErr.Errors[0].Message, "parse error") {
		t.Errorf("message should carry the parse error, got %q", vErr.Errors[0].Message)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("AVOUCH_ORIGIN", "acme")
	t.Setenv("AVOUCH_SERVER_ADDRESS", "127.0.0.1:9999")
	t.Setenv("AVOUCH_SERVER_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("AVOUCH_STORAGE_ENABLED", "true")
	t.Setenv("AVOUCH_STORAGE_PATH", "override.db")
	t.Setenv("AVOUCH_LOGGING_LEVEL", "debug")

	cfg, err := LoadWithEnvOverrides(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadWithEnvOverrides() error = %v, want nil", err)
	}

	if cfg.Origin != "acme" {
		t.Errorf("cfg.Origin = %q, want acme", cfg.Origin)
	}
	if cfg.Server.Address != "127.0.0.1:9999" {
		t.Errorf("cfg.Server.Address = %q, want override", cfg.Server.Address)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("cfg.Server.ShutdownTimeout = %v, want 5s", cfg.Server.ShutdownTimeout)
	}
	if !cfg.Storage.Enabled || cfg.Storage.Path != "override.db" {
		t.Errorf("storage overrides not applied: %+v", cfg.Storage)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("cfg.Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadWithEnvOverridesRevalidates(t *testing.T) {
	t.Setenv("AVOUCH_LOGGING_LEVEL", "verbose")

	_, err := LoadWithEnvOverrides(writeConfig(t, validYAML))
	if err == nil {
		t.Fatal("an invalid override must fail validation")
	}
	if !strings.Contains(err.Error(), "after environment overrides") {
		t.Errorf("unexpected error: %v", err)
	}
}
