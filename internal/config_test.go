package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
	if cfg.Store.MaxRecords != MaxImportRecords {
		t.Errorf("MaxRecords = %d", cfg.Store.MaxRecords)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
store:
  backend: sqlite
  path: /tmp/subs.db
display:
  currency: eur
log:
  level: debug
  format: json
server:
  rate_window: 30s
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.Path != "/tmp/subs.db" {
		t.Errorf("unexpected store config %+v", cfg.Store)
	}
	if cfg.DisplayCurrencyCode() != EUR {
		t.Errorf("DisplayCurrencyCode() = %q, want EUR", cfg.DisplayCurrencyCode())
	}
	if cfg.Server.RateWindow != 30*time.Second {
		t.Errorf("RateWindow = %s", cfg.Server.RateWindow)
	}
	// unset values keep their defaults
	if cfg.Server.RateLimit != 10 || cfg.Store.MaxRecords != MaxImportRecords {
		t.Errorf("defaults lost: %+v %+v", cfg.Server, cfg.Store)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoadConfigOrDefault_Missing(t *testing.T) {
	cfg, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Backend != "file" {
		t.Errorf("expected defaults, got %+v", cfg.Store)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("store: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigOrDefault(path); err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	cfg := NewDefaultConfig()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"SUBSIGHT_STORE_BACKEND": "memory",
		"SUBSIGHT_CURRENCY":      "GBP",
		"SUBSIGHT_LOG_LEVEL":     "info",
		"SUBSIGHT_RATE_LIMIT":    "3",
		"SUBSIGHT_TELEMETRY":     "true",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Backend != "memory" || cfg.Display.Currency != "GBP" || cfg.Log.Level != "info" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.Server.RateLimit != 3 || !cfg.Telemetry.Enabled {
		t.Errorf("numeric/bool env not applied: %+v", cfg)
	}

	if err := cfg.ApplyEnv(envMap(map[string]string{"SUBSIGHT_RATE_LIMIT": "lots"})); err == nil {
		t.Error("expected error for bad SUBSIGHT_RATE_LIMIT")
	}
}

func TestConfig_ValidateCollectsProblems(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Store.Backend = "postgres"
	cfg.Display.Currency = "SEK"
	cfg.Log.Format = "xml"
	cfg.Server.RateLimit = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"store backend 'postgres'", "display currency 'SEK'", "log format 'xml'", "rate_limit 0"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := NewDefaultConfig()
	cfg.Display.Locale = "en_GB.UTF-8"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Display.Locale != "en_GB.UTF-8" || loaded.Server.RateWindow != time.Minute {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}
