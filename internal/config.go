package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// StoreConfig selects where subscriptions are kept
type StoreConfig struct {
	Backend    string `yaml:"backend"`               // file, sqlite or memory
	Path       string `yaml:"path,omitempty"`        // data directory (file) or database file (sqlite)
	MaxRecords int    `yaml:"max_records,omitempty"` // refuse writes beyond this many records
}

type DisplayConfig struct {
	Currency string `yaml:"currency,omitempty"` // summary currency; defaults to the first subscription's
	Locale   string `yaml:"locale,omitempty"`   // e.g. en_GB.UTF-8; defaults to LC_MONETARY/LC_ALL/LANG
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

type ServerConfig struct {
	Addr       string        `yaml:"addr"`
	RateLimit  int           `yaml:"rate_limit"`  // mutating requests allowed per window and client
	RateWindow time.Duration `yaml:"rate_window"` // e.g. 60s
}

type TelemetryConfig struct {
	// Enabled logs usage events at info level. They never leave the machine.
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Display   DisplayConfig   `yaml:"display"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DefaultConfigDir returns ~/.subsight
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".subsight")
}

// DefaultConfigPath returns the default config file path (~/.subsight/config.yaml)
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// NewDefaultConfig returns the configuration used when no file exists
func NewDefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:    "file",
			Path:       filepath.Join(DefaultConfigDir(), "data"),
			MaxRecords: MaxImportRecords,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:       "127.0.0.1:8787",
			RateLimit:  10,
			RateWindow: time.Minute,
		},
	}
}

// LoadConfig reads a YAML config file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// LoadConfigOrDefault is LoadConfig, except that a missing file yields the defaults
func LoadConfigOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewDefaultConfig(), nil
	}
	return cfg, err
}

// ApplyEnv overrides settings from SUBSIGHT_* environment variables
func (c *Config) ApplyEnv(getenv func(string) string) error {
	set := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set("SUBSIGHT_STORE_BACKEND", &c.Store.Backend)
	set("SUBSIGHT_STORE_PATH", &c.Store.Path)
	set("SUBSIGHT_CURRENCY", &c.Display.Currency)
	set("SUBSIGHT_LOCALE", &c.Display.Locale)
	set("SUBSIGHT_LOG_LEVEL", &c.Log.Level)
	set("SUBSIGHT_LOG_FORMAT", &c.Log.Format)
	set("SUBSIGHT_ADDR", &c.Server.Addr)

	if v := getenv("SUBSIGHT_MAX_RECORDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SUBSIGHT_MAX_RECORDS %q: %w", v, err)
		}
		c.Store.MaxRecords = n
	}
	if v := getenv("SUBSIGHT_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SUBSIGHT_RATE_LIMIT %q: %w", v, err)
		}
		c.Server.RateLimit = n
	}
	if v := getenv("SUBSIGHT_TELEMETRY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SUBSIGHT_TELEMETRY %q: %w", v, err)
		}
		c.Telemetry.Enabled = b
	}
	return nil
}

var storeBackends = []string{"file", "sqlite", "memory"}

// Validate reports every problem in the configuration at once
func (c *Config) Validate() error {
	var problems []string

	valid := false
	for _, b := range storeBackends {
		if c.Store.Backend == b {
			valid = true
		}
	}
	if !valid {
		problems = append(problems, fmt.Sprintf("invalid store backend '%s': must be one of %v", c.Store.Backend, storeBackends))
	}
	if c.Store.Backend != "memory" && c.Store.Path == "" {
		problems = append(problems, fmt.Sprintf("store path cannot be empty for the %s backend", c.Store.Backend))
	}
	if c.Store.MaxRecords < 0 {
		problems = append(problems, fmt.Sprintf("invalid max_records %d: must not be negative", c.Store.MaxRecords))
	}

	if c.Display.Currency != "" {
		if _, ok := ParseCurrencyCode(c.Display.Currency); !ok {
			problems = append(problems, fmt.Sprintf("invalid display currency '%s': must be one of %v", c.Display.Currency, SupportedCurrencies))
		}
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("invalid log level '%s'", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be text or json", c.Log.Format))
	}

	if c.Server.Addr == "" {
		problems = append(problems, "server address cannot be empty")
	}
	if c.Server.RateLimit < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate_limit %d: must be at least 1", c.Server.RateLimit))
	}
	if c.Server.RateWindow <= 0 {
		problems = append(problems, fmt.Sprintf("invalid rate_window %s: must be positive", c.Server.RateWindow))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// DisplayCurrencyCode returns the configured display currency, or "" if unset
func (c *Config) DisplayCurrencyCode() CurrencyCode {
	if c == nil {
		return ""
	}
	code, ok := ParseCurrencyCode(c.Display.Currency)
	if !ok {
		return ""
	}
	return code
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
