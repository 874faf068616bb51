package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied to any value missing from config.toml.
const (
	DefaultBaseURL        = "http://localhost:5000"
	DefaultRequestTimeout = 30 * time.Second
	DefaultSearchDebounce = 300 * time.Millisecond
	DefaultPageSize       = 50
	DefaultLogLevel       = "info"
)

// Config represents the global ~/.chatr/config.toml.
type Config struct {
	DefaultProfile    string `toml:"default_profile"`
	BaseURL           string `toml:"base_url"`
	RequestTimeout    string `toml:"request_timeout"`
	SearchDebounce    string `toml:"search_debounce"`
	PageSize          int    `toml:"page_size"`
	ReconcileInterval string `toml:"reconcile_interval"`
	MetricsAddr       string `toml:"metrics_addr"`
	LogLevel          string `toml:"log_level"`
}

// Default returns a config with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads config from the given path. Returns nil config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOrDefault reads config from path, falling back to defaults when the file
// does not exist. Parse and validation errors are still returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = DefaultRequestTimeout.String()
	}
	if c.SearchDebounce == "" {
		c.SearchDebounce = DefaultSearchDebounce.String()
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks that duration fields parse.
func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"request_timeout":    c.RequestTimeout,
		"search_debounce":    c.SearchDebounce,
		"reconcile_interval": c.ReconcileInterval,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
	}
	return nil
}

// Timeout returns the gateway request timeout.
func (c *Config) Timeout() time.Duration {
	return parseOr(c.RequestTimeout, DefaultRequestTimeout)
}

// Debounce returns the search quiet interval.
func (c *Config) Debounce() time.Duration {
	return parseOr(c.SearchDebounce, DefaultSearchDebounce)
}

// Reconcile returns the unread reconciliation interval. Zero disables it.
func (c *Config) Reconcile() time.Duration {
	return parseOr(c.ReconcileInterval, 0)
}

func parseOr(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
