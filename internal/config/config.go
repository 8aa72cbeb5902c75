// Package config loads service settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting.
type Config struct {
	DBPath         string `yaml:"db_path"`
	Port           string `yaml:"port"`
	LogLevel       string `yaml:"log_level"`
	PreferLiveRate bool   `yaml:"prefer_live_rate"`
	HistoryLimit   int    `yaml:"history_limit"`
	Rates          Rates  `yaml:"rates"`
}

// Rates configures the exchange rate provider.
type Rates struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
	// Refresh is how often cached quotes are renewed.
	Refresh time.Duration `yaml:"refresh"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		DBPath:         "travel_wallet.db",
		Port:           "8080",
		LogLevel:       "info",
		PreferLiveRate: true,
		HistoryLimit:   20,
		Rates: Rates{
			URL:     "https://api.exchangerate.host",
			Timeout: 10 * time.Second,
			Refresh: time.Minute,
		},
	}
}

// Load reads path (skipped when empty), applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("CURRENCY_API_KEY"); v != "" {
		c.Rates.APIKey = v
	}
	if v := os.Getenv("RATES_API_URL"); v != "" {
		c.Rates.URL = v
	}
	if v := os.Getenv("PREFER_LIVE_RATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PREFER_LIVE_RATE must be a boolean: %w", err)
		}
		c.PreferLiveRate = b
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("port %q is not a valid TCP port", c.Port)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	if c.Rates.URL == "" {
		return errors.New("rates.url is required")
	}
	if c.Rates.Timeout <= 0 {
		return fmt.Errorf("rates.timeout must be positive, got %v", c.Rates.Timeout)
	}
	if c.Rates.Refresh <= 0 {
		return fmt.Errorf("rates.refresh must be positive, got %v", c.Rates.Refresh)
	}
	return nil
}
