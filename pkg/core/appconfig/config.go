// Package appconfig loads the server configuration file. All fields have
// working defaults so the binary runs with no config file at all.
package appconfig

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	Defaults struct {
		RiskFreeRate  float64 `yaml:"risk_free_rate"`
		MarketPremium float64 `yaml:"market_premium"`
		Horizon       int     `yaml:"horizon"`
	} `yaml:"defaults"`

	Retry struct {
		MaxAttempts      int `yaml:"max_attempts"`
		BaseDelaySeconds int `yaml:"base_delay_seconds"`
	} `yaml:"retry"`

	Cache struct {
		TTLHours int    `yaml:"ttl_hours"`
		Dir      string `yaml:"dir"`
	} `yaml:"cache"`

	SectorFile   string `yaml:"sector_file"`
	UniverseFile string `yaml:"universe_file"`

	Database struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"database"`
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	cfg.ListenAddr = ":8080"
	cfg.Defaults.RiskFreeRate = 0.07
	cfg.Defaults.MarketPremium = 0.06
	cfg.Defaults.Horizon = 5
	cfg.Retry.MaxAttempts = 5
	cfg.Retry.BaseDelaySeconds = 3
	cfg.Cache.TTLHours = 3
	cfg.Cache.Dir = ""
	return cfg
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// CacheTTL converts the configured TTL to a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// RetryBaseDelay converts the configured base delay to a duration.
func (c Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Retry.BaseDelaySeconds) * time.Second
}
