// Package config loads bamboo host configuration from environment variables,
// with an optional TOML file overlay for settings that are awkward as env vars.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all host application configuration.
type Config struct {
	App     AppConfig
	Bridge  BridgeConfig
	Debug   DebugConfig
	Logging LogConfig
}

// AppConfig holds application identity and engine bootstrap settings.
type AppConfig struct {
	Name      string `envconfig:"BAMBOO_APP_NAME" default:"BambooApp" toml:"name"`
	Version   string `envconfig:"BAMBOO_APP_VERSION" default:"1.0.0" toml:"version"`
	UserAgent string `envconfig:"BAMBOO_USER_AGENT" default:"" toml:"user_agent"`
	CachePath string `envconfig:"BAMBOO_CACHE_PATH" default:"./bamboo_cache" toml:"cache_path"`
}

// BridgeConfig holds script-bridge tuning.
type BridgeConfig struct {
	// EvalTimeout bounds native-initiated remote evaluations.
	EvalTimeout time.Duration `envconfig:"BAMBOO_EVAL_TIMEOUT" default:"30s" toml:"eval_timeout"`
}

// DebugConfig holds the remote debugging server settings.
type DebugConfig struct {
	Enabled           bool   `envconfig:"BAMBOO_DEBUG_ENABLED" default:"false" toml:"enabled"`
	Host              string `envconfig:"BAMBOO_DEBUG_HOST" default:"127.0.0.1" toml:"host"`
	Port              int    `envconfig:"BAMBOO_DEBUG_PORT" default:"9222" toml:"port"`
	RequestsPerSecond int    `envconfig:"BAMBOO_DEBUG_RPS" default:"50" toml:"requests_per_second"`
	Burst             int    `envconfig:"BAMBOO_DEBUG_BURST" default:"100" toml:"burst"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"BAMBOO_LOG_LEVEL" default:"info" toml:"level"`
	Development bool   `envconfig:"BAMBOO_LOG_DEV" default:"false" toml:"development"`
}

// fileConfig mirrors Config for TOML decoding.
type fileConfig struct {
	App     *AppConfig    `toml:"app"`
	Bridge  *BridgeConfig `toml:"bridge"`
	Debug   *DebugConfig  `toml:"debug"`
	Logging *LogConfig    `toml:"logging"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads environment configuration, then overlays values from a TOML
// file. Sections absent from the file keep their environment values.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if fc.App != nil {
		cfg.App = *fc.App
	}
	if fc.Bridge != nil {
		cfg.Bridge = *fc.Bridge
	}
	if fc.Debug != nil {
		cfg.Debug = *fc.Debug
	}
	if fc.Logging != nil {
		cfg.Logging = *fc.Logging
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:      "BambooApp",
			Version:   "1.0.0",
			CachePath: "./bamboo_cache",
		},
		Bridge: BridgeConfig{
			EvalTimeout: 30 * time.Second,
		},
		Debug: DebugConfig{
			Enabled:           false,
			Host:              "127.0.0.1",
			Port:              9222,
			RequestsPerSecond: 50,
			Burst:             100,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
