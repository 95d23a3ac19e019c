// Package config loads switchboard settings from defaults, an optional config
// file and SWITCHBOARD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lguibr/switchboard/internal/logging"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// SWITCHBOARD_RUNTIME_POLL_INTERVAL for runtime.poll_interval.
const EnvPrefix = "SWITCHBOARD"

// Config represents the complete switchboard configuration
type Config struct {
	Runtime RuntimeConfig `mapstructure:"runtime"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Scan    ScanConfig    `mapstructure:"scan"`
}

// RuntimeConfig tunes the Environment run loop.
type RuntimeConfig struct {
	// PollInterval is the NotReady backoff and the idle sleep (default: 10ms)
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// LoggingConfig controls the structured logger
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR (default: INFO)
	Level string `mapstructure:"level"`
	// Format is "text" or "json" (default: text)
	Format string `mapstructure:"format"`
	// File receives logs instead of stderr when set
	File string `mapstructure:"file"`
}

// MetricsConfig controls the in-memory metrics sink.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Interval is the aggregation window of the in-memory sink
	Interval time.Duration `mapstructure:"interval"`
	// Retain is how long aggregated windows are kept
	Retain time.Duration `mapstructure:"retain"`
}

// ScanConfig controls the source scanners.
type ScanConfig struct {
	// Root is the directory holding one subdirectory per language
	Root string `mapstructure:"root"`
	// Writing is the directory holding prose samples
	Writing string `mapstructure:"writing"`
	// Workers bounds how many language directories are scanned at once
	Workers int `mapstructure:"workers"`
	// Format of the printed report: "yaml" or "json"
	Format string `mapstructure:"format"`
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			PollInterval: 10 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  logging.LevelInfo,
			Format: logging.FormatText,
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Interval: 10 * time.Second,
			Retain:   time.Minute,
		},
		Scan: ScanConfig{
			Root:    "code",
			Writing: "writing",
			Workers: 4,
			Format:  "yaml",
		},
	}
}

// SetDefaults registers Default() with v so every key is known to viper
// (and therefore to AutomaticEnv) even without a config file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("runtime.poll_interval", d.Runtime.PollInterval)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.interval", d.Metrics.Interval)
	v.SetDefault("metrics.retain", d.Metrics.Retain)

	v.SetDefault("scan.root", d.Scan.Root)
	v.SetDefault("scan.writing", d.Scan.Writing)
	v.SetDefault("scan.workers", d.Scan.Workers)
	v.SetDefault("scan.format", d.Scan.Format)
}

// NewViper returns a viper instance wired with defaults and environment
// overrides. A non-empty path is used as the config file; otherwise
// switchboard.{yaml,toml,json} is looked up in the working directory and
// $HOME/.config/switchboard.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("switchboard")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/switchboard")
	}

	v.SetEnvPrefix(EnvPrefix)
	// Replace dots with underscores for nested keys in env vars
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration. A missing file is not an error unless path
// was given explicitly.
func Load(v *viper.Viper, explicit bool) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
