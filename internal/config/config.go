// Package config loads and validates the owctld daemon's static
// configuration: logging, telemetry, metrics, and the tunables for the
// metadata aggregator, DPI client registry, and steering engine.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (OWCTLD_*) (highest priority)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// Environment variables override only keys that also appear in the
// configuration file; when no file is found, Load returns the defaults.
// No CLI flag other than the config file path is bound to a setting.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the owctld daemon's top-level configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	Aggregator AggregatorConfig `mapstructure:"aggregator" yaml:"aggregator"`
	Steer      SteerConfig      `mapstructure:"steer" yaml:"steer"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled        bool    `mapstructure:"enabled" yaml:"enabled"`
	ServiceName    string  `mapstructure:"service_name" yaml:"service_name"`
	ServiceVersion string  `mapstructure:"service_version" yaml:"service_version"`
	Endpoint       string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure       bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate     float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
}

// MetricsConfig configures the Prometheus metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// AggregatorConfig tunes the metadata aggregator.
type AggregatorConfig struct {
	// AccTTL is the idle duration after which an unreferenced accumulator
	// is eligible for garbage collection.
	AccTTL time.Duration `mapstructure:"acc_ttl" validate:"required,gt=0" yaml:"acc_ttl"`

	// NumWindows bounds the retained closed-window ring.
	NumWindows int `mapstructure:"num_windows" validate:"required,gt=0" yaml:"num_windows"`

	// MaxReports bounds flow_stats entries per window.
	MaxReports int `mapstructure:"max_reports" validate:"required,gt=0" yaml:"max_reports"`

	// ReportType selects "absolute" or "relative" counter reporting.
	ReportType string `mapstructure:"report_type" validate:"required,oneof=absolute relative" yaml:"report_type"`

	// CTZoneMerge enables cross-zone conntrack dedup (USHRT_MAX sentinel zone).
	CTZoneMerge bool `mapstructure:"ct_zone_merge" yaml:"ct_zone_merge"`

	NodeID     string `mapstructure:"node_id" validate:"required" yaml:"node_id"`
	LocationID string `mapstructure:"location_id" yaml:"location_id"`
}

// SteerConfig tunes the station-steering engine.
type SteerConfig struct {
	// BackoffInitial is the snr-level policy's initial enforcement backoff.
	BackoffInitial time.Duration `mapstructure:"backoff_initial" validate:"required,gt=0" yaml:"backoff_initial"`

	// BackoffMax caps exponential backoff growth.
	BackoffMax time.Duration `mapstructure:"backoff_max" validate:"required,gt=0" yaml:"backoff_max"`

	// BackoffMultiplier is the exponential growth factor applied to the
	// backoff duration on each repeated enforcement.
	BackoffMultiplier float64 `mapstructure:"backoff_multiplier" validate:"required,gt=1" yaml:"backoff_multiplier"`

	// AgeoutTimeout expires a candidate's steering state when no activity
	// is observed for this long.
	AgeoutTimeout time.Duration `mapstructure:"ageout_timeout" validate:"required,gt=0" yaml:"ageout_timeout"`
}

// Load reads configuration from file, environment, and defaults, then
// validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
			return nil, fmt.Errorf("config: unmarshal failed: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("OWCTLD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(configDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read file: %w", err)
	}
	return true, nil
}

// durationDecodeHook lets config files and env vars use human-readable
// durations ("30s", "5m") for every time.Duration field.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "owctld")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "owctld")
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}
