// Package config provides configuration loading for the structure tool.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration.
type Config struct {
	Schemas SchemasConfig `yaml:"schemas"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// SchemasConfig locates the schema documents.
type SchemasConfig struct {
	Dir string `yaml:"dir"`
	// Debounce is how long file watchers wait for a burst of writes to settle.
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// MetricsConfig configures parse metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	// Textfile is written in the node-exporter textfile format after a command runs.
	Textfile string `yaml:"textfile"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv builds configuration from STRUCTURE_* environment variables only.
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads path when it exists and falls back to the
// environment otherwise. An empty path always uses the environment.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// HasEnvConfig reports whether any STRUCTURE_* variable is set.
func HasEnvConfig() bool {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "STRUCTURE_") {
			return true
		}
	}
	return false
}

func applyEnvOverrides(cfg *Config) {
	// Schemas
	if v := os.Getenv("STRUCTURE_SCHEMAS_DIR"); v != "" {
		cfg.Schemas.Dir = v
	}
	if v := os.Getenv("STRUCTURE_SCHEMAS_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Schemas.Debounce = d
		}
	}

	// Logging
	if v := os.Getenv("STRUCTURE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("STRUCTURE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics
	if v := os.Getenv("STRUCTURE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("STRUCTURE_METRICS_NAMESPACE"); v != "" {
		cfg.Metrics.Namespace = v
	}
	if v := os.Getenv("STRUCTURE_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
}

func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Schemas.Dir == "" {
		cfg.Schemas.Dir = "schemas"
	}
	if cfg.Schemas.Debounce == 0 {
		cfg.Schemas.Debounce = 100 * time.Millisecond
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "structure"
	}
}

func validate(cfg *Config) error {
	if _, err := zerolog.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	switch cfg.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if cfg.Schemas.Debounce < 0 {
		return fmt.Errorf("schemas.debounce must not be negative")
	}

	return nil
}

// NewLogger builds the logger described by the logging section.
func (c LoggingConfig) NewLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if c.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
