// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > embedded > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Guliveer/vitalis/monitor/internal/tabular"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "15s", "30s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all monitor configuration.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Sampler    SamplerConfig    `yaml:"sampler"`
	Decoder    DecoderConfig    `yaml:"decoder"`
	Collection CollectionConfig `yaml:"collection"`
	API        APIConfig        `yaml:"api"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// SamplerConfig describes the external tool behind NET/ESTAT.
// Args is a template; "{interval}" is replaced by the sampling interval.
type SamplerConfig struct {
	Tool     string   `yaml:"tool"`
	Args     []string `yaml:"args"`
	Interval int      `yaml:"interval"`
}

// DecoderConfig holds the text layout of each table-based monitor.
// Separator widths are platform specific and may need tuning when the
// sampling tool's output format changes.
type DecoderConfig struct {
	Estat tabular.Layout `yaml:"estat"`
	Stat  tabular.Layout `yaml:"stat"`
}

// CollectionConfig holds collection session settings.
type CollectionConfig struct {
	Interval Duration      `yaml:"interval"`
	Samples  int           `yaml:"samples"`
	Queries  []QueryConfig `yaml:"queries"`
}

// QueryConfig is one (module, purpose, field, para) query of a session.
type QueryConfig struct {
	Module  string `yaml:"module"`
	Purpose string `yaml:"purpose"`
	Field   string `yaml:"field"`
	Para    string `yaml:"para"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Listen         string   `yaml:"listen"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

// MetricsConfig selects the OpenTelemetry exporter: "none" or "stdout".
type MetricsConfig struct {
	Exporter string   `yaml:"exporter"`
	Interval Duration `yaml:"interval"`
}

// TracingConfig selects the OpenTelemetry span exporter: "none" or "stdout".
type TracingConfig struct {
	Exporter string `yaml:"exporter"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
		Sampler: SamplerConfig{
			Tool:     "sar",
			Args:     []string{"-n", "EDEV", "{interval}", "1"},
			Interval: 1,
		},
		Decoder: DecoderConfig{
			Estat: tabular.Layout{Columns: 9, Separator: 1, LastSeparator: 2, DefaultDevice: `e\S*`},
			Stat:  tabular.Layout{Columns: 4, Separator: 1, LastSeparator: 2, DefaultDevice: `e\S*`},
		},
		Collection: CollectionConfig{
			Interval: Duration{5 * time.Second},
			Samples:  10,
		},
		API: APIConfig{
			Listen:         "127.0.0.1:8383",
			RequestTimeout: Duration{60 * time.Second},
		},
		Metrics: MetricsConfig{
			Exporter: "none",
			Interval: Duration{30 * time.Second},
		},
		Tracing: TracingConfig{
			Exporter: "none",
		},
	}
}

// CLIOverrides holds values from command-line flags.
// Empty strings are treated as "not set" and skipped.
type CLIOverrides struct {
	Tool     string
	Listen   string
	LogLevel string
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DefaultPath is the per-user config location, the first path Locate checks.
func DefaultPath() string {
	return configSearchPaths()[0]
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
//
// An optional configPath argument controls external-file discovery:
//   - omitted         → auto-discover via Locate()
//   - explicit value  → use that path ("" means no external file)
func LoadLayered(cli CLIOverrides, embedded []byte, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, fmt.Errorf("parsing embedded config: %w", err)
		}
	}

	var filePath string
	if len(configPath) > 0 {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file %s: %w", filePath, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if cli.Tool != "" {
		cfg.Sampler.Tool = cli.Tool
	}
	if cli.Listen != "" {
		cfg.API.Listen = cli.Listen
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if level := os.Getenv("NM_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if tool := os.Getenv("NM_SAR_PATH"); tool != "" {
		cfg.Sampler.Tool = tool
	}
	if addr := os.Getenv("NM_LISTEN_ADDR"); addr != "" {
		cfg.API.Listen = addr
	}
}

// Validate checks that the configuration can be used to build monitors.
func (c *Config) Validate() error {
	if c.Sampler.Tool == "" {
		return fmt.Errorf("sampler tool is required")
	}
	if c.Sampler.Interval < 1 {
		return fmt.Errorf("sampler interval must be at least 1 second (got: %d)", c.Sampler.Interval)
	}
	if !containsPlaceholder(c.Sampler.Args) {
		return fmt.Errorf("sampler args must contain the {interval} placeholder")
	}
	if err := c.Decoder.Estat.Validate(); err != nil {
		return fmt.Errorf("decoder.estat: %w", err)
	}
	if err := c.Decoder.Stat.Validate(); err != nil {
		return fmt.Errorf("decoder.stat: %w", err)
	}
	if c.Collection.Samples < 1 {
		return fmt.Errorf("collection samples must be at least 1 (got: %d)", c.Collection.Samples)
	}
	if c.Collection.Interval.Duration <= 0 {
		return fmt.Errorf("collection interval must be positive")
	}
	switch c.Metrics.Exporter {
	case "", "none", "stdout":
	default:
		return fmt.Errorf("unknown metrics exporter %q", c.Metrics.Exporter)
	}
	switch c.Tracing.Exporter {
	case "", "none", "stdout":
	default:
		return fmt.Errorf("unknown tracing exporter %q", c.Tracing.Exporter)
	}
	return nil
}

func containsPlaceholder(args []string) bool {
	for _, a := range args {
		if strings.Contains(a, "{interval}") {
			return true
		}
	}
	return false
}
