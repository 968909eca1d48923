// Package config loads orderdash settings from defaults, an orderdash.yaml file and
// the environment, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type SourceConfig struct {
	// Path is the workbook to read; glob patterns with ** pick the newest match.
	Path string `yaml:"path"`
}

type LedgerConfig struct {
	// Backend is "file" or "postgres".
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type DatabaseConfig struct {
	URL     string        `yaml:"url"`
	Schema  string        `yaml:"schema"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	// Textfile, when set, receives a Prometheus text dump after each command.
	Textfile string `yaml:"textfile"`
}

func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{Path: "order_status.xlsx"},
		Ledger: LedgerConfig{Backend: BackendFile, Path: "issue_tracker.xlsx"},
		Database: DatabaseConfig{
			Schema:  "order_dashboard",
			Timeout: 12 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source.Path) == "" {
		return fmt.Errorf("source.path is required")
	}
	switch c.Ledger.Backend {
	case BackendFile:
		if strings.TrimSpace(c.Ledger.Path) == "" {
			return fmt.Errorf("ledger.path is required for the file backend")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Database.URL) == "" {
			return fmt.Errorf("database.url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("ledger.backend must be %q or %q, got %q", BackendFile, BackendPostgres, c.Ledger.Backend)
	}
	if c.Database.Timeout < 0 {
		return fmt.Errorf("database.timeout must not be negative")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// LoadFromFile reads a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge copies the non-zero fields of other into c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Source.Path != "" {
		c.Source.Path = other.Source.Path
	}
	if other.Ledger.Backend != "" {
		c.Ledger.Backend = other.Ledger.Backend
	}
	if other.Ledger.Path != "" {
		c.Ledger.Path = other.Ledger.Path
	}
	if other.Database.URL != "" {
		c.Database.URL = other.Database.URL
	}
	if other.Database.Schema != "" {
		c.Database.Schema = other.Database.Schema
	}
	if other.Database.Timeout != 0 {
		c.Database.Timeout = other.Database.Timeout
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
	if other.Metrics.Textfile != "" {
		c.Metrics.Textfile = other.Metrics.Textfile
	}
}
