package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		EnvSource, EnvLedger, EnvLedgerBackend, EnvDBURL, EnvDBURLFallback, EnvDBSchema,
		EnvDBTimeout, EnvLogLevel, EnvLogFormat, EnvMetricsFile,
	} {
		t.Setenv(name, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Ledger.Backend != BackendFile {
		t.Errorf("expected file backend by default, got %s", cfg.Ledger.Backend)
	}
	if cfg.Ledger.Path != "issue_tracker.xlsx" {
		t.Errorf("expected issue_tracker.xlsx, got %s", cfg.Ledger.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"missing source", func(c *Config) { c.Source.Path = " " }, true},
		{"unknown backend", func(c *Config) { c.Ledger.Backend = "redis" }, true},
		{"postgres without url", func(c *Config) { c.Ledger.Backend = BackendPostgres }, true},
		{"postgres with url", func(c *Config) {
			c.Ledger.Backend = BackendPostgres
			c.Database.URL = "postgres://localhost/orders"
		}, false},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ProjectConfigFile)
	cfg := DefaultConfig()
	cfg.Source.Path = "data/**/*.xlsx"
	cfg.Database.Timeout = 3 * time.Second
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if loaded.Source.Path != cfg.Source.Path || loaded.Database.Timeout != cfg.Database.Timeout {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestLoaderFindsParentConfig(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	child := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(child, 0755); err != nil {
		t.Fatal(err)
	}
	yaml := "source:\n  path: orders/2024.xlsx\nlog:\n  level: debug\n"
	if err := os.WriteFile(filepath.Join(root, ProjectConfigFile), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(nil)
	loader.Dir = child
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.Path != "orders/2024.xlsx" {
		t.Errorf("expected file source, got %s", cfg.Source.Path)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Log.Level)
	}
	if cfg.Ledger.Path != "issue_tracker.xlsx" {
		t.Errorf("expected default ledger path to survive merge, got %s", cfg.Ledger.Path)
	}
}

func TestEnvironmentWins(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ProjectConfigFile), []byte("source:\n  path: from-file.xlsx\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvSource, "from-env.xlsx")
	t.Setenv(EnvDBURLFallback, "postgres://fallback")
	t.Setenv(EnvDBTimeout, "30s")
	t.Setenv(EnvLogFormat, "JSON")

	loader := NewLoader(nil)
	loader.Dir = dir
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.Path != "from-env.xlsx" {
		t.Errorf("expected env source, got %s", cfg.Source.Path)
	}
	if cfg.Database.URL != "postgres://fallback" {
		t.Errorf("expected DATABASE_URL fallback, got %s", cfg.Database.URL)
	}
	if cfg.Database.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %s", cfg.Database.Timeout)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected json format, got %s", cfg.Log.Format)
	}

	t.Setenv(EnvDBURL, "postgres://primary")
	cfg, err = loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.URL != "postgres://primary" {
		t.Errorf("expected ORDERDASH_DB_URL to win, got %s", cfg.Database.URL)
	}
}

func TestDotEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, EnvFile), []byte(EnvLedger+"=ledgers/shared.xlsx\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// godotenv only fills variables that are unset.
	os.Unsetenv(EnvLedger)
	t.Cleanup(func() { os.Unsetenv(EnvLedger) })

	loader := NewLoader(nil)
	loader.Dir = dir
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ledger.Path != "ledgers/shared.xlsx" {
		t.Errorf("expected ledger from .env, got %s", cfg.Ledger.Path)
	}
}

func TestExplicitFileMustExist(t *testing.T) {
	clearEnv(t)
	loader := NewLoader(nil)
	loader.Dir = t.TempDir()
	loader.File = filepath.Join(loader.Dir, "missing.yaml")
	if _, err := loader.Load(); err == nil {
		t.Errorf("expected error for missing explicit config file")
	}
}
