package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ssungjun83/Order-Dashboard/logging"
)

const (
	ProjectConfigFile = "orderdash.yaml"
	EnvFile           = ".env"
)

// Environment variables read by the loader.
const (
	EnvSource        = "ORDERDASH_SOURCE"
	EnvLedger        = "ORDERDASH_LEDGER"
	EnvLedgerBackend = "ORDERDASH_LEDGER_BACKEND"
	EnvDBURL         = "ORDERDASH_DB_URL"
	EnvDBURLFallback = "DATABASE_URL"
	EnvDBSchema      = "ORDERDASH_DB_SCHEMA"
	EnvDBTimeout     = "ORDERDASH_DB_TIMEOUT"
	EnvLogLevel      = "ORDERDASH_LOG_LEVEL"
	EnvLogFormat     = "ORDERDASH_LOG_FORMAT"
	EnvMetricsFile   = "ORDERDASH_METRICS_FILE"
)

// Loader layers defaults, the project file and the environment.
type Loader struct {
	// Dir is where the search for orderdash.yaml and .env starts; empty means the working
	// directory.
	Dir string
	// File, when set, is used instead of searching for orderdash.yaml.
	File string

	log    logrus.FieldLogger
	getenv func(string) string
}

func NewLoader(log logrus.FieldLogger) *Loader {
	return &Loader{log: logging.OrDiscard(log), getenv: os.Getenv}
}

// Load resolves the configuration:
// 1. defaults
// 2. orderdash.yaml in Dir or a parent directory (or File)
// 3. .env in Dir, without overriding variables already set
// 4. ORDERDASH_* environment variables
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	path := l.File
	if path == "" {
		path = l.findProjectConfig()
	}
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			if l.File != "" {
				return nil, err
			}
			l.log.WithError(err).WithField("path", path).Warn("Failed to load project config")
		} else {
			l.log.WithField("path", path).Debug("Loaded project config")
			cfg.Merge(fileCfg)
		}
	}

	envPath := filepath.Join(l.dir(), EnvFile)
	if err := godotenv.Load(envPath); err == nil {
		l.log.WithField("path", envPath).Debug("Loaded env file")
	} else if !errors.Is(err, os.ErrNotExist) {
		l.log.WithError(err).WithField("path", envPath).Warn("Failed to load env file")
	}

	l.applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) applyEnv(cfg *Config) {
	set := func(name string, target *string) {
		if value := strings.TrimSpace(l.getenv(name)); value != "" {
			*target = value
		}
	}
	set(EnvSource, &cfg.Source.Path)
	set(EnvLedger, &cfg.Ledger.Path)
	set(EnvLedgerBackend, &cfg.Ledger.Backend)
	set(EnvDBURLFallback, &cfg.Database.URL)
	set(EnvDBURL, &cfg.Database.URL)
	set(EnvDBSchema, &cfg.Database.Schema)
	set(EnvLogLevel, &cfg.Log.Level)
	set(EnvLogFormat, &cfg.Log.Format)
	set(EnvMetricsFile, &cfg.Metrics.Textfile)

	if value := strings.TrimSpace(l.getenv(EnvDBTimeout)); value != "" {
		if timeout, err := time.ParseDuration(value); err == nil {
			cfg.Database.Timeout = timeout
		} else {
			l.log.WithField("value", value).Warn("Ignoring invalid " + EnvDBTimeout)
		}
	}
	cfg.Ledger.Backend = strings.ToLower(cfg.Ledger.Backend)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
}

func (l *Loader) dir() string {
	if l.Dir != "" {
		return l.Dir
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// findProjectConfig searches for orderdash.yaml in Dir and its parents.
func (l *Loader) findProjectConfig() string {
	dir, err := filepath.Abs(l.dir())
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
