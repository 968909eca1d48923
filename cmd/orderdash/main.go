// Package main provides the orderdash binary: order-status summaries, product priority
// rankings, xlsx exports and the production issue ledger over one source workbook.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssungjun83/Order-Dashboard/config"
	"github.com/ssungjun83/Order-Dashboard/issues"
	"github.com/ssungjun83/Order-Dashboard/logging"
	"github.com/ssungjun83/Order-Dashboard/metrics"
	"github.com/ssungjun83/Order-Dashboard/source"
	"github.com/ssungjun83/Order-Dashboard/store"
)

const (
	Version   = "0.3.0"
	BuildTime = "dev"
	appName   = "orderdash"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		exitWithError(err)
	}
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

type rootOptions struct {
	configPath    string
	sourcePath    string
	ledgerPath    string
	ledgerBackend string
	logLevel      string
	logFormat     string
	metricsFile   string
	today         string
}

// app is the state shared by every command of one invocation.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	metrics *metrics.Metrics
	cache   *source.Cache
	today   time.Time
}

func rootCmd() *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Order status dashboard pipeline",
		Long: `orderdash reads the order-status workbook, filters and searches its detail
tables, and prints or exports yearly summaries, product priority rankings and the
production issue ledger.

Settings come from orderdash.yaml (searched upwards from the working directory),
.env and ORDERDASH_* environment variables; flags override all of them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.init(cmd, opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg == nil || a.cfg.Metrics.Textfile == "" {
				return nil
			}
			if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML); default searches for "+config.ProjectConfigFile)
	flags.StringVar(&opts.sourcePath, "source", "", "Source workbook path or ** glob (newest match wins)")
	flags.StringVar(&opts.ledgerPath, "ledger", "", "Issue ledger workbook path")
	flags.StringVar(&opts.ledgerBackend, "ledger-backend", "", "Issue ledger backend (file, postgres)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format (text, json)")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the command")
	flags.StringVar(&opts.today, "today", "", "Reference date YYYY-MM-DD for default periods and closed dates (default today)")

	cmd.AddCommand(
		summaryCmd(a),
		priorityCmd(a),
		exportCmd(a),
		choicesCmd(a),
		issuesCmd(a),
		watchCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command, opts *rootOptions) error {
	loader := config.NewLoader(nil)
	loader.File = opts.configPath
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	override := func(value string, target *string) {
		if strings.TrimSpace(value) != "" {
			*target = value
		}
	}
	override(opts.sourcePath, &cfg.Source.Path)
	override(opts.ledgerPath, &cfg.Ledger.Path)
	override(strings.ToLower(opts.ledgerBackend), &cfg.Ledger.Backend)
	override(opts.logLevel, &cfg.Log.Level)
	override(strings.ToLower(opts.logFormat), &cfg.Log.Format)
	override(opts.metricsFile, &cfg.Metrics.Textfile)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	today := time.Now()
	if opts.today != "" {
		today, err = time.Parse("2006-01-02", opts.today)
		if err != nil {
			return fmt.Errorf("invalid --today %q: want YYYY-MM-DD", opts.today)
		}
	}

	a.cfg = cfg
	a.log = log
	a.metrics = metrics.New()
	a.cache = source.NewCache(log, a.metrics)
	a.today = today
	return nil
}

// sourcePath resolves the configured source, expanding globs.
func (a *app) sourcePath() (string, error) {
	return source.Resolve(a.cfg.Source.Path)
}

// workbook loads the source through the cache and reports the resolved path.
func (a *app) workbook() (string, *source.Workbook, error) {
	path, err := a.sourcePath()
	if err != nil {
		return "", nil, err
	}
	wb, err := a.cache.LoadPath(path)
	if err != nil {
		return "", nil, fmt.Errorf("load %s: %w", path, err)
	}
	return path, wb, nil
}

// ledger opens the configured issue ledger. The returned close func is never nil.
func (a *app) ledger(ctx context.Context) (issues.Ledger, func(), error) {
	if a.cfg.Ledger.Backend == config.BackendPostgres {
		s, err := a.openStore(ctx)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
	return issues.NewFileLedger(a.cfg.Ledger.Path, a.log), func() {}, nil
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	s, err := store.Open(ctx, store.Config{
		URL:     a.cfg.Database.URL,
		Schema:  a.cfg.Database.Schema,
		Timeout: a.cfg.Database.Timeout,
	}, a.log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
