// Package store persists the issue ledger and product-priority snapshots in Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"

	"github.com/ssungjun83/Order-Dashboard/aggregate"
	"github.com/ssungjun83/Order-Dashboard/filter"
	"github.com/ssungjun83/Order-Dashboard/issues"
	"github.com/ssungjun83/Order-Dashboard/logging"
)

const DefaultSchema = "order_dashboard"

var validSchema = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type Config struct {
	URL     string
	Schema  string
	Timeout time.Duration
}

type Store struct {
	db      *sql.DB
	schema  string
	timeout time.Duration
	log     logrus.FieldLogger
}

var _ issues.Ledger = (*Store)(nil)

// Open connects, pings and creates the schema and tables when missing.
func Open(ctx context.Context, cfg Config, log logrus.FieldLogger) (*Store, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("database URL missing; set ORDERDASH_DB_URL or DATABASE_URL")
	}
	schema, err := sanitizeSchema(cfg.Schema)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, schema: schema, timeout: cfg.Timeout, log: logging.OrDiscard(log)}
	if s.timeout <= 0 {
		s.timeout = 12 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db, schema); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func sanitizeSchema(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("db schema is required")
	}
	if !validSchema.MatchString(value) {
		return "", fmt.Errorf("invalid schema name: %s", value)
	}
	return value, nil
}

// Load reads the ledger in saved order.
func (s *Store) Load(ctx context.Context) ([]issues.Resolution, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT issue_key, resolved, closed_date, raised_date
		FROM %s.issue_ledger
		ORDER BY position`, s.schema))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []issues.Resolution
	for rows.Next() {
		var r issues.Resolution
		var closed, raised sql.NullTime
		if err := rows.Scan(&r.Key, &r.Resolved, &closed, &raised); err != nil {
			return nil, err
		}
		r.Closed = timeOrZero(closed)
		r.Raised = timeOrZero(raised)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Save replaces the ledger in one transaction.
func (s *Store) Save(ctx context.Context, entries []issues.Resolution) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s.issue_ledger`, s.schema)); err != nil {
		return err
	}
	insertSQL := fmt.Sprintf(`
		INSERT INTO %s.issue_ledger (
			issue_key, position, resolved, closed_date, raised_date, key_version
		) VALUES ($1,$2,$3,$4,$5,$6)`, s.schema)
	for i, r := range entries {
		_, err = tx.ExecContext(ctx, insertSQL,
			r.Key,
			i,
			r.Resolved,
			nullDate(r.Closed),
			nullDate(r.Raised),
			issues.KeyVersion,
		)
		if err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"schema": s.schema, "entries": len(entries)}).Info("ledger stored")
	return nil
}

// PriorityRun is one ranking snapshot with the selection that produced it.
type PriorityRun struct {
	Tag     string
	Period  *filter.Period
	Query   string
	Facets  []filter.Facet
	Ranking []aggregate.Priority
}

// SavePriorityRun stores a ranking snapshot and returns its run id.
func (s *Store) SavePriorityRun(ctx context.Context, run PriorityRun) (runID string, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	facets := map[string][]string{}
	for _, f := range run.Facets {
		facets[f.Column] = f.Allowed
	}
	facetJSON, err := json.Marshal(facets)
	if err != nil {
		return "", err
	}
	var start, end sql.NullTime
	if run.Period != nil {
		start = nullDate(run.Period.Start)
		end = nullDate(run.Period.End)
	}
	totalQty := 0.0
	for _, p := range run.Ranking {
		totalQty += p.TotalQty
	}

	id := uuid.New()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.priority_runs (
			id, period_start, period_end, search_query, facets,
			product_count, total_qty, run_tag
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, s.schema),
		id,
		start,
		end,
		nullString(run.Query),
		string(facetJSON),
		len(run.Ranking),
		totalQty,
		nullString(run.Tag),
	)
	if err != nil {
		return "", err
	}

	insertSQL := fmt.Sprintf(`
		INSERT INTO %s.priority_rows (
			id, run_id, rank, product, avg_demand, total_qty, po_count, streak, share
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`, s.schema)
	for _, p := range run.Ranking {
		avg := sql.NullFloat64{Float64: p.AvgDemand, Valid: p.HasAvgDemand()}
		_, err = tx.ExecContext(ctx, insertSQL,
			uuid.New(),
			id,
			p.Rank,
			p.Product,
			avg,
			p.TotalQty,
			p.POCount,
			p.Streak,
			p.Share,
		)
		if err != nil {
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id.String(), nil
}

func ensureSchema(ctx context.Context, db *sql.DB, schema string) error {
	statements := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.issue_ledger (
			issue_key text PRIMARY KEY,
			position integer NOT NULL,
			resolved boolean NOT NULL DEFAULT false,
			closed_date date,
			raised_date date,
			key_version integer NOT NULL DEFAULT 1,
			updated_at timestamptz NOT NULL DEFAULT now()
		)`, schema),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.priority_runs (
			id uuid PRIMARY KEY,
			period_start date,
			period_end date,
			search_query text,
			facets jsonb NOT NULL DEFAULT '{}'::jsonb,
			product_count integer NOT NULL,
			total_qty numeric(18,2) NOT NULL,
			run_tag text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.priority_rows (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.priority_runs(id) ON DELETE CASCADE,
			rank integer NOT NULL,
			product text NOT NULL,
			avg_demand numeric(18,2),
			total_qty numeric(18,2) NOT NULL,
			po_count integer NOT NULL,
			streak integer NOT NULL,
			share numeric(7,3) NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_priority_rows_run_idx ON %s.priority_rows (run_id)`, schema, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_issue_ledger_resolved_idx ON %s.issue_ledger (resolved)`, schema, schema),
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func nullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullDate(value time.Time) sql.NullTime {
	if value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: dateOnly(value), Valid: true}
}

func timeOrZero(value sql.NullTime) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	return dateOnly(value.Time)
}

func dateOnly(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
