package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/DGFellow/product-research-agent/models"
)

// Store persists research runs and their records in Postgres. It is
// optional infrastructure: the agent itself never touches it, the CLI and
// server layers decide whether history is kept.
type Store struct {
	DB *sql.DB
}

// Run is one persisted research run.
type Run struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	RecordCount int       `json:"record_count"`
	Summary     string    `json:"summary,omitempty"`
}

const schema = `
CREATE TABLE IF NOT EXISTS research_runs (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ NOT NULL,
	record_count INTEGER NOT NULL DEFAULT 0,
	summary TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS product_records (
	id BIGSERIAL PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES research_runs(id) ON DELETE CASCADE,
	source TEXT NOT NULL,
	title TEXT NOT NULL,
	price_display TEXT NOT NULL,
	price_numeric DOUBLE PRECISION,
	url TEXT NOT NULL DEFAULT '',
	moq TEXT NOT NULL DEFAULT '',
	seller_name TEXT NOT NULL DEFAULT '',
	seller_tenure TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	scraped_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_product_records_run ON product_records(run_id);
`

// Open connects to Postgres and bootstraps the schema. The DDL is
// idempotent, so repeated opens are safe.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrapping schema: %w", err)
	}
	return &Store{DB: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.DB.Close() }

// SaveRun persists a run and its records in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run, records []models.ProductRecord) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO research_runs (id, query, started_at, completed_at, record_count, summary)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.Query, run.StartedAt, run.CompletedAt, len(records), run.Summary)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for _, rec := range records {
		var numeric sql.NullFloat64
		if rec.PriceNumeric != nil {
			numeric = sql.NullFloat64{Float64: *rec.PriceNumeric, Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO product_records
			 (run_id, source, title, price_display, price_numeric, url, moq, seller_name, seller_tenure, category, description, scraped_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			run.ID, rec.Source, rec.Title, rec.PriceDisplay, numeric, rec.URL,
			rec.MOQ, rec.SellerName, rec.SellerTenure, rec.Category, rec.Description, rec.ScrapedAt)
		if err != nil {
			return fmt.Errorf("inserting record: %w", err)
		}
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, query, started_at, completed_at, record_count, summary
		 FROM research_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Query, &r.StartedAt, &r.CompletedAt, &r.RecordCount, &r.Summary); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RecordsByRun returns one run's records in insertion (DOM) order.
func (s *Store) RecordsByRun(ctx context.Context, runID string) ([]models.ProductRecord, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT source, title, price_display, price_numeric, url, moq, seller_name, seller_tenure, category, description, scraped_at
		 FROM product_records WHERE run_id = $1 ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []models.ProductRecord
	for rows.Next() {
		var rec models.ProductRecord
		var numeric sql.NullFloat64
		if err := rows.Scan(&rec.Source, &rec.Title, &rec.PriceDisplay, &numeric, &rec.URL,
			&rec.MOQ, &rec.SellerName, &rec.SellerTenure, &rec.Category, &rec.Description, &rec.ScrapedAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if numeric.Valid {
			v := numeric.Float64
			rec.PriceNumeric = &v
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
