package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TWRT/asana-dashboard/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgReportCache is a PostgreSQL-backed ReportCache.
type PgReportCache struct {
	pool *pgxpool.Pool
}

func NewPgReportCache(pool *pgxpool.Pool) *PgReportCache {
	return &PgReportCache{pool: pool}
}

// EnsureTable creates the report_cache table if it doesn't exist.
func (s *PgReportCache) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS report_cache (
			id           INTEGER PRIMARY KEY,
			payload      JSONB NOT NULL,
			last_updated TIMESTAMPTZ NOT NULL,
			stored_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

func (s *PgReportCache) Latest(ctx context.Context) (*CachedReport, error) {
	var c CachedReport
	err := s.pool.QueryRow(ctx, `SELECT payload::text, last_updated, stored_at FROM report_cache LIMIT 1`).
		Scan(&c.Payload, &c.LastUpdated, &c.StoredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached report: %w", err)
	}
	return &c, nil
}

func (s *PgReportCache) Replace(ctx context.Context, report *models.Report) error {
	payload, err := report.ToJSON()
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM report_cache`); err != nil {
		return fmt.Errorf("clear cached report: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO report_cache (id, payload, last_updated, stored_at) VALUES (1, $1, $2, $3)`,
		string(payload), report.LastUpdated, time.Now().Truncate(time.Microsecond))
	if err != nil {
		return fmt.Errorf("insert cached report: %w", err)
	}

	return tx.Commit(ctx)
}
