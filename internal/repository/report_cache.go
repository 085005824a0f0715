package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/TWRT/asana-dashboard/internal/models"
	"github.com/jmoiron/sqlx"
)

// CachedReport is the raw stored snapshot. Payload is decoded by the caller so
// that a corrupt row can be treated as a miss.
type CachedReport struct {
	Payload     []byte    `db:"payload"`
	LastUpdated time.Time `db:"last_updated"`
	StoredAt    time.Time `db:"stored_at"`
}

// ReportCache holds at most one report snapshot.
type ReportCache interface {
	Latest(ctx context.Context) (*CachedReport, error)
	Replace(ctx context.Context, report *models.Report) error
}

type ReportCacheRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewReportCacheRepository(db *sqlx.DB) *ReportCacheRepository {
	return &ReportCacheRepository{db: db, now: time.Now}
}

func (r *ReportCacheRepository) Latest(ctx context.Context) (*CachedReport, error) {
	var c CachedReport
	err := r.db.GetContext(ctx, &c, `SELECT payload, last_updated, stored_at FROM report_cache LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached report: %w", err)
	}
	return &c, nil
}

// Replace swaps the stored snapshot inside one transaction.
func (r *ReportCacheRepository) Replace(ctx context.Context, report *models.Report) error {
	payload, err := report.ToJSON()
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM report_cache`); err != nil {
		return fmt.Errorf("clear cached report: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO report_cache (id, payload, last_updated, stored_at) VALUES (1, ?, ?, ?)`,
		string(payload), report.LastUpdated.UTC(), r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert cached report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cached report: %w", err)
	}
	return nil
}
