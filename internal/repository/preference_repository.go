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

// PreferenceRepository remembers the last person each user looked at.
type PreferenceRepository struct {
	db *sqlx.DB
}

func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

func (r *PreferenceRepository) GetLastSelected(ctx context.Context, email string) (string, error) {
	var gid string
	err := r.db.GetContext(ctx, &gid,
		`SELECT last_selected_gid FROM user_preferences WHERE email = ?`, models.NormalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get last selected for %s: %w", email, err)
	}
	return gid, nil
}

func (r *PreferenceRepository) SetLastSelected(ctx context.Context, email, gid string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_preferences (email, last_selected_gid, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET last_selected_gid = excluded.last_selected_gid, updated_at = excluded.updated_at`,
		models.NormalizeEmail(email), gid, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set last selected for %s: %w", email, err)
	}
	return nil
}
