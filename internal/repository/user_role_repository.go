package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/TWRT/asana-dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const userRoleColumns = `id, email, name, role_level, COALESCE(department_id, '') AS department_id, created_at, updated_at`

type UserRoleRepository struct {
	db *sqlx.DB
}

func NewUserRoleRepository(db *sqlx.DB) *UserRoleRepository {
	return &UserRoleRepository{db: db}
}

// Upsert creates the role for u.Email or updates the existing one in place.
func (r *UserRoleRepository) Upsert(ctx context.Context, u models.UserRole) (*models.UserRole, error) {
	u.Email = models.NormalizeEmail(u.Email)
	now := time.Now().UTC().Truncate(time.Second)

	existing, err := r.GetByEmail(ctx, u.Email)
	switch {
	case errors.Is(err, ErrNotFound):
		u.ID = uuid.NewString()
		u.CreatedAt = now
	case err != nil:
		return nil, err
	default:
		u.ID = existing.ID
		u.CreatedAt = existing.CreatedAt
	}
	u.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_roles (id, email, name, role_level, department_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			name = excluded.name,
			role_level = excluded.role_level,
			department_id = excluded.department_id,
			updated_at = excluded.updated_at`,
		u.ID, u.Email, u.Name, int(u.RoleLevel), nilIfEmpty(u.DepartmentID), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("save user role %s: %w", u.Email, err)
	}
	return &u, nil
}

func (r *UserRoleRepository) GetByEmail(ctx context.Context, email string) (*models.UserRole, error) {
	var u models.UserRole
	err := r.db.GetContext(ctx, &u, `SELECT `+userRoleColumns+` FROM user_roles WHERE email = ?`, models.NormalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user role %s: %w", email, err)
	}
	return &u, nil
}

func (r *UserRoleRepository) List(ctx context.Context) ([]models.UserRole, error) {
	users := []models.UserRole{}
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userRoleColumns+` FROM user_roles ORDER BY email`); err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	return users, nil
}

func (r *UserRoleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_roles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user role %s: %w", id, err)
	}
	return requireAffected(res, "user role", id)
}

// GetRoleInfo resolves the caller's role and the emails they may view.
// Directors and admins see every known email, managers and deputy directors
// see their department at or below their own level, everyone else sees
// only themselves.
func (r *UserRoleRepository) GetRoleInfo(ctx context.Context, email string) (*models.UserRoleInfo, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	info := &models.UserRoleInfo{
		Email:        u.Email,
		RoleLevel:    u.RoleLevel,
		RoleName:     u.RoleLevel.String(),
		DepartmentID: u.DepartmentID,
	}

	emails := []string{}
	switch {
	case u.RoleLevel.SeesEveryone():
		err = r.db.SelectContext(ctx, &emails, `SELECT email FROM user_roles ORDER BY email`)
	case u.RoleLevel == models.RoleManager || u.RoleLevel == models.RoleDeputyDirector:
		if u.DepartmentID == "" {
			emails = []string{u.Email}
			break
		}
		err = r.db.SelectContext(ctx, &emails,
			`SELECT email FROM user_roles WHERE department_id = ? AND role_level <= ? ORDER BY email`,
			u.DepartmentID, int(u.RoleLevel))
	default:
		emails = []string{u.Email}
	}
	if err != nil {
		return nil, fmt.Errorf("list viewable emails for %s: %w", u.Email, err)
	}

	info.CanViewEmails = emails
	return info, nil
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
