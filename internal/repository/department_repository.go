package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/TWRT/asana-dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type DepartmentRepository struct {
	db *sqlx.DB
}

func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) Create(ctx context.Context, name string) (*models.Department, error) {
	d := &models.Department{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO departments (id, name, created_at) VALUES (:id, :name, :created_at)`, d)
	if err != nil {
		return nil, fmt.Errorf("create department %q: %w", name, err)
	}
	return d, nil
}

func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	departments := []models.Department{}
	if err := r.db.SelectContext(ctx, &departments, `SELECT id, name, created_at FROM departments ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete department %s: %w", id, err)
	}
	return requireAffected(res, "department", id)
}
