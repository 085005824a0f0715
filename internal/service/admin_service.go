package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/TWRT/asana-dashboard/internal/models"
)

type DepartmentStore interface {
	Create(ctx context.Context, name string) (*models.Department, error)
	List(ctx context.Context) ([]models.Department, error)
	Delete(ctx context.Context, id string) error
}

type UserRoleStore interface {
	Upsert(ctx context.Context, u models.UserRole) (*models.UserRole, error)
	List(ctx context.Context) ([]models.UserRole, error)
	Delete(ctx context.Context, id string) error
}

// ValidationError marks bad admin input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type AdminService struct {
	departments DepartmentStore
	users       UserRoleStore
}

func NewAdminService(departments DepartmentStore, users UserRoleStore) *AdminService {
	return &AdminService{departments: departments, users: users}
}

func (s *AdminService) CreateDepartment(ctx context.Context, name string) (*models.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "must not be empty"}
	}
	return s.departments.Create(ctx, name)
}

func (s *AdminService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return s.departments.List(ctx)
}

func (s *AdminService) DeleteDepartment(ctx context.Context, id string) error {
	return s.departments.Delete(ctx, id)
}

func (s *AdminService) SaveUser(ctx context.Context, u models.UserRole) (*models.UserRole, error) {
	u.Email = models.NormalizeEmail(u.Email)
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return nil, &ValidationError{Field: "email", Message: "must be an email address"}
	}
	if !u.RoleLevel.Valid() {
		return nil, &ValidationError{Field: "role_level", Message: "must be between 1 and 5"}
	}
	return s.users.Upsert(ctx, u)
}

func (s *AdminService) ListUsers(ctx context.Context) ([]models.UserRole, error) {
	return s.users.List(ctx)
}

func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}
