package models

import (
	"strings"
	"time"
)

// RoleLevel orders organizational roles from least to most privileged.
type RoleLevel int

const (
	RoleOperational RoleLevel = iota + 1
	RoleManager
	RoleDeputyDirector
	RoleDirector
	RoleAdmin
)

func (l RoleLevel) String() string {
	switch l {
	case RoleOperational:
		return "OPERATIONAL"
	case RoleManager:
		return "MANAGER"
	case RoleDeputyDirector:
		return "DEPUTY_DIRECTOR"
	case RoleDirector:
		return "DIRECTOR"
	case RoleAdmin:
		return "ADMIN"
	default:
		return "UNKNOWN"
	}
}

func (l RoleLevel) Valid() bool {
	return l >= RoleOperational && l <= RoleAdmin
}

// SeesEveryone is true for directors and admins, who bypass email filtering.
func (l RoleLevel) SeesEveryone() bool {
	return l >= RoleDirector
}

// UserRoleInfo describes what a caller may see. CanViewEmails is computed by
// the role repository and consumed as an opaque allow-list.
type UserRoleInfo struct {
	Email         string    `json:"email"`
	RoleLevel     RoleLevel `json:"role_level"`
	RoleName      string    `json:"role_name"`
	DepartmentID  string    `json:"department_id"`
	CanViewEmails []string  `json:"can_view_emails"`
}

type Department struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserRole binds a dashboard user, identified by email, to a role and department.
type UserRole struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	RoleLevel    RoleLevel `json:"role_level" db:"role_level"`
	DepartmentID string    `json:"department_id" db:"department_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NormalizeEmail lower-cases and trims an address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
