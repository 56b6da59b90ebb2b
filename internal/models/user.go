package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

// User represents an application user stored in the users table.
// Credentials live with the identity provider; only the profile needed by the engine is kept here.
type User struct {
	ID           string           `db:"id" json:"id"`
	FullName     string           `db:"full_name" json:"full_name"`
	Role         UserRole         `db:"role" json:"role"`
	MaxDebtLimit *decimal.Decimal `db:"max_debt_limit" json:"max_debt_limit,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}

// DebtLimit returns the user's own limit or fallback when none is stored.
func (u *User) DebtLimit(fallback decimal.Decimal) decimal.Decimal {
	if u == nil || u.MaxDebtLimit == nil {
		return fallback
	}
	return *u.MaxDebtLimit
}
