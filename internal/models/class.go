package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClassType distinguishes public classes from privately arranged ones.
type ClassType string

const (
	ClassTypePublic  ClassType = "PUBLIC"
	ClassTypePrivate ClassType = "PRIVATE"
)

// Class is a course offering with per-session pricing.
type Class struct {
	ID               string          `db:"id" json:"id"`
	Title            string          `db:"title" json:"title"`
	SessionPrice     decimal.Decimal `db:"session_price" json:"session_price"`
	MinSessionsToPay *int            `db:"min_sessions_to_pay" json:"min_sessions_to_pay,omitempty"`
	MaxCapacity      *int            `db:"max_capacity" json:"max_capacity,omitempty"`
	SessionDuration  int             `db:"session_duration" json:"session_duration"`
	ClassType        ClassType       `db:"class_type" json:"class_type"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// ClassTeacher is a teaching assignment. The earliest assignment is the class's primary teacher.
type ClassTeacher struct {
	ClassID   string    `db:"class_id" json:"class_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
