package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus tracks the gateway outcome of a charge.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Payment is a charge towards a class enrollment.
type Payment struct {
	ID           string          `db:"id" json:"id"`
	StudentID    string          `db:"student_id" json:"student_id"`
	ClassID      string          `db:"class_id" json:"class_id"`
	EnrollmentID *string         `db:"enrollment_id" json:"enrollment_id,omitempty"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Status       PaymentStatus   `db:"status" json:"status"`
	PaidAt       *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
