package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusPendingPayment EnrollmentStatus = "PENDING_PAYMENT"
	EnrollmentStatusEnrolled       EnrollmentStatus = "ENROLLED"
)

// Enrollment captures a student's registration to a class.
type Enrollment struct {
	ID         string           `db:"id" json:"id"`
	ClassID    string           `db:"class_id" json:"class_id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	Status     EnrollmentStatus `db:"status" json:"status"`
	PaidAmount decimal.Decimal  `db:"paid_amount" json:"paid_amount"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentBilling joins an enrollment with the pricing fields of its class.
type EnrollmentBilling struct {
	Enrollment
	ClassTitle   string          `db:"class_title" json:"class_title"`
	SessionPrice decimal.Decimal `db:"session_price" json:"session_price"`
}
