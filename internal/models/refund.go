package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RefundStatus is the review state of a refund request.
type RefundStatus string

const (
	RefundStatusPending  RefundStatus = "PENDING"
	RefundStatusApproved RefundStatus = "APPROVED"
	RefundStatusRejected RefundStatus = "REJECTED"
)

// RefundRequest asks for part or all of a successful payment back.
type RefundRequest struct {
	ID          string          `db:"id" json:"id"`
	PaymentID   string          `db:"payment_id" json:"payment_id"`
	StudentID   string          `db:"student_id" json:"student_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Reason      string          `db:"reason" json:"reason"`
	Status      RefundStatus    `db:"status" json:"status"`
	ProcessedBy *string         `db:"processed_by" json:"processed_by,omitempty"`
	ProcessedAt *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
