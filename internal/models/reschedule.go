package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RescheduleSettlement records how a reschedule fee is collected.
type RescheduleSettlement string

// SettlementAddedToDebt folds the fee into the student's debt.
const SettlementAddedToDebt RescheduleSettlement = "ADDED_TO_DEBT"

// SessionReschedule links a cancelled session to its compensatory replacement.
type SessionReschedule struct {
	ID                string               `db:"id" json:"id"`
	OriginalSessionID string               `db:"original_session_id" json:"original_session_id"`
	NewSessionID      string               `db:"new_session_id" json:"new_session_id"`
	StudentID         string               `db:"student_id" json:"student_id"`
	ClassID           string               `db:"class_id" json:"class_id"`
	Fee               decimal.Decimal      `db:"fee" json:"fee"`
	Settlement        RescheduleSettlement `db:"settlement" json:"settlement"`
	CreatedAt         time.Time            `db:"created_at" json:"created_at"`
}

// ClassFeeTotal is the sum of reschedule fees a student owes for one class.
type ClassFeeTotal struct {
	ClassID string          `db:"class_id"`
	Total   decimal.Decimal `db:"total"`
}
