package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/erfannorozi54/Rashed-sub001/internal/models"
)

// CreateSessionRequest schedules a regular session for a class.
type CreateSessionRequest struct {
	Date        time.Time `json:"date" validate:"required"`
	Title       string    `json:"title" validate:"max=200"`
	Description string    `json:"description"`
}

// RescheduleRequest moves a session to a new start time.
type RescheduleRequest struct {
	NewDate time.Time `json:"newDate" validate:"required"`
}

// RescheduleResult is either a committed move or a request to pay first.
type RescheduleResult struct {
	Success         bool                      `json:"success"`
	RequiresPayment bool                      `json:"requiresPayment"`
	Fee             decimal.Decimal           `json:"fee"`
	NewSession      *models.ClassSessionEvent `json:"newSession,omitempty"`
}
