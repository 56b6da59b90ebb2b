package dto

import (
	"github.com/shopspring/decimal"

	"github.com/erfannorozi54/Rashed-sub001/internal/models"
)

// JoinClassResult returns the enrollment and, when payment is due, the pending payment.
type JoinClassResult struct {
	Enrollment models.Enrollment `json:"enrollment"`
	Payment    *models.Payment   `json:"payment,omitempty"`
	Amount     decimal.Decimal   `json:"amount"`
}

// CreatePaymentRequest starts a charge towards an enrollment.
type CreatePaymentRequest struct {
	ClassID string          `json:"classId" validate:"required"`
	Amount  decimal.Decimal `json:"amount"`
}

// SettlePaymentRequest carries the gateway outcome for a pending payment.
type SettlePaymentRequest struct {
	Success *bool `json:"success" validate:"required"`
}

// CreateRefundRequest asks for money back from a successful payment.
type CreateRefundRequest struct {
	PaymentID string          `json:"paymentId" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason" validate:"max=1000"`
}
