package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erfannorozi54/Rashed-sub001/internal/dto"
	"github.com/erfannorozi54/Rashed-sub001/internal/models"
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
	"github.com/erfannorozi54/Rashed-sub001/pkg/response"
)

type paymentService interface {
	CreatePayment(ctx context.Context, actor *models.JWTClaims, req dto.CreatePaymentRequest) (*models.Payment, error)
	SettlePayment(ctx context.Context, paymentID string, success bool) (*models.Payment, error)
}

type refundService interface {
	RequestRefund(ctx context.Context, actor *models.JWTClaims, req dto.CreateRefundRequest) (*models.RefundRequest, error)
	ApproveRefund(ctx context.Context, actor *models.JWTClaims, id string) (*models.RefundRequest, error)
	RejectRefund(ctx context.Context, actor *models.JWTClaims, id string) (*models.RefundRequest, error)
}

// BillingHandler exposes payments and refunds.
type BillingHandler struct {
	payments paymentService
	refunds  refundService
}

// NewBillingHandler constructs BillingHandler.
func NewBillingHandler(payments paymentService, refunds refundService) *BillingHandler {
	return &BillingHandler{payments: payments, refunds: refunds}
}

// CreatePayment godoc
// @Summary Start a payment towards an enrollment
// @Tags Billing
// @Accept json
// @Produce json
// @Param payload body dto.CreatePaymentRequest true "Payment"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payments [post]
func (h *BillingHandler) CreatePayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.payments.CreatePayment(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// SettlePayment godoc
// @Summary Record the gateway outcome of a payment
// @Tags Billing
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param payload body dto.SettlePaymentRequest true "Outcome"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payments/{id}/settle [post]
func (h *BillingHandler) SettlePayment(c *gin.Context) {
	var req dto.SettlePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Success == nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.payments.SettlePayment(c.Request.Context(), c.Param("id"), *req.Success)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment)
}

// RequestRefund godoc
// @Summary Request a refund of a successful payment
// @Tags Billing
// @Accept json
// @Produce json
// @Param payload body dto.CreateRefundRequest true "Refund"
// @Success 201 {object} response.Envelope
// @Router /refunds [post]
func (h *BillingHandler) RequestRefund(c *gin.Context) {
	var req dto.CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	refund, err := h.refunds.RequestRefund(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, refund)
}

// ApproveRefund godoc
// @Summary Approve a pending refund
// @Tags Billing
// @Produce json
// @Param id path string true "Refund ID"
// @Success 200 {object} response.Envelope
// @Router /refunds/{id}/approve [post]
func (h *BillingHandler) ApproveRefund(c *gin.Context) {
	refund, err := h.refunds.ApproveRefund(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, refund)
}

// RejectRefund godoc
// @Summary Reject a pending refund
// @Tags Billing
// @Produce json
// @Param id path string true "Refund ID"
// @Success 200 {object} response.Envelope
// @Router /refunds/{id}/reject [post]
func (h *BillingHandler) RejectRefund(c *gin.Context) {
	refund, err := h.refunds.RejectRefund(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, refund)
}
