package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/erfannorozi54/Rashed-sub001/internal/dto"
	"github.com/erfannorozi54/Rashed-sub001/internal/models"
	"github.com/erfannorozi54/Rashed-sub001/pkg/response"
)

type enrollmentService interface {
	Quote(ctx context.Context, classID string) (decimal.Decimal, error)
	JoinClass(ctx context.Context, actor *models.JWTClaims, classID string) (*dto.JoinClassResult, error)
	Withdraw(ctx context.Context, actor *models.JWTClaims, classID string) error
}

// EnrollmentHandler exposes class enrollment endpoints.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(service enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

// Quote godoc
// @Summary Price of joining a class
// @Tags Enrollment
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/quote [get]
func (h *EnrollmentHandler) Quote(c *gin.Context) {
	amount, err := h.service.Quote(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.PricingResult{Amount: amount})
}

// Join godoc
// @Summary Join a class
// @Tags Enrollment
// @Produce json
// @Param id path string true "Class ID"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /classes/{id}/enroll [post]
func (h *EnrollmentHandler) Join(c *gin.Context) {
	result, err := h.service.JoinClass(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Withdraw godoc
// @Summary Leave a class
// @Tags Enrollment
// @Param id path string true "Class ID"
// @Success 204
// @Router /classes/{id}/enroll [delete]
func (h *EnrollmentHandler) Withdraw(c *gin.Context) {
	if err := h.service.Withdraw(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
