package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/erfannorozi54/Rashed-sub001/internal/dto"
	"github.com/erfannorozi54/Rashed-sub001/internal/models"
	"github.com/erfannorozi54/Rashed-sub001/internal/service"
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
	"github.com/erfannorozi54/Rashed-sub001/pkg/response"
)

type debtService interface {
	GetDebt(ctx context.Context, actor *models.JWTClaims, studentID string) (*dto.DebtSummary, error)
}

type statementService interface {
	DebtStatement(ctx context.Context, actor *models.JWTClaims, studentID, format string) (*service.ExportResult, error)
}

// DebtHandler serves student debt and pricing endpoints.
type DebtHandler struct {
	debts      debtService
	statements statementService
}

// NewDebtHandler constructs DebtHandler.
func NewDebtHandler(debts debtService, statements statementService) *DebtHandler {
	return &DebtHandler{debts: debts, statements: statements}
}

// GetDebt godoc
// @Summary Outstanding debt of a student
// @Tags Billing
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/debt [get]
func (h *DebtHandler) GetDebt(c *gin.Context) {
	summary, err := h.debts.GetDebt(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}

// Statement godoc
// @Summary Download a debt statement
// @Tags Billing
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /students/{id}/debt/statement [get]
func (h *DebtHandler) Statement(c *gin.Context) {
	format := c.DefaultQuery("format", service.StatementFormatCSV)
	result, err := h.statements.DebtStatement(c.Request.Context(), claimsFromContext(c), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Payload)
}

// Pricing godoc
// @Summary Price an enrollment
// @Description Amount is sessionPrice times minSessionsToPay when set, otherwise times totalSessions.
// @Tags Billing
// @Produce json
// @Param sessionPrice query string true "Price of one session"
// @Param minSessionsToPay query int false "Sessions charged up front"
// @Param totalSessions query int true "Active sessions of the class"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /pricing/enrollment [get]
func (h *DebtHandler) Pricing(c *gin.Context) {
	query, err := parsePricingQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	amount := service.PriceEnrollment(query.SessionPrice, query.MinSessionsToPay, query.TotalSessions)
	response.JSON(c, http.StatusOK, dto.PricingResult{Amount: amount})
}

func parsePricingQuery(c *gin.Context) (*dto.PricingQuery, error) {
	price, err := decimal.NewFromString(c.Query("sessionPrice"))
	if err != nil || price.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sessionPrice must be a non-negative number")
	}
	total, err := strconv.Atoi(c.Query("totalSessions"))
	if err != nil || total < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "totalSessions must be a non-negative integer")
	}
	query := &dto.PricingQuery{SessionPrice: price, TotalSessions: total}
	if raw := c.Query("minSessionsToPay"); raw != "" {
		minimum, err := strconv.Atoi(raw)
		if err != nil || minimum < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "minSessionsToPay must be a non-negative integer")
		}
		query.MinSessionsToPay = &minimum
	}
	return query, nil
}
