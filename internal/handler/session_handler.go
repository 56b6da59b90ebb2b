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

type sessionService interface {
	CreateSession(ctx context.Context, actor *models.JWTClaims, classID string, req dto.CreateSessionRequest) (*models.ClassSessionEvent, error)
	CancelSession(ctx context.Context, actor *models.JWTClaims, sessionID string) (*models.ClassSessionEvent, error)
}

type rescheduleService interface {
	RequestReschedule(ctx context.Context, actor *models.JWTClaims, sessionID string, req dto.RescheduleRequest) (*dto.RescheduleResult, error)
}

// SessionHandler manages class sessions and their reschedules.
type SessionHandler struct {
	sessions    sessionService
	reschedules rescheduleService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(sessions sessionService, reschedules rescheduleService) *SessionHandler {
	return &SessionHandler{sessions: sessions, reschedules: reschedules}
}

// Create godoc
// @Summary Schedule a class session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.CreateSessionRequest true "Session"
// @Success 201 {object} response.Envelope
// @Router /classes/{id}/sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.sessions.CreateSession(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Cancel godoc
// @Summary Cancel a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/cancel [post]
func (h *SessionHandler) Cancel(c *gin.Context) {
	session, err := h.sessions.CancelSession(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session)
}

// Reschedule godoc
// @Summary Move a one-on-one session
// @Description Returns 200 with the new session, or 402 with requiresPayment when the fee would exceed the debt limit.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.RescheduleRequest true "New start time"
// @Success 200 {object} response.Envelope
// @Failure 402 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /sessions/{id}/reschedule [post]
func (h *SessionHandler) Reschedule(c *gin.Context) {
	var req dto.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.reschedules.RequestReschedule(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.RequiresPayment {
		status = http.StatusPaymentRequired
	}
	response.JSON(c, status, result)
}
