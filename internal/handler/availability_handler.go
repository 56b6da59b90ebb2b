package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/erfannorozi54/Rashed-sub001/internal/dto"
	"github.com/erfannorozi54/Rashed-sub001/internal/models"
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
	"github.com/erfannorozi54/Rashed-sub001/pkg/response"
)

type availabilityService interface {
	Location() *time.Location
	ResolveFreeSlots(ctx context.Context, teacherID string, date time.Time, duration int) ([]dto.FreeSlot, error)
	ResolveWeeklySchedule(ctx context.Context, teacherID string, from time.Time) (*dto.WeeklySchedule, error)
	ExportWeeklySchedule(ctx context.Context, teacherID string, from time.Time) ([]byte, error)
	GetWeeklyAvailability(ctx context.Context, teacherID string) (*dto.WeeklyAvailability, error)
	ReplaceWeeklyAvailability(ctx context.Context, actor *models.JWTClaims, teacherID string, req dto.ReplaceAvailabilityRequest) (*dto.WeeklyAvailability, error)
	AddAvailabilityException(ctx context.Context, actor *models.JWTClaims, teacherID string, req dto.CreateExceptionRequest) (*models.AvailabilityException, error)
	ListAvailabilityExceptions(ctx context.Context, filter dto.ExceptionFilter) ([]models.AvailabilityException, error)
	RemoveAvailabilityException(ctx context.Context, actor *models.JWTClaims, id string) error
}

// AvailabilityHandler exposes teacher availability endpoints.
type AvailabilityHandler struct {
	service availabilityService
	now     func() time.Time
}

// NewAvailabilityHandler constructs AvailabilityHandler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, now: time.Now}
}

// FreeSlots godoc
// @Summary Resolve free slots of a teacher
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param duration query int true "Session length in minutes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id}/free-slots [get]
func (h *AvailabilityHandler) FreeSlots(c *gin.Context) {
	date, err := dateQuery(c, "date", h.service.Location(), nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	if date == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	duration, err := strconv.Atoi(c.Query("duration"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "duration must be an integer number of minutes"))
		return
	}

	slots, err := h.service.ResolveFreeSlots(c.Request.Context(), c.Param("id"), *date, duration)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots)
}

// WeeklySchedule godoc
// @Summary Seven-day schedule of a teacher
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Param from query string false "First day (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/weekly-schedule [get]
func (h *AvailabilityHandler) WeeklySchedule(c *gin.Context) {
	from, err := h.from(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	schedule, err := h.service.ResolveWeeklySchedule(c.Request.Context(), c.Param("id"), from)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule)
}

// WeeklyScheduleICS godoc
// @Summary Seven-day schedule as iCalendar
// @Tags Availability
// @Produce text/calendar
// @Param id path string true "Teacher ID"
// @Param from query string false "First day (YYYY-MM-DD), defaults to today"
// @Success 200 {file} file
// @Router /teachers/{id}/weekly-schedule/ics [get]
func (h *AvailabilityHandler) WeeklyScheduleICS(c *gin.Context) {
	from, err := h.from(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.service.ExportWeeklySchedule(c.Request.Context(), c.Param("id"), from)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("schedule-%s-%s.ics", c.Param("id"), from.Format(dateLayout))
	response.Attachment(c, filename, "text/calendar; charset=utf-8", payload)
}

// GetAvailability godoc
// @Summary Current weekly availability
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability [get]
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	result, err := h.service.GetWeeklyAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ReplaceAvailability godoc
// @Summary Replace weekly availability
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body dto.ReplaceAvailabilityRequest true "Weekly windows"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teachers/{id}/availability [put]
func (h *AvailabilityHandler) ReplaceAvailability(c *gin.Context) {
	var req dto.ReplaceAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.ReplaceWeeklyAvailability(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ListExceptions godoc
// @Summary List availability exceptions
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability/exceptions [get]
func (h *AvailabilityHandler) ListExceptions(c *gin.Context) {
	loc := h.service.Location()
	from, err := dateQuery(c, "from", loc, nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := dateQuery(c, "to", loc, nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.ListAvailabilityExceptions(c.Request.Context(), dto.ExceptionFilter{TeacherID: c.Param("id"), From: from, To: to})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// CreateException godoc
// @Summary Block a date fully or partially
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body dto.CreateExceptionRequest true "Exception"
// @Success 201 {object} response.Envelope
// @Router /teachers/{id}/availability/exceptions [post]
func (h *AvailabilityHandler) CreateException(c *gin.Context) {
	var req dto.CreateExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	exception, err := h.service.AddAvailabilityException(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exception)
}

// DeleteException godoc
// @Summary Remove an availability exception
// @Tags Availability
// @Param id path string true "Exception ID"
// @Success 204
// @Router /availability/exceptions/{id} [delete]
func (h *AvailabilityHandler) DeleteException(c *gin.Context) {
	if err := h.service.RemoveAvailabilityException(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *AvailabilityHandler) from(c *gin.Context) (time.Time, error) {
	loc := h.service.Location()
	now := h.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	from, err := dateQuery(c, "from", loc, &today)
	if err != nil {
		return time.Time{}, err
	}
	return *from, nil
}
