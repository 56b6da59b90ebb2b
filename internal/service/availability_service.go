package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/erfannorozi54/Rashed-sub001/internal/dto"
	"github.com/erfannorozi54/Rashed-sub001/internal/models"
	"github.com/erfannorozi54/Rashed-sub001/internal/timeslot"
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
	"github.com/erfannorozi54/Rashed-sub001/pkg/export"
)

const dateLayout = "2006-01-02"

type availabilityRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, set *models.AvailabilitySet) error
	InsertSlots(ctx context.Context, exec sqlx.ExtContext, slots []models.TeacherAvailability) error
	SetHead(ctx context.Context, exec sqlx.ExtContext, teacherID, setID string) error
	CurrentSet(ctx context.Context, teacherID string) (*models.AvailabilitySet, error)
	ListCurrent(ctx context.Context, teacherID string, dayOfWeek int) ([]models.TeacherAvailability, error)
}

type availabilityExceptionRepository interface {
	Create(ctx context.Context, exception *models.AvailabilityException) error
	FindByID(ctx context.Context, id string) (*models.AvailabilityException, error)
	ListByTeacher(ctx context.Context, teacherID string, from, to *time.Time) ([]models.AvailabilityException, error)
	Delete(ctx context.Context, id string) error
}

type busySessionReader interface {
	ListBusyByTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]models.BusySession, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type calendarRenderer interface {
	Render(name string, events []export.CalendarEvent) ([]byte, error)
}

// AvailabilityConfig tunes the resolver.
type AvailabilityConfig struct {
	Location    *time.Location
	ScheduleTTL time.Duration
}

// AvailabilityService resolves teacher availability into bookable slots and manages weekly windows and exceptions.
type AvailabilityService struct {
	slots      availabilityRepository
	exceptions availabilityExceptionRepository
	sessions   busySessionReader
	users      userReader
	tx         txProvider
	cache      *CacheService
	calendar   calendarRenderer
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        AvailabilityConfig
}

// AvailabilityServiceParams groups constructor dependencies.
type AvailabilityServiceParams struct {
	Slots      availabilityRepository
	Exceptions availabilityExceptionRepository
	Sessions   busySessionReader
	Users      userReader
	Tx         txProvider
	Cache      *CacheService
	Calendar   calendarRenderer
	Validator  *validator.Validate
	Logger     *zap.Logger
	Config     AvailabilityConfig
}

// NewAvailabilityService constructs the resolver.
func NewAvailabilityService(params AvailabilityServiceParams) *AvailabilityService {
	cfg := params.Config
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ScheduleTTL <= 0 {
		cfg.ScheduleTTL = 5 * time.Minute
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	calendar := params.Calendar
	if calendar == nil {
		calendar = export.NewICSExporter()
	}
	return &AvailabilityService{
		slots:      params.Slots,
		exceptions: params.Exceptions,
		sessions:   params.Sessions,
		users:      params.Users,
		tx:         params.Tx,
		cache:      params.Cache,
		calendar:   calendar,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// Location returns the academy time zone used to interpret dates.
func (s *AvailabilityService) Location() *time.Location {
	return s.cfg.Location
}

// ResolveFreeSlots returns the teacher's free intervals on date that are at least duration minutes long.
func (s *AvailabilityService) ResolveFreeSlots(ctx context.Context, teacherID string, date time.Time, duration int) ([]dto.FreeSlot, error) {
	if err := s.validator.Struct(dto.FreeSlotsQuery{TeacherID: teacherID, Date: date, Duration: duration}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "duration must be a positive number of minutes")
	}
	if err := s.ensureTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	free, err := s.FreeIntervals(ctx, teacherID, date, "")
	if err != nil {
		return nil, err
	}
	free = timeslot.FilterMinLength(free, duration)

	result := make([]dto.FreeSlot, 0, len(free))
	for _, iv := range free {
		result = append(result, dto.FreeSlot{Start: timeslot.Format(iv.Start), End: timeslot.Format(iv.End)})
	}
	return result, nil
}

// FreeIntervals computes free time on the calendar day of date: weekly windows minus exceptions minus
// booked sessions. A session whose ID equals excludeSessionID is not treated as busy.
func (s *AvailabilityService) FreeIntervals(ctx context.Context, teacherID string, date time.Time, excludeSessionID string) ([]timeslot.Interval, error) {
	day := s.dayStart(date)

	rows, err := s.slots.ListCurrent(ctx, teacherID, int(day.Weekday()))
	if err != nil {
		return nil, appErrors.Store(err, "failed to load weekly availability")
	}
	windows := s.parseWindows(rows)
	if len(windows) == 0 {
		return []timeslot.Interval{}, nil
	}

	exceptions, err := s.exceptions.ListByTeacher(ctx, teacherID, &day, &day)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load availability exceptions")
	}
	blocks, fullDay := s.exceptionBlocks(exceptions)
	if fullDay {
		return []timeslot.Interval{}, nil
	}

	sessions, err := s.sessions.ListBusyByTeacher(ctx, teacherID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, appErrors.Store(err, "failed to load booked sessions")
	}
	blocks = append(blocks, s.busyIntervals(sessions, excludeSessionID)...)

	return timeslot.Subtract(windows, blocks), nil
}

// ResolveWeeklySchedule returns seven consecutive days starting at from, each covered by labelled segments.
func (s *AvailabilityService) ResolveWeeklySchedule(ctx context.Context, teacherID string, from time.Time) (*dto.WeeklySchedule, error) {
	if err := s.ensureTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	start := s.dayStart(from)
	key := weeklyScheduleKey(teacherID, start)

	var cached dto.WeeklySchedule
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	schedule, err := s.buildWeeklySchedule(ctx, teacherID, start)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, schedule, s.cfg.ScheduleTTL)
	return schedule, nil
}

func (s *AvailabilityService) buildWeeklySchedule(ctx context.Context, teacherID string, start time.Time) (*dto.WeeklySchedule, error) {
	end := start.AddDate(0, 0, 7)
	last := start.AddDate(0, 0, 6)

	rows, err := s.slots.ListCurrent(ctx, teacherID, -1)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load weekly availability")
	}
	windowsByDay := make(map[int][]models.TeacherAvailability, 7)
	for _, row := range rows {
		windowsByDay[row.DayOfWeek] = append(windowsByDay[row.DayOfWeek], row)
	}

	exceptions, err := s.exceptions.ListByTeacher(ctx, teacherID, &start, &last)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load availability exceptions")
	}
	exceptionsByDate := make(map[string][]models.AvailabilityException)
	for _, exc := range exceptions {
		key := exc.Date.Format(dateLayout)
		exceptionsByDate[key] = append(exceptionsByDate[key], exc)
	}

	sessions, err := s.sessions.ListBusyByTeacher(ctx, teacherID, start, end)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load booked sessions")
	}
	sessionsByDate := make(map[string][]models.BusySession)
	for _, session := range sessions {
		key := session.Date.In(s.cfg.Location).Format(dateLayout)
		sessionsByDate[key] = append(sessionsByDate[key], session)
	}

	schedule := &dto.WeeklySchedule{
		TeacherID: teacherID,
		From:      start.Format(dateLayout),
		Days:      make([]dto.WeeklyScheduleDay, 0, 7),
	}
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		key := day.Format(dateLayout)

		windows := s.parseWindows(windowsByDay[int(day.Weekday())])
		blocks, fullDay := s.exceptionBlocks(exceptionsByDate[key])
		if fullDay {
			blocks = []timeslot.Interval{{Start: 0, End: timeslot.MinutesPerDay}}
		}
		busy := s.busyIntervals(sessionsByDate[key], "")

		segments := timeslot.Segments(windows, blocks, busy)
		out := make([]dto.ScheduleSegment, 0, len(segments))
		for _, seg := range segments {
			out = append(out, dto.ScheduleSegment{
				Start: timeslot.Format(seg.Start),
				End:   timeslot.Format(seg.End),
				State: string(seg.State),
			})
		}
		schedule.Days = append(schedule.Days, dto.WeeklyScheduleDay{
			DayOfWeek: int(day.Weekday()),
			Date:      key,
			Segments:  out,
		})
	}
	return schedule, nil
}

// ExportWeeklySchedule renders the weekly view as an iCalendar document with one event per available or busy segment.
func (s *AvailabilityService) ExportWeeklySchedule(ctx context.Context, teacherID string, from time.Time) ([]byte, error) {
	schedule, err := s.ResolveWeeklySchedule(ctx, teacherID, from)
	if err != nil {
		return nil, err
	}

	var events []export.CalendarEvent
	for _, day := range schedule.Days {
		date, err := time.ParseInLocation(dateLayout, day.Date, s.cfg.Location)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid schedule date")
		}
		for _, seg := range day.Segments {
			if seg.State == string(timeslot.StateUnavailable) {
				continue
			}
			startMin, _ := timeslot.Parse(seg.Start)
			endMin, _ := timeslot.Parse(seg.End)
			summary := "Available"
			if seg.State == string(timeslot.StateBusy) {
				summary = "Booked session"
			}
			events = append(events, export.CalendarEvent{
				UID:      fmt.Sprintf("%s-%s-%s@academy", teacherID, day.Date, seg.Start),
				Summary:  summary,
				Category: seg.State,
				Start:    date.Add(time.Duration(startMin) * time.Minute),
				End:      date.Add(time.Duration(endMin) * time.Minute),
			})
		}
	}

	payload, err := s.calendar.Render("Weekly schedule "+schedule.From, events)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar")
	}
	return payload, nil
}

// GetWeeklyAvailability returns the teacher's current availability set. A teacher without one gets version 0 and no slots.
func (s *AvailabilityService) GetWeeklyAvailability(ctx context.Context, teacherID string) (*dto.WeeklyAvailability, error) {
	if err := s.ensureTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	result := &dto.WeeklyAvailability{TeacherID: teacherID, Slots: []dto.AvailabilitySlotRequest{}}
	set, err := s.slots.CurrentSet(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, nil
		}
		return nil, appErrors.Store(err, "failed to load availability set")
	}
	result.Version = set.Version

	rows, err := s.slots.ListCurrent(ctx, teacherID, -1)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load weekly availability")
	}
	for _, row := range rows {
		result.Slots = append(result.Slots, dto.AvailabilitySlotRequest{DayOfWeek: row.DayOfWeek, StartTime: row.StartTime, EndTime: row.EndTime})
	}
	return result, nil
}

// ReplaceWeeklyAvailability validates the slots and atomically swaps the teacher's current set for a new version.
func (s *AvailabilityService) ReplaceWeeklyAvailability(ctx context.Context, actor *models.JWTClaims, teacherID string, req dto.ReplaceAvailabilityRequest) (result *dto.WeeklyAvailability, err error) {
	if err = authorizeTeacherMutation(actor, teacherID); err != nil {
		return nil, err
	}
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if err = validateWeeklySlots(req.Slots); err != nil {
		return nil, err
	}
	if err = s.ensureTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Store(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	set := &models.AvailabilitySet{TeacherID: teacherID}
	if err = s.slots.CreateVersioned(ctx, tx, set); err != nil {
		err = appErrors.Store(err, "failed to create availability set")
		return nil, err
	}
	rows := make([]models.TeacherAvailability, 0, len(req.Slots))
	for _, slot := range req.Slots {
		rows = append(rows, models.TeacherAvailability{
			SetID:     set.ID,
			TeacherID: teacherID,
			DayOfWeek: slot.DayOfWeek,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		})
	}
	if err = s.slots.InsertSlots(ctx, tx, rows); err != nil {
		err = appErrors.Store(err, "failed to persist availability slots")
		return nil, err
	}
	if err = s.slots.SetHead(ctx, tx, teacherID, set.ID); err != nil {
		err = appErrors.Store(err, "failed to switch availability set")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Store(err, "failed to commit availability")
		return nil, err
	}

	s.InvalidateTeacherSchedule(ctx, teacherID)
	s.logger.Info("weekly availability replaced",
		zap.String("teacher_id", teacherID),
		zap.Int("version", set.Version),
		zap.Int("slots", len(rows)),
	)

	slots := append([]dto.AvailabilitySlotRequest(nil), req.Slots...)
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].DayOfWeek == slots[j].DayOfWeek {
			return slots[i].StartTime < slots[j].StartTime
		}
		return slots[i].DayOfWeek < slots[j].DayOfWeek
	})
	return &dto.WeeklyAvailability{TeacherID: teacherID, Version: set.Version, Slots: slots}, nil
}

// AddAvailabilityException blocks a date for the teacher, fully or for a time range.
func (s *AvailabilityService) AddAvailabilityException(ctx context.Context, actor *models.JWTClaims, teacherID string, req dto.CreateExceptionRequest) (*models.AvailabilityException, error) {
	if err := authorizeTeacherMutation(actor, teacherID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exception payload")
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	if (req.StartTime == nil) != (req.EndTime == nil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startTime and endTime must be provided together")
	}
	if req.StartTime != nil {
		if _, err := timeslot.ParseRange(*req.StartTime, *req.EndTime); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exception time range")
		}
	}
	if err := s.ensureTeacher(ctx, teacherID); err != nil {
		return nil, err
	}

	exception := &models.AvailabilityException{
		TeacherID: teacherID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	}
	if err := s.exceptions.Create(ctx, exception); err != nil {
		return nil, appErrors.Store(err, "failed to create availability exception")
	}
	s.InvalidateTeacherSchedule(ctx, teacherID)
	return exception, nil
}

// ListAvailabilityExceptions returns the teacher's exceptions in an optional date range.
func (s *AvailabilityService) ListAvailabilityExceptions(ctx context.Context, filter dto.ExceptionFilter) ([]models.AvailabilityException, error) {
	if err := s.ensureTeacher(ctx, filter.TeacherID); err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	items, err := s.exceptions.ListByTeacher(ctx, filter.TeacherID, filter.From, filter.To)
	if err != nil {
		return nil, appErrors.Store(err, "failed to list availability exceptions")
	}
	if items == nil {
		items = []models.AvailabilityException{}
	}
	return items, nil
}

// RemoveAvailabilityException deletes an exception owned by the actor (admins may delete any).
func (s *AvailabilityService) RemoveAvailabilityException(ctx context.Context, actor *models.JWTClaims, id string) error {
	exception, err := s.exceptions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "availability exception not found")
		}
		return appErrors.Store(err, "failed to load availability exception")
	}
	if err := authorizeTeacherMutation(actor, exception.TeacherID); err != nil {
		return err
	}
	if err := s.exceptions.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "availability exception not found")
		}
		return appErrors.Store(err, "failed to delete availability exception")
	}
	s.InvalidateTeacherSchedule(ctx, exception.TeacherID)
	return nil
}

// InvalidateTeacherSchedule drops every cached weekly view of the teacher.
func (s *AvailabilityService) InvalidateTeacherSchedule(ctx context.Context, teacherID string) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("schedule:weekly:%s:*", teacherID)); err != nil {
		s.logger.Warn("weekly schedule invalidation failed", zap.String("teacher_id", teacherID), zap.Error(err))
	}
}

func (s *AvailabilityService) ensureTeacher(ctx context.Context, teacherID string) error {
	if teacherID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	user, err := s.users.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Store(err, "failed to load teacher")
	}
	if user.Role != models.RoleTeacher {
		return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	return nil
}

func (s *AvailabilityService) dayStart(date time.Time) time.Time {
	local := date.In(s.cfg.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.cfg.Location)
}

func (s *AvailabilityService) parseWindows(rows []models.TeacherAvailability) []timeslot.Interval {
	windows := make([]timeslot.Interval, 0, len(rows))
	for _, row := range rows {
		iv, err := timeslot.ParseRange(row.StartTime, row.EndTime)
		if err != nil {
			s.logger.Warn("skipping malformed availability window", zap.String("slot_id", row.ID), zap.Error(err))
			continue
		}
		windows = append(windows, iv)
	}
	return windows
}

func (s *AvailabilityService) exceptionBlocks(exceptions []models.AvailabilityException) ([]timeslot.Interval, bool) {
	var blocks []timeslot.Interval
	for _, exc := range exceptions {
		if exc.FullDay() {
			return nil, true
		}
		if exc.StartTime == nil || exc.EndTime == nil {
			continue
		}
		iv, err := timeslot.ParseRange(*exc.StartTime, *exc.EndTime)
		if err != nil {
			s.logger.Warn("skipping malformed availability exception", zap.String("exception_id", exc.ID), zap.Error(err))
			continue
		}
		blocks = append(blocks, iv)
	}
	return blocks, false
}

// busyIntervals maps sessions to minute ranges of their start day. A session running past midnight is
// clipped to the end of its start day.
func (s *AvailabilityService) busyIntervals(sessions []models.BusySession, excludeSessionID string) []timeslot.Interval {
	busy := make([]timeslot.Interval, 0, len(sessions))
	for _, session := range sessions {
		if excludeSessionID != "" && session.ID == excludeSessionID {
			continue
		}
		local := session.Date.In(s.cfg.Location)
		start := local.Hour()*60 + local.Minute()
		busy = append(busy, timeslot.Interval{Start: start, End: start + session.SessionDuration})
	}
	return timeslot.Clip(busy)
}

func weeklyScheduleKey(teacherID string, from time.Time) string {
	return fmt.Sprintf("schedule:weekly:%s:%s", teacherID, from.Format(dateLayout))
}

func validateWeeklySlots(slots []dto.AvailabilitySlotRequest) error {
	byDay := make(map[int][]timeslot.Interval)
	for _, slot := range slots {
		if slot.DayOfWeek < 0 || slot.DayOfWeek > 6 {
			return appErrors.Clone(appErrors.ErrValidation, "dayOfWeek must be between 0 and 6")
		}
		iv, err := timeslot.ParseRange(slot.StartTime, slot.EndTime)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability window")
		}
		byDay[slot.DayOfWeek] = append(byDay[slot.DayOfWeek], iv)
	}
	for day, windows := range byDay {
		sort.Slice(windows, func(i, j int) bool { return windows[i].Start < windows[j].Start })
		for i := 1; i < len(windows); i++ {
			if windows[i].Overlaps(windows[i-1]) {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("overlapping availability windows on day %d", day))
			}
		}
	}
	return nil
}

func authorizeTeacherMutation(actor *models.JWTClaims, teacherID string) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == models.RoleTeacher && actor.UserID == teacherID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "teachers may only manage their own availability")
}
