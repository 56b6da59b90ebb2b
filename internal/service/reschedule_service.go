package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erfannorozi54/Rashed-sub001/internal/dto"
	"github.com/erfannorozi54/Rashed-sub001/internal/models"
	"github.com/erfannorozi54/Rashed-sub001/internal/timeslot"
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type rescheduleEnrollmentReader interface {
	FindByClassAndStudent(ctx context.Context, classID, studentID string) (*models.Enrollment, error)
	CountByClass(ctx context.Context, classID string, status models.EnrollmentStatus) (int, error)
}

type rescheduleWriter interface {
	Create(ctx context.Context, exec sqlx.ExtContext, record *models.SessionReschedule) error
}

type debtCalculator interface {
	ComputeDebt(ctx context.Context, studentID string) (*dto.DebtSummary, error)
}

type freeTimeResolver interface {
	Location() *time.Location
	FreeIntervals(ctx context.Context, teacherID string, date time.Time, excludeSessionID string) ([]timeslot.Interval, error)
}

// RescheduleConfig holds the business constants of the reschedule workflow.
type RescheduleConfig struct {
	FeeRate          float64
	Notice           time.Duration
	DefaultDebtLimit decimal.Decimal
}

// RescheduleServiceParams groups constructor dependencies.
type RescheduleServiceParams struct {
	Sessions     sessionRepository
	Classes      classTeacherReader
	Enrollments  rescheduleEnrollmentReader
	Reschedules  rescheduleWriter
	Users        userReader
	Debts        debtCalculator
	Availability freeTimeResolver
	Invalidator  scheduleInvalidator
	Metrics      *MetricsService
	Tx           txProvider
	Validator    *validator.Validate
	Logger       *zap.Logger
	Config       RescheduleConfig
}

// RescheduleService moves a private-class session to a new time on the student's request.
type RescheduleService struct {
	sessions     sessionRepository
	classes      classTeacherReader
	enrollments  rescheduleEnrollmentReader
	reschedules  rescheduleWriter
	users        userReader
	debts        debtCalculator
	availability freeTimeResolver
	invalidator  scheduleInvalidator
	metrics      *MetricsService
	tx           txProvider
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          RescheduleConfig
	now          func() time.Time
}

// NewRescheduleService constructs RescheduleService.
func NewRescheduleService(params RescheduleServiceParams) *RescheduleService {
	cfg := params.Config
	if cfg.FeeRate <= 0 {
		cfg.FeeRate = 0.20
	}
	if cfg.Notice <= 0 {
		cfg.Notice = 24 * time.Hour
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RescheduleService{
		sessions:     params.Sessions,
		classes:      params.Classes,
		enrollments:  params.Enrollments,
		reschedules:  params.Reschedules,
		users:        params.Users,
		debts:        params.Debts,
		availability: params.Availability,
		invalidator:  params.Invalidator,
		metrics:      params.Metrics,
		tx:           params.Tx,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
		now:          time.Now,
	}
}

// RescheduleFee is the cost of moving one session of a class priced at sessionPrice.
func RescheduleFee(sessionPrice decimal.Decimal, rate float64) decimal.Decimal {
	return sessionPrice.Mul(decimal.NewFromFloat(rate)).Round(0)
}

// RequestReschedule validates the move, prices it and either commits it or asks for payment when the
// fee would push the student's debt past their limit. A committed move cancels the original session,
// creates a COMPENSATORY one at newDate and records the fee as debt, all in one transaction.
func (s *RescheduleService) RequestReschedule(ctx context.Context, actor *models.JWTClaims, sessionID string, req dto.RescheduleRequest) (result *dto.RescheduleResult, err error) {
	defer func() {
		if err != nil {
			s.metrics.RecordReschedule(RescheduleOutcomeRejected, 0)
		}
	}()

	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can reschedule sessions")
	}
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}

	session, class, err := s.validate(ctx, actor.UserID, sessionID, req.NewDate)
	if err != nil {
		return nil, err
	}

	fee := RescheduleFee(class.SessionPrice, s.cfg.FeeRate)
	summary, err := s.debts.ComputeDebt(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	student, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Store(err, "failed to load student")
	}
	limit := student.DebtLimit(s.cfg.DefaultDebtLimit)
	if summary.Debt.Add(fee).GreaterThan(limit) {
		s.metrics.RecordReschedule(RescheduleOutcomeRequiresPayment, 0)
		s.logger.Info("reschedule requires payment",
			zap.String("student_id", actor.UserID),
			zap.String("session_id", session.ID),
			zap.String("debt", summary.Debt.String()),
			zap.String("fee", fee.String()),
			zap.String("limit", limit.String()),
		)
		return &dto.RescheduleResult{Success: false, RequiresPayment: true, Fee: fee}, nil
	}

	created, err := s.commit(ctx, actor.UserID, session, req.NewDate, fee)
	if err != nil {
		return nil, err
	}

	invalidateClassTeachers(ctx, s.classes, s.invalidator, s.logger, class.ID)
	s.metrics.RecordReschedule(RescheduleOutcomeCommitted, fee.InexactFloat64())
	s.logger.Info("session rescheduled",
		zap.String("student_id", actor.UserID),
		zap.String("original_session_id", session.ID),
		zap.String("new_session_id", created.ID),
		zap.Time("new_date", created.Date),
		zap.String("fee", fee.String()),
	)
	return &dto.RescheduleResult{Success: true, Fee: fee, NewSession: created}, nil
}

// validate runs the preconditions in order; the first failure wins.
func (s *RescheduleService) validate(ctx context.Context, studentID, sessionID string, newDate time.Time) (*models.ClassSessionEvent, *models.Class, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, nil, appErrors.Store(err, "failed to load session")
	}
	if session.Cancelled {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}

	enrollment, err := s.enrollments.FindByClassAndStudent(ctx, session.ClassID, studentID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, appErrors.Store(err, "failed to load enrollment")
	}
	if enrollment == nil || enrollment.Status != models.EnrollmentStatusEnrolled {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "student is not enrolled in this class")
	}

	enrolled, err := s.enrollments.CountByClass(ctx, session.ClassID, models.EnrollmentStatusEnrolled)
	if err != nil {
		return nil, nil, appErrors.Store(err, "failed to count enrollments")
	}
	if enrolled != 1 {
		return nil, nil, appErrors.Clone(appErrors.ErrBusinessRule, "only private classes with a single student can be rescheduled")
	}

	now := s.now()
	if session.Date.Sub(now) < s.cfg.Notice {
		return nil, nil, appErrors.Clone(appErrors.ErrBusinessRule, "sessions can be rescheduled only up to 24 hours before they start")
	}

	teachers, err := s.classes.ListTeachers(ctx, session.ClassID)
	if err != nil {
		return nil, nil, appErrors.Store(err, "failed to load class teachers")
	}
	if len(teachers) == 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrBusinessRule, "class has no teacher")
	}

	class, err := s.classes.FindByID(ctx, session.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, nil, appErrors.Store(err, "failed to load class")
	}

	if !newDate.After(now) {
		return nil, nil, appErrors.Clone(appErrors.ErrBusinessRule, "new date must be in the future")
	}
	local := newDate.In(s.availability.Location())
	start := local.Hour()*60 + local.Minute()
	candidate := timeslot.Interval{Start: start, End: start + class.SessionDuration}
	free, err := s.availability.FreeIntervals(ctx, teachers[0].TeacherID, newDate, session.ID)
	if err != nil {
		return nil, nil, err
	}
	if local.Second() != 0 || local.Nanosecond() != 0 || !timeslot.Fits(free, candidate) {
		return nil, nil, appErrors.Clone(appErrors.ErrBusinessRule, "teacher is not available at the requested time")
	}

	return session, class, nil
}

func (s *RescheduleService) commit(ctx context.Context, studentID string, session *models.ClassSessionEvent, newDate time.Time, fee decimal.Decimal) (created *models.ClassSessionEvent, err error) {
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

	changed, err := s.sessions.CancelIfActive(ctx, tx, session.ID)
	if err != nil {
		err = appErrors.Store(err, "failed to cancel original session")
		return nil, err
	}
	if !changed {
		err = appErrors.Clone(appErrors.ErrConflict, "session was already cancelled")
		return nil, err
	}

	createdBy := studentID
	created = &models.ClassSessionEvent{
		ClassID:     session.ClassID,
		Title:       session.Title,
		Description: session.Description,
		Date:        newDate.UTC(),
		Type:        models.SessionTypeCompensatory,
		CreatedBy:   &createdBy,
	}
	if err = s.sessions.Create(ctx, tx, created); err != nil {
		err = appErrors.Store(err, "failed to create compensatory session")
		return nil, err
	}

	record := &models.SessionReschedule{
		OriginalSessionID: session.ID,
		NewSessionID:      created.ID,
		StudentID:         studentID,
		ClassID:           session.ClassID,
		Fee:               fee,
		Settlement:        models.SettlementAddedToDebt,
	}
	if err = s.reschedules.Create(ctx, tx, record); err != nil {
		err = appErrors.Store(err, "failed to record reschedule")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Store(err, "failed to commit reschedule")
		return nil, err
	}
	return created, nil
}
