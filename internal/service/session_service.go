package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/erfannorozi54/Rashed-sub001/internal/dto"
	"github.com/erfannorozi54/Rashed-sub001/internal/models"
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
)

type sessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.ClassSessionEvent, error)
	Create(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSessionEvent) error
	CancelIfActive(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error)
}

type classTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListTeachers(ctx context.Context, classID string) ([]models.ClassTeacher, error)
	IsTeacher(ctx context.Context, classID, teacherID string) (bool, error)
}

type scheduleInvalidator interface {
	InvalidateTeacherSchedule(ctx context.Context, teacherID string)
}

// SessionService creates and cancels class sessions.
type SessionService struct {
	sessions    sessionRepository
	classes     classTeacherReader
	invalidator scheduleInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSessionService constructs SessionService.
func NewSessionService(sessions sessionRepository, classes classTeacherReader, invalidator scheduleInvalidator, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{sessions: sessions, classes: classes, invalidator: invalidator, validator: validate, logger: logger}
}

// CreateSession schedules a regular session. Only the class's teachers and admins may do so.
func (s *SessionService) CreateSession(ctx context.Context, actor *models.JWTClaims, classID string, req dto.CreateSessionRequest) (*models.ClassSessionEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Store(err, "failed to load class")
	}
	if err := s.authorize(ctx, actor, class.ID); err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = class.Title
	}
	createdBy := actor.UserID
	session := &models.ClassSessionEvent{
		ClassID:     class.ID,
		Title:       title,
		Description: req.Description,
		Date:        req.Date.UTC(),
		Type:        models.SessionTypeScheduled,
		CreatedBy:   &createdBy,
	}
	if err := s.sessions.Create(ctx, nil, session); err != nil {
		return nil, appErrors.Store(err, "failed to create session")
	}

	s.invalidateClass(ctx, class.ID)
	s.logger.Info("session created", zap.String("session_id", session.ID), zap.String("class_id", class.ID), zap.Time("date", session.Date))
	return session, nil
}

// CancelSession marks a session cancelled. Cancellation is one-way.
func (s *SessionService) CancelSession(ctx context.Context, actor *models.JWTClaims, sessionID string) (*models.ClassSessionEvent, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Store(err, "failed to load session")
	}
	if err := s.authorize(ctx, actor, session.ClassID); err != nil {
		return nil, err
	}
	if session.Cancelled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "session already cancelled")
	}

	changed, err := s.sessions.CancelIfActive(ctx, nil, session.ID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to cancel session")
	}
	if !changed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "session already cancelled")
	}
	session.Cancelled = true

	s.invalidateClass(ctx, session.ClassID)
	s.logger.Info("session cancelled", zap.String("session_id", session.ID), zap.String("actor_id", actor.UserID))
	return session, nil
}

func (s *SessionService) authorize(ctx context.Context, actor *models.JWTClaims, classID string) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role != models.RoleTeacher {
		return appErrors.Clone(appErrors.ErrForbidden, "only teachers and admins manage sessions")
	}
	ok, err := s.classes.IsTeacher(ctx, classID, actor.UserID)
	if err != nil {
		return appErrors.Store(err, "failed to check class teacher")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "teacher is not assigned to this class")
	}
	return nil
}

func (s *SessionService) invalidateClass(ctx context.Context, classID string) {
	invalidateClassTeachers(ctx, s.classes, s.invalidator, s.logger, classID)
}

func invalidateClassTeachers(ctx context.Context, classes classTeacherReader, invalidator scheduleInvalidator, logger *zap.Logger, classID string) {
	if invalidator == nil {
		return
	}
	teachers, err := classes.ListTeachers(ctx, classID)
	if err != nil {
		logger.Warn("could not resolve class teachers for cache invalidation", zap.String("class_id", classID), zap.Error(err))
		return
	}
	for _, t := range teachers {
		invalidator.InvalidateTeacherSchedule(ctx, t.TeacherID)
	}
}
