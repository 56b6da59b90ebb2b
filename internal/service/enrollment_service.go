package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erfannorozi54/Rashed-sub001/internal/dto"
	"github.com/erfannorozi54/Rashed-sub001/internal/models"
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
)

type enrollmentRepository interface {
	FindByClassAndStudent(ctx context.Context, classID, studentID string) (*models.Enrollment, error)
	CountSeats(ctx context.Context, exec sqlx.ExtContext, classID string) (int, error)
	Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
	Delete(ctx context.Context, classID, studentID string) error
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type classLocker interface {
	classReader
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Class, error)
}

type paymentWriter interface {
	Create(ctx context.Context, exec sqlx.ExtContext, payment *models.Payment) error
}

// EnrollmentService orchestrates joining and leaving classes.
type EnrollmentService struct {
	repo     enrollmentRepository
	classes  classLocker
	sessions activeSessionCounter
	payments paymentWriter
	tx       txProvider
	logger   *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, classes classLocker, sessions activeSessionCounter, payments paymentWriter, tx txProvider, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, classes: classes, sessions: sessions, payments: payments, tx: tx, logger: logger}
}

// Quote prices an enrollment in a class without joining it.
func (s *EnrollmentService) Quote(ctx context.Context, classID string) (decimal.Decimal, error) {
	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.price(ctx, class)
}

// JoinClass enrolls the student. Free joins are ENROLLED at once; otherwise the enrollment waits in
// PENDING_PAYMENT with a PENDING payment for the prepayment amount, both written in one transaction.
// Capped classes are locked for the transaction so concurrent joins cannot overfill them.
func (s *EnrollmentService) JoinClass(ctx context.Context, actor *models.JWTClaims, classID string) (result *dto.JoinClassResult, err error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can join classes")
	}
	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	if _, findErr := s.repo.FindByClassAndStudent(ctx, classID, actor.UserID); findErr == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled in this class")
	} else if !errors.Is(findErr, sql.ErrNoRows) {
		return nil, appErrors.Store(findErr, "failed to check enrollment")
	}

	amount, err := s.price(ctx, class)
	if err != nil {
		return nil, err
	}

	enrollment := &models.Enrollment{
		ClassID:    classID,
		StudentID:  actor.UserID,
		Status:     models.EnrollmentStatusEnrolled,
		PaidAmount: decimal.Zero,
	}
	if amount.IsPositive() {
		enrollment.Status = models.EnrollmentStatusPendingPayment
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

	if class.MaxCapacity != nil {
		if err = s.reserveSeat(ctx, tx, classID); err != nil {
			return nil, err
		}
	}

	if err = s.repo.Create(ctx, tx, enrollment); err != nil {
		if isUniqueViolation(err) {
			err = appErrors.Clone(appErrors.ErrConflict, "already enrolled in this class")
			return nil, err
		}
		err = appErrors.Store(err, "failed to create enrollment")
		return nil, err
	}

	result = &dto.JoinClassResult{Enrollment: *enrollment, Amount: amount}
	if amount.IsPositive() {
		enrollmentID := enrollment.ID
		payment := &models.Payment{
			StudentID:    actor.UserID,
			ClassID:      classID,
			EnrollmentID: &enrollmentID,
			Amount:       amount,
			Status:       models.PaymentStatusPending,
		}
		if err = s.payments.Create(ctx, tx, payment); err != nil {
			err = appErrors.Store(err, "failed to create enrollment payment")
			return nil, err
		}
		result.Payment = payment
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Store(err, "failed to commit enrollment")
		return nil, err
	}

	s.logger.Info("student joined class",
		zap.String("student_id", actor.UserID),
		zap.String("class_id", classID),
		zap.String("status", string(enrollment.Status)),
		zap.String("amount", amount.String()),
	)
	return result, nil
}

func (s *EnrollmentService) reserveSeat(ctx context.Context, tx sqlx.ExtContext, classID string) error {
	locked, err := s.classes.LockByID(ctx, tx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Store(err, "failed to lock class")
	}
	if locked.MaxCapacity == nil {
		return nil
	}
	count, err := s.repo.CountSeats(ctx, tx, classID)
	if err != nil {
		return appErrors.Store(err, "failed to count enrollments")
	}
	if count >= *locked.MaxCapacity {
		return appErrors.Clone(appErrors.ErrConflict, "class is full")
	}
	return nil
}

// Withdraw removes the student's enrollment from the class.
func (s *EnrollmentService) Withdraw(ctx context.Context, actor *models.JWTClaims, classID string) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrForbidden, "only students can withdraw from classes")
	}
	if err := s.repo.Delete(ctx, classID, actor.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Store(err, "failed to withdraw from class")
	}
	s.logger.Info("student withdrew from class", zap.String("student_id", actor.UserID), zap.String("class_id", classID))
	return nil
}

func (s *EnrollmentService) loadClass(ctx context.Context, classID string) (*models.Class, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class id is required")
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Store(err, "failed to load class")
	}
	return class, nil
}

func (s *EnrollmentService) price(ctx context.Context, class *models.Class) (decimal.Decimal, error) {
	total, err := s.sessions.CountActive(ctx, class.ID, nil)
	if err != nil {
		return decimal.Zero, appErrors.Store(err, "failed to count class sessions")
	}
	return PriceEnrollment(class.SessionPrice, class.MinSessionsToPay, total), nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
