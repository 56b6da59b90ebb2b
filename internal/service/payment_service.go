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
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
)

type paymentRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, payment *models.Payment) error
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.PaymentStatus, paidAt *time.Time) error
	JoinPaymentID(ctx context.Context, exec sqlx.ExtContext, enrollmentID string) (string, error)
}

type enrollmentLedger interface {
	FindByClassAndStudent(ctx context.Context, classID, studentID string) (*models.Enrollment, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error)
	UpdateLedger(ctx context.Context, exec sqlx.ExtContext, id string, paid decimal.Decimal, status models.EnrollmentStatus) error
}

// PaymentService records charges and applies gateway outcomes to the enrollment ledger.
type PaymentService struct {
	payments    paymentRepository
	enrollments enrollmentLedger
	tx          txProvider
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(payments paymentRepository, enrollments enrollmentLedger, tx txProvider, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{payments: payments, enrollments: enrollments, tx: tx, validator: validate, logger: logger, now: time.Now}
}

// CreatePayment opens a PENDING charge towards the student's enrollment in a class. An enrollment still
// waiting on its join payment takes no other charges.
func (s *PaymentService) CreatePayment(ctx context.Context, actor *models.JWTClaims, req dto.CreatePaymentRequest) (*models.Payment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if !req.Amount.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
	}
	enrollment, err := s.enrollments.FindByClassAndStudent(ctx, req.ClassID, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Store(err, "failed to load enrollment")
	}
	if enrollment.Status == models.EnrollmentStatusPendingPayment {
		return nil, appErrors.Clone(appErrors.ErrConflict, "settle the pending enrollment payment first")
	}

	enrollmentID := enrollment.ID
	payment := &models.Payment{
		StudentID:    actor.UserID,
		ClassID:      req.ClassID,
		EnrollmentID: &enrollmentID,
		Amount:       req.Amount.Round(2),
		Status:       models.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, nil, payment); err != nil {
		return nil, appErrors.Store(err, "failed to create payment")
	}
	return payment, nil
}

// SettlePayment applies the gateway outcome to a PENDING payment. On success the linked enrollment's
// paid amount grows by the payment amount. A PENDING_PAYMENT enrollment becomes ENROLLED only when the
// settled payment is the one opened by JoinClass.
func (s *PaymentService) SettlePayment(ctx context.Context, paymentID string, success bool) (payment *models.Payment, err error) {
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

	payment, err = s.payments.LockByID(ctx, tx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "payment not found")
			return nil, err
		}
		err = appErrors.Store(err, "failed to load payment")
		return nil, err
	}
	if payment.Status != models.PaymentStatusPending {
		err = appErrors.Clone(appErrors.ErrConflict, "payment already settled")
		return nil, err
	}

	if !success {
		if err = s.payments.UpdateStatus(ctx, tx, payment.ID, models.PaymentStatusFailed, nil); err != nil {
			err = appErrors.Store(err, "failed to update payment")
			return nil, err
		}
		payment.Status = models.PaymentStatusFailed
	} else {
		paidAt := s.now().UTC()
		if err = s.payments.UpdateStatus(ctx, tx, payment.ID, models.PaymentStatusSuccess, &paidAt); err != nil {
			err = appErrors.Store(err, "failed to update payment")
			return nil, err
		}
		payment.Status = models.PaymentStatusSuccess
		payment.PaidAt = &paidAt

		if payment.EnrollmentID != nil {
			if err = s.creditEnrollment(ctx, tx, *payment.EnrollmentID, payment); err != nil {
				return nil, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Store(err, "failed to commit payment settlement")
		return nil, err
	}
	s.logger.Info("payment settled",
		zap.String("payment_id", payment.ID),
		zap.String("status", string(payment.Status)),
		zap.String("amount", payment.Amount.String()),
	)
	return payment, nil
}

func (s *PaymentService) creditEnrollment(ctx context.Context, tx sqlx.ExtContext, enrollmentID string, payment *models.Payment) error {
	enrollment, err := s.enrollments.LockByID(ctx, tx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("settled payment references a removed enrollment", zap.String("enrollment_id", enrollmentID))
			return nil
		}
		return appErrors.Store(err, "failed to load enrollment")
	}

	status := enrollment.Status
	if status == models.EnrollmentStatusPendingPayment {
		joinPaymentID, err := s.payments.JoinPaymentID(ctx, tx, enrollment.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Store(err, "failed to load enrollment payment")
		}
		if joinPaymentID == payment.ID {
			status = models.EnrollmentStatusEnrolled
		} else {
			s.logger.Warn("payment settled before the enrollment payment",
				zap.String("enrollment_id", enrollment.ID),
				zap.String("payment_id", payment.ID),
			)
		}
	}
	if err := s.enrollments.UpdateLedger(ctx, tx, enrollment.ID, enrollment.PaidAmount.Add(payment.Amount), status); err != nil {
		return appErrors.Store(err, "failed to update enrollment ledger")
	}
	return nil
}
