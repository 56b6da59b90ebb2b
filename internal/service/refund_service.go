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

type refundRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, refund *models.RefundRequest) error
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RefundRequest, error)
	SumOpenByPayment(ctx context.Context, exec sqlx.ExtContext, paymentID string) (decimal.Decimal, error)
	MarkProcessed(ctx context.Context, exec sqlx.ExtContext, id string, status models.RefundStatus, processedBy string, processedAt time.Time) error
}

type refundPaymentReader interface {
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Payment, error)
}

type refundLedger interface {
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error)
	UpdateLedger(ctx context.Context, exec sqlx.ExtContext, id string, paid decimal.Decimal, status models.EnrollmentStatus) error
}

// RefundService handles refund requests against successful payments.
type RefundService struct {
	refunds     refundRepository
	payments    refundPaymentReader
	enrollments refundLedger
	tx          txProvider
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewRefundService constructs RefundService.
func NewRefundService(refunds refundRepository, payments refundPaymentReader, enrollments refundLedger, tx txProvider, validate *validator.Validate, logger *zap.Logger) *RefundService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefundService{refunds: refunds, payments: payments, enrollments: enrollments, tx: tx, validator: validate, logger: logger, now: time.Now}
}

// RequestRefund files a PENDING refund. The amount may not exceed what is left of the payment after
// pending and approved refunds.
func (s *RefundService) RequestRefund(ctx context.Context, actor *models.JWTClaims, req dto.CreateRefundRequest) (refund *models.RefundRequest, err error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid refund payload")
	}
	if !req.Amount.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
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

	payment, err := s.payments.LockByID(ctx, tx, req.PaymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "payment not found")
			return nil, err
		}
		err = appErrors.Store(err, "failed to load payment")
		return nil, err
	}
	if payment.StudentID != actor.UserID {
		err = appErrors.Clone(appErrors.ErrForbidden, "payment belongs to another student")
		return nil, err
	}
	if payment.Status != models.PaymentStatusSuccess {
		err = appErrors.Clone(appErrors.ErrConflict, "only successful payments can be refunded")
		return nil, err
	}

	open, err := s.refunds.SumOpenByPayment(ctx, tx, payment.ID)
	if err != nil {
		err = appErrors.Store(err, "failed to load refunds")
		return nil, err
	}
	if req.Amount.GreaterThan(payment.Amount.Sub(open)) {
		err = appErrors.Clone(appErrors.ErrConflict, "refund exceeds the refundable amount")
		return nil, err
	}

	refund = &models.RefundRequest{
		PaymentID: payment.ID,
		StudentID: actor.UserID,
		Amount:    req.Amount.Round(2),
		Reason:    req.Reason,
		Status:    models.RefundStatusPending,
	}
	if err = s.refunds.Create(ctx, tx, refund); err != nil {
		err = appErrors.Store(err, "failed to create refund request")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Store(err, "failed to commit refund request")
		return nil, err
	}
	return refund, nil
}

// ApproveRefund approves a PENDING refund and lowers the linked enrollment's paid amount, never below zero.
func (s *RefundService) ApproveRefund(ctx context.Context, actor *models.JWTClaims, id string) (*models.RefundRequest, error) {
	return s.process(ctx, actor, id, models.RefundStatusApproved)
}

// RejectRefund rejects a PENDING refund.
func (s *RefundService) RejectRefund(ctx context.Context, actor *models.JWTClaims, id string) (*models.RefundRequest, error) {
	return s.process(ctx, actor, id, models.RefundStatusRejected)
}

func (s *RefundService) process(ctx context.Context, actor *models.JWTClaims, id string, status models.RefundStatus) (refund *models.RefundRequest, err error) {
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can process refunds")
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

	refund, err = s.refunds.LockByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "refund request not found")
			return nil, err
		}
		err = appErrors.Store(err, "failed to load refund request")
		return nil, err
	}
	if refund.Status != models.RefundStatusPending {
		err = appErrors.Clone(appErrors.ErrConflict, "refund request already processed")
		return nil, err
	}

	if status == models.RefundStatusApproved {
		if err = s.debitEnrollment(ctx, tx, refund); err != nil {
			return nil, err
		}
	}

	processedAt := s.now().UTC()
	if err = s.refunds.MarkProcessed(ctx, tx, refund.ID, status, actor.UserID, processedAt); err != nil {
		err = appErrors.Store(err, "failed to update refund request")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Store(err, "failed to commit refund decision")
		return nil, err
	}

	processedBy := actor.UserID
	refund.Status = status
	refund.ProcessedBy = &processedBy
	refund.ProcessedAt = &processedAt
	s.logger.Info("refund processed",
		zap.String("refund_id", refund.ID),
		zap.String("status", string(status)),
		zap.String("admin_id", actor.UserID),
	)
	return refund, nil
}

func (s *RefundService) debitEnrollment(ctx context.Context, tx sqlx.ExtContext, refund *models.RefundRequest) error {
	payment, err := s.payments.LockByID(ctx, tx, refund.PaymentID)
	if err != nil {
		return appErrors.Store(err, "failed to load refunded payment")
	}
	if payment.EnrollmentID == nil {
		return nil
	}
	enrollment, err := s.enrollments.LockByID(ctx, tx, *payment.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Store(err, "failed to load enrollment")
	}
	paid := enrollment.PaidAmount.Sub(refund.Amount)
	if paid.IsNegative() {
		paid = decimal.Zero
	}
	if err := s.enrollments.UpdateLedger(ctx, tx, enrollment.ID, paid, enrollment.Status); err != nil {
		return appErrors.Store(err, "failed to update enrollment ledger")
	}
	return nil
}
