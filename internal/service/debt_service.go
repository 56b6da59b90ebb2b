package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erfannorozi54/Rashed-sub001/internal/dto"
	"github.com/erfannorozi54/Rashed-sub001/internal/models"
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
)

type billingEnrollmentReader interface {
	ListBillingByStudent(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.EnrollmentBilling, error)
}

type activeSessionCounter interface {
	CountActive(ctx context.Context, classID string, until *time.Time) (int, error)
}

type feeLedgerReader interface {
	SumFeesByStudent(ctx context.Context, studentID string, settlement models.RescheduleSettlement) (map[string]decimal.Decimal, error)
}

// DebtConfig bounds which sessions count towards debt.
type DebtConfig struct {
	Horizon time.Duration
}

// DebtService computes what a student owes across enrolled classes.
type DebtService struct {
	enrollments billingEnrollmentReader
	sessions    activeSessionCounter
	fees        feeLedgerReader
	users       userReader
	logger      *zap.Logger
	now         func() time.Time
	cfg         DebtConfig
}

// NewDebtService constructs the calculator.
func NewDebtService(enrollments billingEnrollmentReader, sessions activeSessionCounter, fees feeLedgerReader, users userReader, logger *zap.Logger, cfg DebtConfig) *DebtService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = 30 * 24 * time.Hour
	}
	return &DebtService{
		enrollments: enrollments,
		sessions:    sessions,
		fees:        fees,
		users:       users,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// GetDebt returns the student's debt. Students may only read their own; teachers and admins may read any.
func (s *DebtService) GetDebt(ctx context.Context, actor *models.JWTClaims, studentID string) (*dto.DebtSummary, error) {
	if err := authorizeStudentRead(actor, studentID); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Store(err, "failed to load student")
	}
	return s.ComputeDebt(ctx, studentID)
}

// ComputeDebt sums session cost plus reschedule fees minus payments over ENROLLED classes.
// Sessions count when not cancelled and dated no later than now plus the horizon. The total is clamped
// at zero while each breakdown row keeps its raw, possibly negative, net.
func (s *DebtService) ComputeDebt(ctx context.Context, studentID string) (*dto.DebtSummary, error) {
	enrollments, err := s.enrollments.ListBillingByStudent(ctx, studentID, models.EnrollmentStatusEnrolled)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load enrollments")
	}
	fees, err := s.fees.SumFeesByStudent(ctx, studentID, models.SettlementAddedToDebt)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load reschedule fees")
	}

	until := s.now().Add(s.cfg.Horizon)
	total := decimal.Zero
	breakdown := make([]dto.DebtBreakdownItem, 0, len(enrollments))
	for _, enrollment := range enrollments {
		count, err := s.sessions.CountActive(ctx, enrollment.ClassID, &until)
		if err != nil {
			return nil, appErrors.Store(err, "failed to count sessions")
		}
		cost := enrollment.SessionPrice.Mul(decimal.NewFromInt(int64(count)))
		fee := fees[enrollment.ClassID]
		net := cost.Add(fee).Sub(enrollment.PaidAmount)
		total = total.Add(net)
		breakdown = append(breakdown, dto.DebtBreakdownItem{
			ClassID:      enrollment.ClassID,
			ClassTitle:   enrollment.ClassTitle,
			SessionCount: count,
			SessionPrice: enrollment.SessionPrice,
			Cost:         cost,
			Fees:         fee,
			Paid:         enrollment.PaidAmount,
			Net:          net,
		})
	}
	if total.IsNegative() {
		total = decimal.Zero
	}

	return &dto.DebtSummary{StudentID: studentID, Debt: total, Breakdown: breakdown}, nil
}

func authorizeStudentRead(actor *models.JWTClaims, studentID string) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleStudent && actor.UserID != studentID {
		return appErrors.Clone(appErrors.ErrForbidden, "students may only view their own debt")
	}
	return nil
}
