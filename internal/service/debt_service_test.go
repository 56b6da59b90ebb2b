package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erfannorozi54/Rashed-sub001/internal/models"
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
)

type billingStub struct {
	rows []models.EnrollmentBilling
	err  error
}

func (s *billingStub) ListBillingByStudent(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.EnrollmentBilling, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.EnrollmentBilling
	for _, row := range s.rows {
		if row.StudentID == studentID && row.Status == status {
			out = append(out, row)
		}
	}
	return out, nil
}

type sessionCountStub struct {
	counts map[string]int
	until  []*time.Time
}

func (s *sessionCountStub) CountActive(ctx context.Context, classID string, until *time.Time) (int, error) {
	s.until = append(s.until, until)
	return s.counts[classID], nil
}

type feeStub struct {
	fees map[string]decimal.Decimal
}

func (s *feeStub) SumFeesByStudent(ctx context.Context, studentID string, settlement models.RescheduleSettlement) (map[string]decimal.Decimal, error) {
	if s.fees == nil {
		return map[string]decimal.Decimal{}, nil
	}
	return s.fees, nil
}

func billing(classID, title string, price, paid int64, status models.EnrollmentStatus) models.EnrollmentBilling {
	return models.EnrollmentBilling{
		Enrollment: models.Enrollment{
			ID:         "enr-" + classID,
			ClassID:    classID,
			StudentID:  "stu-1",
			Status:     status,
			PaidAmount: money(paid),
		},
		ClassTitle:   title,
		SessionPrice: money(price),
	}
}

func newDebtFixture(rows []models.EnrollmentBilling, counts map[string]int, fees map[string]decimal.Decimal) (*DebtService, *sessionCountStub) {
	sessions := &sessionCountStub{counts: counts}
	users := &userStub{users: map[string]*models.User{"stu-1": {ID: "stu-1", Role: models.RoleStudent}}}
	svc := NewDebtService(&billingStub{rows: rows}, sessions, &feeStub{fees: fees}, users, nil, DebtConfig{Horizon: 30 * 24 * time.Hour})
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	return svc, sessions
}

func TestComputeDebtAggregatesBreakdown(t *testing.T) {
	svc, sessions := newDebtFixture([]models.EnrollmentBilling{
		billing("A", "Algebra", 100000, 300000, models.EnrollmentStatusEnrolled),
		billing("B", "Biology", 50000, 0, models.EnrollmentStatusEnrolled),
		billing("C", "Chemistry", 90000, 0, models.EnrollmentStatusPendingPayment),
	}, map[string]int{"A": 3, "B": 4, "C": 10}, nil)

	summary, err := svc.ComputeDebt(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.True(t, summary.Debt.Equal(money(200000)), summary.Debt.String())
	require.Len(t, summary.Breakdown, 2)
	assert.True(t, summary.Breakdown[0].Net.IsZero())
	assert.True(t, summary.Breakdown[1].Cost.Equal(money(200000)))

	require.Len(t, sessions.until, 2)
	assert.Equal(t, time.Date(2026, 11, 18, 12, 0, 0, 0, time.UTC), *sessions.until[0])
}

func TestComputeDebtClampsTotalButKeepsNegativeRows(t *testing.T) {
	svc, _ := newDebtFixture([]models.EnrollmentBilling{
		billing("A", "Algebra", 100000, 500000, models.EnrollmentStatusEnrolled),
		billing("B", "Biology", 100000, 0, models.EnrollmentStatusEnrolled),
	}, map[string]int{"A": 2, "B": 1}, nil)

	summary, err := svc.ComputeDebt(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.True(t, summary.Debt.IsZero())
	assert.True(t, summary.Breakdown[0].Net.Equal(money(-300000)))
}

func TestComputeDebtIncludesRescheduleFees(t *testing.T) {
	svc, _ := newDebtFixture([]models.EnrollmentBilling{
		billing("P", "Private piano", 250000, 500000, models.EnrollmentStatusEnrolled),
	}, map[string]int{"P": 2}, map[string]decimal.Decimal{"P": money(50000)})

	summary, err := svc.ComputeDebt(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.True(t, summary.Debt.Equal(money(50000)))
	assert.True(t, summary.Breakdown[0].Fees.Equal(money(50000)))
}

func TestComputeDebtWithoutEnrollments(t *testing.T) {
	svc, _ := newDebtFixture(nil, nil, nil)

	summary, err := svc.ComputeDebt(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.True(t, summary.Debt.IsZero())
	assert.Empty(t, summary.Breakdown)
}

func TestGetDebtAuthorization(t *testing.T) {
	svc, _ := newDebtFixture(nil, nil, nil)

	_, err := svc.GetDebt(context.Background(), student("stu-2"), "stu-1")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.GetDebt(context.Background(), teacher("t-1"), "stu-1")
	require.NoError(t, err)

	_, err = svc.GetDebt(context.Background(), admin(), "ghost")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestComputeDebtStoreFailure(t *testing.T) {
	svc := NewDebtService(&billingStub{err: errors.New("down")}, &sessionCountStub{}, &feeStub{}, &userStub{}, nil, DebtConfig{})

	_, err := svc.ComputeDebt(context.Background(), "stu-1")
	assert.ErrorIs(t, err, appErrors.ErrStoreFailure)
}
