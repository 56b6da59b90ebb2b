package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erfannorozi54/Rashed-sub001/internal/models"
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
)

type enrollmentRepoStub struct {
	items     map[string]*models.Enrollment
	createErr error
	created   []*models.Enrollment
	ledger    map[string]decimal.Decimal
	statuses  map[string]models.EnrollmentStatus
}

func newEnrollmentRepoStub(items ...*models.Enrollment) *enrollmentRepoStub {
	s := &enrollmentRepoStub{
		items:    map[string]*models.Enrollment{},
		ledger:   map[string]decimal.Decimal{},
		statuses: map[string]models.EnrollmentStatus{},
	}
	for _, item := range items {
		s.items[item.ID] = item
	}
	return s
}

func (s *enrollmentRepoStub) FindByClassAndStudent(ctx context.Context, classID, studentID string) (*models.Enrollment, error) {
	for _, e := range s.items {
		if e.ClassID == classID && e.StudentID == studentID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *enrollmentRepoStub) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error) {
	if e, ok := s.items[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *enrollmentRepoStub) CountByClass(ctx context.Context, classID string, status models.EnrollmentStatus) (int, error) {
	count := 0
	for _, e := range s.items {
		if e.ClassID == classID && (status == "" || e.Status == status) {
			count++
		}
	}
	return count, nil
}

func (s *enrollmentRepoStub) CountSeats(ctx context.Context, exec sqlx.ExtContext, classID string) (int, error) {
	if exec == nil {
		return 0, errors.New("seat count outside a transaction")
	}
	return s.CountByClass(ctx, classID, "")
}

func (s *enrollmentRepoStub) Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	if s.createErr != nil {
		return s.createErr
	}
	enrollment.ID = "enr-new"
	s.created = append(s.created, enrollment)
	return nil
}

func (s *enrollmentRepoStub) UpdateLedger(ctx context.Context, exec sqlx.ExtContext, id string, paid decimal.Decimal, status models.EnrollmentStatus) error {
	s.ledger[id] = paid
	s.statuses[id] = status
	return nil
}

func (s *enrollmentRepoStub) Delete(ctx context.Context, classID, studentID string) error {
	for id, e := range s.items {
		if e.ClassID == classID && e.StudentID == studentID {
			delete(s.items, id)
			return nil
		}
	}
	return sql.ErrNoRows
}

type paymentRepoStub struct {
	items   map[string]*models.Payment
	created []*models.Payment
	updates map[string]models.PaymentStatus
	joins   map[string]string
}

// newPaymentRepoStub treats the first payment seen per enrollment as its join payment.
func newPaymentRepoStub(items ...*models.Payment) *paymentRepoStub {
	s := &paymentRepoStub{items: map[string]*models.Payment{}, updates: map[string]models.PaymentStatus{}, joins: map[string]string{}}
	for _, item := range items {
		s.items[item.ID] = item
		if item.EnrollmentID != nil {
			if _, ok := s.joins[*item.EnrollmentID]; !ok {
				s.joins[*item.EnrollmentID] = item.ID
			}
		}
	}
	return s
}

func (s *paymentRepoStub) Create(ctx context.Context, exec sqlx.ExtContext, payment *models.Payment) error {
	payment.ID = "pay-new"
	s.created = append(s.created, payment)
	return nil
}

func (s *paymentRepoStub) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	if p, ok := s.items[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *paymentRepoStub) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Payment, error) {
	return s.FindByID(ctx, id)
}

func (s *paymentRepoStub) JoinPaymentID(ctx context.Context, exec sqlx.ExtContext, enrollmentID string) (string, error) {
	if id, ok := s.joins[enrollmentID]; ok {
		return id, nil
	}
	return "", sql.ErrNoRows
}

func (s *paymentRepoStub) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.PaymentStatus, paidAt *time.Time) error {
	s.updates[id] = status
	return nil
}

func newEnrollmentFixture(t *testing.T, class *models.Class, sessionCount int, existing ...*models.Enrollment) (*EnrollmentService, *enrollmentRepoStub, *paymentRepoStub, *txProviderMock) {
	svc, repo, payments, _, tx := newEnrollmentFixtureWithClasses(t, class, sessionCount, existing...)
	return svc, repo, payments, tx
}

func newEnrollmentFixtureWithClasses(t *testing.T, class *models.Class, sessionCount int, existing ...*models.Enrollment) (*EnrollmentService, *enrollmentRepoStub, *paymentRepoStub, *classStub, *txProviderMock) {
	t.Helper()
	repo := newEnrollmentRepoStub(existing...)
	payments := newPaymentRepoStub()
	classes := &classStub{classes: map[string]*models.Class{class.ID: class}}
	tx, _ := newTxProviderMock(t)
	svc := NewEnrollmentService(repo, classes, &sessionCountStub{counts: map[string]int{class.ID: sessionCount}}, payments, tx, nil)
	return svc, repo, payments, classes, tx.(*txProviderMock)
}

func TestJoinClassPaidCreatesPendingPayment(t *testing.T) {
	minSessions := 4
	class := &models.Class{ID: "c-1", SessionPrice: money(100000), MinSessionsToPay: &minSessions}
	svc, repo, payments, tx := newEnrollmentFixture(t, class, 10)
	tx.mock.ExpectBegin()
	tx.mock.ExpectCommit()

	result, err := svc.JoinClass(context.Background(), student("stu-1"), "c-1")
	require.NoError(t, err)
	assert.True(t, result.Amount.Equal(money(400000)))
	assert.Equal(t, models.EnrollmentStatusPendingPayment, result.Enrollment.Status)
	require.NotNil(t, result.Payment)
	assert.Equal(t, models.PaymentStatusPending, result.Payment.Status)
	assert.Equal(t, "enr-new", *result.Payment.EnrollmentID)
	assert.Len(t, repo.created, 1)
	assert.Len(t, payments.created, 1)
	require.NoError(t, tx.mock.ExpectationsWereMet())
}

func TestJoinClassFreeEnrollsImmediately(t *testing.T) {
	class := &models.Class{ID: "c-1", SessionPrice: decimal.Zero}
	svc, _, payments, tx := newEnrollmentFixture(t, class, 8)
	tx.mock.ExpectBegin()
	tx.mock.ExpectCommit()

	result, err := svc.JoinClass(context.Background(), student("stu-1"), "c-1")
	require.NoError(t, err)
	assert.True(t, result.Amount.IsZero())
	assert.Equal(t, models.EnrollmentStatusEnrolled, result.Enrollment.Status)
	assert.Nil(t, result.Payment)
	assert.Empty(t, payments.created)
}

func TestJoinClassRejections(t *testing.T) {
	capacity := 1
	class := &models.Class{ID: "c-1", SessionPrice: money(1000), MaxCapacity: &capacity}
	other := &models.Enrollment{ID: "e-1", ClassID: "c-1", StudentID: "stu-9", Status: models.EnrollmentStatusPendingPayment}

	svc, repo, _, classes, tx := newEnrollmentFixtureWithClasses(t, class, 4, other)
	tx.mock.ExpectBegin()
	tx.mock.ExpectRollback()
	_, err := svc.JoinClass(context.Background(), student("stu-1"), "c-1")
	assert.ErrorIs(t, err, appErrors.ErrConflict, "pending enrollments count towards capacity")
	assert.Equal(t, []string{"c-1"}, classes.locked)
	assert.Empty(t, repo.created)
	require.NoError(t, tx.mock.ExpectationsWereMet())

	_, err = svc.JoinClass(context.Background(), student("stu-9"), "c-1")
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.JoinClass(context.Background(), student("stu-1"), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.JoinClass(context.Background(), teacher("t-1"), "c-1")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestJoinClassUncappedSkipsClassLock(t *testing.T) {
	class := &models.Class{ID: "c-1", SessionPrice: money(1000)}
	svc, _, _, classes, tx := newEnrollmentFixtureWithClasses(t, class, 2)
	tx.mock.ExpectBegin()
	tx.mock.ExpectCommit()

	_, err := svc.JoinClass(context.Background(), student("stu-1"), "c-1")
	require.NoError(t, err)
	assert.Empty(t, classes.locked)
	require.NoError(t, tx.mock.ExpectationsWereMet())
}

func TestJoinClassUniqueViolationIsConflict(t *testing.T) {
	class := &models.Class{ID: "c-1", SessionPrice: money(1000)}
	svc, repo, _, tx := newEnrollmentFixture(t, class, 2)
	repo.createErr = &pq.Error{Code: "23505"}
	tx.mock.ExpectBegin()
	tx.mock.ExpectRollback()

	_, err := svc.JoinClass(context.Background(), student("stu-1"), "c-1")
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	require.NoError(t, tx.mock.ExpectationsWereMet())
}

func TestJoinClassStoreFailureRollsBack(t *testing.T) {
	class := &models.Class{ID: "c-1", SessionPrice: money(1000)}
	svc, repo, _, tx := newEnrollmentFixture(t, class, 2)
	repo.createErr = errors.New("disk full")
	tx.mock.ExpectBegin()
	tx.mock.ExpectRollback()

	_, err := svc.JoinClass(context.Background(), student("stu-1"), "c-1")
	assert.ErrorIs(t, err, appErrors.ErrStoreFailure)
	require.NoError(t, tx.mock.ExpectationsWereMet())
}

func TestQuoteUsesActiveSessionCount(t *testing.T) {
	class := &models.Class{ID: "c-1", SessionPrice: money(75000)}
	svc, _, _, _ := newEnrollmentFixture(t, class, 6)

	amount, err := svc.Quote(context.Background(), "c-1")
	require.NoError(t, err)
	assert.True(t, amount.Equal(money(450000)))
}

func TestWithdraw(t *testing.T) {
	class := &models.Class{ID: "c-1", SessionPrice: money(1000)}
	existing := &models.Enrollment{ID: "e-1", ClassID: "c-1", StudentID: "stu-1", Status: models.EnrollmentStatusEnrolled}
	svc, repo, _, _ := newEnrollmentFixture(t, class, 2, existing)

	require.NoError(t, svc.Withdraw(context.Background(), student("stu-1"), "c-1"))
	assert.Empty(t, repo.items)

	err := svc.Withdraw(context.Background(), student("stu-1"), "c-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestWithdrawRequiresStudent(t *testing.T) {
	class := &models.Class{ID: "c-1", SessionPrice: money(1000)}
	existing := &models.Enrollment{ID: "e-1", ClassID: "c-1", StudentID: "t-1", Status: models.EnrollmentStatusEnrolled}
	svc, repo, _, _ := newEnrollmentFixture(t, class, 2, existing)

	err := svc.Withdraw(context.Background(), teacher("t-1"), "c-1")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	err = svc.Withdraw(context.Background(), admin(), "c-1")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Len(t, repo.items, 1)

	err = svc.Withdraw(context.Background(), nil, "c-1")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
