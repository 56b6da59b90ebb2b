package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erfannorozi54/Rashed-sub001/internal/dto"
	"github.com/erfannorozi54/Rashed-sub001/internal/models"
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
)

func strPtr(v string) *string {
	return &v
}

func TestCreatePayment(t *testing.T) {
	enrollments := newEnrollmentRepoStub(&models.Enrollment{ID: "e-1", ClassID: "c-1", StudentID: "stu-1", Status: models.EnrollmentStatusEnrolled})
	payments := newPaymentRepoStub()
	svc := NewPaymentService(payments, enrollments, nil, nil, nil)

	payment, err := svc.CreatePayment(context.Background(), student("stu-1"), dto.CreatePaymentRequest{ClassID: "c-1", Amount: money(120000)})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, "e-1", *payment.EnrollmentID)

	_, err = svc.CreatePayment(context.Background(), student("stu-1"), dto.CreatePaymentRequest{ClassID: "c-1", Amount: decimal.Zero})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.CreatePayment(context.Background(), student("stu-2"), dto.CreatePaymentRequest{ClassID: "c-1", Amount: money(1)})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCreatePaymentRejectsEnrollmentAwaitingJoinPayment(t *testing.T) {
	enrollments := newEnrollmentRepoStub(&models.Enrollment{ID: "e-1", ClassID: "c-1", StudentID: "stu-1", Status: models.EnrollmentStatusPendingPayment})
	payments := newPaymentRepoStub(&models.Payment{ID: "p-join", EnrollmentID: strPtr("e-1"), Amount: money(400000), Status: models.PaymentStatusPending})
	svc := NewPaymentService(payments, enrollments, nil, nil, nil)

	_, err := svc.CreatePayment(context.Background(), student("stu-1"), dto.CreatePaymentRequest{ClassID: "c-1", Amount: money(1)})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Empty(t, payments.created)
}

func TestSettlePaymentSuccessCreditsEnrollment(t *testing.T) {
	enrollments := newEnrollmentRepoStub(&models.Enrollment{ID: "e-1", ClassID: "c-1", StudentID: "stu-1", Status: models.EnrollmentStatusPendingPayment, PaidAmount: money(100)})
	payments := newPaymentRepoStub(&models.Payment{ID: "p-1", StudentID: "stu-1", ClassID: "c-1", EnrollmentID: strPtr("e-1"), Amount: money(400000), Status: models.PaymentStatusPending})
	tx, mock := newTxProviderMock(t)
	svc := NewPaymentService(payments, enrollments, tx, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }
	mock.ExpectBegin()
	mock.ExpectCommit()

	payment, err := svc.SettlePayment(context.Background(), "p-1", true)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
	require.NotNil(t, payment.PaidAt)
	assert.Equal(t, models.PaymentStatusSuccess, payments.updates["p-1"])
	assert.True(t, enrollments.ledger["e-1"].Equal(money(400100)))
	assert.Equal(t, models.EnrollmentStatusEnrolled, enrollments.statuses["e-1"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettlePaymentOtherThanJoinPaymentKeepsEnrollmentPending(t *testing.T) {
	enrollments := newEnrollmentRepoStub(&models.Enrollment{ID: "e-1", ClassID: "c-1", StudentID: "stu-1", Status: models.EnrollmentStatusPendingPayment})
	payments := newPaymentRepoStub(
		&models.Payment{ID: "p-join", StudentID: "stu-1", ClassID: "c-1", EnrollmentID: strPtr("e-1"), Amount: money(400000), Status: models.PaymentStatusPending},
	)
	payments.items["p-small"] = &models.Payment{ID: "p-small", StudentID: "stu-1", ClassID: "c-1", EnrollmentID: strPtr("e-1"), Amount: money(1), Status: models.PaymentStatusPending}
	tx, mock := newTxProviderMock(t)
	svc := NewPaymentService(payments, enrollments, tx, nil, nil)
	mock.ExpectBegin()
	mock.ExpectCommit()

	payment, err := svc.SettlePayment(context.Background(), "p-small", true)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
	assert.True(t, enrollments.ledger["e-1"].Equal(money(1)))
	assert.Equal(t, models.EnrollmentStatusPendingPayment, enrollments.statuses["e-1"])
	assert.NotContains(t, payments.updates, "p-join")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettlePaymentKeepsEnrolledStatus(t *testing.T) {
	enrollments := newEnrollmentRepoStub(&models.Enrollment{ID: "e-1", ClassID: "c-1", StudentID: "stu-1", Status: models.EnrollmentStatusEnrolled, PaidAmount: money(400000)})
	payments := newPaymentRepoStub(&models.Payment{ID: "p-2", EnrollmentID: strPtr("e-1"), Amount: money(50000), Status: models.PaymentStatusPending})
	tx, mock := newTxProviderMock(t)
	svc := NewPaymentService(payments, enrollments, tx, nil, nil)
	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.SettlePayment(context.Background(), "p-2", true)
	require.NoError(t, err)
	assert.True(t, enrollments.ledger["e-1"].Equal(money(450000)))
	assert.Equal(t, models.EnrollmentStatusEnrolled, enrollments.statuses["e-1"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettlePaymentFailure(t *testing.T) {
	enrollments := newEnrollmentRepoStub(&models.Enrollment{ID: "e-1", ClassID: "c-1", StudentID: "stu-1", Status: models.EnrollmentStatusPendingPayment})
	payments := newPaymentRepoStub(&models.Payment{ID: "p-1", EnrollmentID: strPtr("e-1"), Amount: money(10), Status: models.PaymentStatusPending})
	tx, mock := newTxProviderMock(t)
	svc := NewPaymentService(payments, enrollments, tx, nil, nil)
	mock.ExpectBegin()
	mock.ExpectCommit()

	payment, err := svc.SettlePayment(context.Background(), "p-1", false)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	assert.Empty(t, enrollments.ledger)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettlePaymentOnlyPending(t *testing.T) {
	payments := newPaymentRepoStub(&models.Payment{ID: "p-1", Amount: money(10), Status: models.PaymentStatusSuccess})
	tx, mock := newTxProviderMock(t)
	svc := NewPaymentService(payments, newEnrollmentRepoStub(), tx, nil, nil)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.SettlePayment(context.Background(), "p-1", true)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.SettlePayment(context.Background(), "missing", true)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
