package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erfannorozi54/Rashed-sub001/internal/dto"
	"github.com/erfannorozi54/Rashed-sub001/internal/models"
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
)

type enrollmentServiceMock struct {
	err       error
	gotActor  *models.JWTClaims
	gotClass  string
	withdrawn bool
}

func (m *enrollmentServiceMock) Quote(ctx context.Context, classID string) (decimal.Decimal, error) {
	m.gotClass = classID
	return decimal.NewFromInt(400000), m.err
}

func (m *enrollmentServiceMock) JoinClass(ctx context.Context, actor *models.JWTClaims, classID string) (*dto.JoinClassResult, error) {
	m.gotActor, m.gotClass = actor, classID
	if m.err != nil {
		return nil, m.err
	}
	return &dto.JoinClassResult{
		Enrollment: models.Enrollment{ClassID: classID, StudentID: actor.UserID, Status: models.EnrollmentStatusPendingPayment},
		Amount:     decimal.NewFromInt(400000),
	}, nil
}

func (m *enrollmentServiceMock) Withdraw(ctx context.Context, actor *models.JWTClaims, classID string) error {
	m.withdrawn = m.err == nil
	return m.err
}

func TestEnrollmentHandlerJoin(t *testing.T) {
	svc := &enrollmentServiceMock{}
	h := NewEnrollmentHandler(svc)
	c, w := newTestContext(http.MethodPost, "/classes/c-1/enroll", "", studentClaims, idParam("c-1"))

	h.Join(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Same(t, studentClaims, svc.gotActor)
	assert.Equal(t, "c-1", svc.gotClass)
	assert.Contains(t, string(decode(t, w).Data), `"amount":"400000"`)
}

func TestEnrollmentHandlerJoinErrors(t *testing.T) {
	cases := map[error]int{
		appErrors.Clone(appErrors.ErrConflict, "already enrolled"): http.StatusConflict,
		appErrors.Clone(appErrors.ErrBusinessRule, "class is full"): http.StatusUnprocessableEntity,
		appErrors.ErrForbidden: http.StatusForbidden,
	}
	for err, status := range cases {
		h := NewEnrollmentHandler(&enrollmentServiceMock{err: err})
		c, w := newTestContext(http.MethodPost, "/classes/c-1/enroll", "", studentClaims, idParam("c-1"))
		h.Join(c)
		assert.Equal(t, status, w.Code, err.Error())
	}
}

func TestEnrollmentHandlerQuoteAndWithdraw(t *testing.T) {
	svc := &enrollmentServiceMock{}
	h := NewEnrollmentHandler(svc)

	c, w := newTestContext(http.MethodGet, "/classes/c-1/quote", "", studentClaims, idParam("c-1"))
	h.Quote(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"amount":"400000"}`, string(decode(t, w).Data))

	c, w = newTestContext(http.MethodDelete, "/classes/c-1/enroll", "", studentClaims, idParam("c-1"))
	h.Withdraw(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, svc.withdrawn)
}
