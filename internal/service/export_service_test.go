package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erfannorozi54/Rashed-sub001/internal/dto"
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
)

func newExportServiceForTest() *ExportService {
	debts := &debtStub{summary: &dto.DebtSummary{
		StudentID: "stu-1",
		Debt:      money(200000),
		Breakdown: []dto.DebtBreakdownItem{
			{ClassID: "A", ClassTitle: "Algebra", SessionCount: 3, SessionPrice: money(100000), Cost: money(300000), Paid: money(300000), Net: money(0)},
			{ClassID: "B", SessionCount: 4, SessionPrice: money(50000), Cost: money(200000), Net: money(200000)},
		},
	}}
	svc := NewExportService(debts, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestDebtStatementCSV(t *testing.T) {
	svc := newExportServiceForTest()

	result, err := svc.DebtStatement(context.Background(), student("stu-1"), "stu-1", "")
	require.NoError(t, err)
	assert.Equal(t, "debt-statement-stu-1-20261019.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)

	body := string(result.Payload)
	assert.True(t, strings.HasPrefix(body, "class,sessions,session_price,cost,fees,paid,net"))
	assert.Contains(t, body, "Algebra,3,100000.00,300000.00,0.00,300000.00,0.00")
	assert.Contains(t, body, "B,4,50000.00")
	assert.Contains(t, body, "Total debt: 200000.00")
}

func TestDebtStatementPDF(t *testing.T) {
	svc := newExportServiceForTest()

	result, err := svc.DebtStatement(context.Background(), admin(), "stu-1", "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Payload), "%PDF"))
}

func TestDebtStatementRejectsUnknownFormatAndForeignStudent(t *testing.T) {
	svc := newExportServiceForTest()

	_, err := svc.DebtStatement(context.Background(), student("stu-1"), "stu-1", "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.DebtStatement(context.Background(), student("stu-2"), "stu-1", "csv")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
