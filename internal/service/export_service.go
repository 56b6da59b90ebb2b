package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erfannorozi54/Rashed-sub001/internal/dto"
	"github.com/erfannorozi54/Rashed-sub001/internal/models"
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
	"github.com/erfannorozi54/Rashed-sub001/pkg/export"
)

// Statement formats.
const (
	StatementFormatCSV = "csv"
	StatementFormatPDF = "pdf"
)

type debtReader interface {
	GetDebt(ctx context.Context, actor *models.JWTClaims, studentID string) (*dto.DebtSummary, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered document ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders debt statements as CSV or PDF.
type ExportService struct {
	debts  debtReader
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(debts debtReader, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{debts: debts, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// DebtStatement renders the student's debt breakdown in the requested format.
func (s *ExportService) DebtStatement(ctx context.Context, actor *models.JWTClaims, studentID, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = StatementFormatCSV
	}
	if format != StatementFormatCSV && format != StatementFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	summary, err := s.debts.GetDebt(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}

	dataset := buildStatementDataset(summary)
	generated := s.now().UTC()
	filename := fmt.Sprintf("debt-statement-%s-%s.%s", studentID, generated.Format("20060102"), format)

	var (
		payload     []byte
		contentType string
	)
	switch format {
	case StatementFormatPDF:
		payload, err = s.pdf.Render(dataset, "Debt statement")
		contentType = "application/pdf"
	default:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statement")
	}

	s.logger.Info("debt statement exported",
		zap.String("student_id", studentID),
		zap.String("format", format),
		zap.Int("bytes", len(payload)),
	)
	return &ExportResult{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

func buildStatementDataset(summary *dto.DebtSummary) export.Dataset {
	headers := []string{"class", "sessions", "session_price", "cost", "fees", "paid", "net"}
	rows := make([]map[string]string, 0, len(summary.Breakdown))
	for _, item := range summary.Breakdown {
		class := item.ClassTitle
		if class == "" {
			class = item.ClassID
		}
		rows = append(rows, map[string]string{
			"class":         class,
			"sessions":      fmt.Sprintf("%d", item.SessionCount),
			"session_price": item.SessionPrice.StringFixed(2),
			"cost":          item.Cost.StringFixed(2),
			"fees":          item.Fees.StringFixed(2),
			"paid":          item.Paid.StringFixed(2),
			"net":           item.Net.StringFixed(2),
		})
	}
	return export.Dataset{
		Headers: headers,
		Rows:    rows,
		Summary: []string{fmt.Sprintf("Total debt: %s", summary.Debt.StringFixed(2))},
	}
}
