package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/erfannorozi54/Rashed-sub001/internal/models"
)

// RefundRepository persists refund requests.
type RefundRepository struct {
	db *sqlx.DB
}

// NewRefundRepository constructs the repository.
func NewRefundRepository(db *sqlx.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const refundColumns = `id, payment_id, student_id, amount, reason, status, processed_by, processed_at, created_at`

// Create inserts a refund request.
func (r *RefundRepository) Create(ctx context.Context, exec sqlx.ExtContext, refund *models.RefundRequest) error {
	if refund.ID == "" {
		refund.ID = uuid.NewString()
	}
	if refund.CreatedAt.IsZero() {
		refund.CreatedAt = time.Now().UTC()
	}
	if refund.Status == "" {
		refund.Status = models.RefundStatusPending
	}
	query := `INSERT INTO refund_requests (` + refundColumns + `)
        VALUES (:id, :payment_id, :student_id, :amount, :reason, :status, :processed_by, :processed_at, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, refund); err != nil {
		return fmt.Errorf("create refund request: %w", err)
	}
	return nil
}

// LockByID loads a refund request with a row lock held until the transaction ends.
func (r *RefundRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RefundRequest, error) {
	query := `SELECT ` + refundColumns + ` FROM refund_requests WHERE id = $1 FOR UPDATE`
	var refund models.RefundRequest
	if err := sqlx.GetContext(ctx, r.exec(exec), &refund, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock refund request: %w", err)
	}
	return &refund, nil
}

// SumOpenByPayment totals pending and approved refunds of a payment.
func (r *RefundRepository) SumOpenByPayment(ctx context.Context, exec sqlx.ExtContext, paymentID string) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM refund_requests WHERE payment_id = $1 AND status IN ($2, $3)`
	var total decimal.Decimal
	if err := sqlx.GetContext(ctx, r.exec(exec), &total, query, paymentID, models.RefundStatusPending, models.RefundStatusApproved); err != nil {
		return decimal.Zero, fmt.Errorf("sum refunds: %w", err)
	}
	return total, nil
}

// MarkProcessed moves a refund request out of PENDING.
func (r *RefundRepository) MarkProcessed(ctx context.Context, exec sqlx.ExtContext, id string, status models.RefundStatus, processedBy string, processedAt time.Time) error {
	const query = `UPDATE refund_requests SET status = $2, processed_by = $3, processed_at = $4 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, status, processedBy, processedAt); err != nil {
		return fmt.Errorf("update refund request: %w", err)
	}
	return nil
}
