package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/erfannorozi54/Rashed-sub001/internal/models"
)

// PaymentRepository persists payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const paymentColumns = `id, student_id, class_id, enrollment_id, amount, status, paid_at, created_at`

// Create inserts a payment.
func (r *PaymentRepository) Create(ctx context.Context, exec sqlx.ExtContext, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	query := `INSERT INTO payments (` + paymentColumns + `)
        VALUES (:id, :student_id, :class_id, :enrollment_id, :amount, :status, :paid_at, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// FindByID returns a payment.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &payment, nil
}

// LockByID loads a payment with a row lock held until the transaction ends.
func (r *PaymentRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`
	var payment models.Payment
	if err := sqlx.GetContext(ctx, r.exec(exec), &payment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock payment: %w", err)
	}
	return &payment, nil
}

// UpdateStatus records the settlement outcome.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.PaymentStatus, paidAt *time.Time) error {
	const query = `UPDATE payments SET status = $2, paid_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, status, paidAt); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}

// JoinPaymentID returns the first payment opened for an enrollment, which JoinClass writes in the
// same transaction as the enrollment.
func (r *PaymentRepository) JoinPaymentID(ctx context.Context, exec sqlx.ExtContext, enrollmentID string) (string, error) {
	const query = `SELECT id FROM payments WHERE enrollment_id = $1 ORDER BY created_at, id LIMIT 1`
	var id string
	if err := sqlx.GetContext(ctx, r.exec(exec), &id, query, enrollmentID); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("find join payment: %w", err)
	}
	return id, nil
}
