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

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const enrollmentColumns = `id, class_id, student_id, status, paid_amount, created_at, updated_at`

// FindByClassAndStudent returns the enrollment of a student in a class.
func (r *EnrollmentRepository) FindByClassAndStudent(ctx context.Context, classID, studentID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE class_id = $1 AND student_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, classID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// LockByID loads an enrollment holding a row lock for the rest of the transaction.
func (r *EnrollmentRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1 FOR UPDATE`
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, r.exec(exec), &enrollment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock enrollment: %w", err)
	}
	return &enrollment, nil
}

// CountByClass counts enrollments of a class, optionally restricted to one status.
func (r *EnrollmentRepository) CountByClass(ctx context.Context, classID string, status models.EnrollmentStatus) (int, error) {
	query := `SELECT COUNT(*) FROM enrollments WHERE class_id = $1`
	args := []interface{}{classID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return total, nil
}

// CountSeats counts every enrollment of a class, pending or not, through exec.
func (r *EnrollmentRepository) CountSeats(ctx context.Context, exec sqlx.ExtContext, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE class_id = $1`
	var total int
	if err := sqlx.GetContext(ctx, r.exec(exec), &total, query, classID); err != nil {
		return 0, fmt.Errorf("count class seats: %w", err)
	}
	return total, nil
}

// ListBillingByStudent returns the student's enrollments in a status joined with class pricing.
func (r *EnrollmentRepository) ListBillingByStudent(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.EnrollmentBilling, error) {
	const query = `SELECT e.id, e.class_id, e.student_id, e.status, e.paid_amount, e.created_at, e.updated_at,
        c.title AS class_title, c.session_price
        FROM enrollments e
        JOIN classes c ON c.id = e.class_id
        WHERE e.student_id = $1 AND e.status = $2
        ORDER BY e.created_at ASC`
	var items []models.EnrollmentBilling
	if err := r.db.SelectContext(ctx, &items, query, studentID, status); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return items, nil
}

// Create persists a new enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now
	const query = `INSERT INTO enrollments (id, class_id, student_id, status, paid_amount, created_at, updated_at)
        VALUES (:id, :class_id, :student_id, :status, :paid_amount, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateLedger stores a new paid amount and status.
func (r *EnrollmentRepository) UpdateLedger(ctx context.Context, exec sqlx.ExtContext, id string, paid decimal.Decimal, status models.EnrollmentStatus) error {
	const query = `UPDATE enrollments SET paid_amount = $2, status = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, paid, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollment ledger: %w", err)
	}
	return nil
}

// Delete removes the enrollment of a student in a class.
func (r *EnrollmentRepository) Delete(ctx context.Context, classID, studentID string) error {
	const query = `DELETE FROM enrollments WHERE class_id = $1 AND student_id = $2`
	result, err := r.db.ExecContext(ctx, query, classID, studentID)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("enrollment rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
