package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/erfannorozi54/Rashed-sub001/internal/models"
)

// RescheduleRepository stores reschedule audit rows, which double as the fee ledger.
type RescheduleRepository struct {
	db *sqlx.DB
}

// NewRescheduleRepository constructs the repository.
func NewRescheduleRepository(db *sqlx.DB) *RescheduleRepository {
	return &RescheduleRepository{db: db}
}

func (r *RescheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts an audit row.
func (r *RescheduleRepository) Create(ctx context.Context, exec sqlx.ExtContext, record *models.SessionReschedule) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO session_reschedules (id, original_session_id, new_session_id, student_id, class_id, fee, settlement, created_at)
        VALUES (:id, :original_session_id, :new_session_id, :student_id, :class_id, :fee, :settlement, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, record); err != nil {
		return fmt.Errorf("create session reschedule: %w", err)
	}
	return nil
}

// SumFeesByStudent totals fees of the given settlement per class for one student.
func (r *RescheduleRepository) SumFeesByStudent(ctx context.Context, studentID string, settlement models.RescheduleSettlement) (map[string]decimal.Decimal, error) {
	const query = `SELECT class_id, COALESCE(SUM(fee), 0) AS total FROM session_reschedules
        WHERE student_id = $1 AND settlement = $2 GROUP BY class_id`
	var rows []models.ClassFeeTotal
	if err := r.db.SelectContext(ctx, &rows, query, studentID, settlement); err != nil {
		return nil, fmt.Errorf("sum reschedule fees: %w", err)
	}
	out := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.ClassID] = row.Total
	}
	return out, nil
}
