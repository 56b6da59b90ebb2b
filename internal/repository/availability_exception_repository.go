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

// AvailabilityExceptionRepository stores date-specific blocks on a teacher's availability.
type AvailabilityExceptionRepository struct {
	db *sqlx.DB
}

// NewAvailabilityExceptionRepository constructs repository.
func NewAvailabilityExceptionRepository(db *sqlx.DB) *AvailabilityExceptionRepository {
	return &AvailabilityExceptionRepository{db: db}
}

const exceptionColumns = `id, teacher_id, date, start_time, end_time, reason, created_at`

// Create inserts an exception.
func (r *AvailabilityExceptionRepository) Create(ctx context.Context, exception *models.AvailabilityException) error {
	if exception.ID == "" {
		exception.ID = uuid.NewString()
	}
	if exception.CreatedAt.IsZero() {
		exception.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO availability_exceptions (` + exceptionColumns + `)
VALUES ($1, $2, $3::date, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query,
		exception.ID, exception.TeacherID, exception.Date.Format("2006-01-02"),
		exception.StartTime, exception.EndTime, exception.Reason, exception.CreatedAt,
	); err != nil {
		return fmt.Errorf("create availability exception: %w", err)
	}
	return nil
}

// FindByID returns one exception.
func (r *AvailabilityExceptionRepository) FindByID(ctx context.Context, id string) (*models.AvailabilityException, error) {
	query := `SELECT ` + exceptionColumns + ` FROM availability_exceptions WHERE id = $1`
	var exception models.AvailabilityException
	if err := r.db.GetContext(ctx, &exception, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find availability exception: %w", err)
	}
	return &exception, nil
}

// ListByTeacher returns exceptions whose date falls in [from, to]. Nil bounds are open.
func (r *AvailabilityExceptionRepository) ListByTeacher(ctx context.Context, teacherID string, from, to *time.Time) ([]models.AvailabilityException, error) {
	query := `SELECT ` + exceptionColumns + ` FROM availability_exceptions WHERE teacher_id = $1`
	args := []interface{}{teacherID}
	if from != nil {
		args = append(args, from.Format("2006-01-02"))
		query += fmt.Sprintf(" AND date >= $%d::date", len(args))
	}
	if to != nil {
		args = append(args, to.Format("2006-01-02"))
		query += fmt.Sprintf(" AND date <= $%d::date", len(args))
	}
	query += ` ORDER BY date ASC, start_time ASC NULLS FIRST`
	var exceptions []models.AvailabilityException
	if err := r.db.SelectContext(ctx, &exceptions, query, args...); err != nil {
		return nil, fmt.Errorf("list availability exceptions: %w", err)
	}
	return exceptions, nil
}

// Delete removes an exception.
func (r *AvailabilityExceptionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM availability_exceptions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete availability exception: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("availability exception rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
