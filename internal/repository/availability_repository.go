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

// AvailabilityRepository persists versioned weekly availability sets and the head pointer to the current one.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a set assigning the next version for the teacher.
func (r *AvailabilityRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, set *models.AvailabilitySet) error {
	if set == nil {
		return fmt.Errorf("availability set payload is nil")
	}
	if set.TeacherID == "" {
		return fmt.Errorf("teacher_id is required")
	}
	if set.ID == "" {
		set.ID = uuid.NewString()
	}
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now().UTC()
	}

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM teacher_availability_sets WHERE teacher_id = $1`
	if err := sqlx.GetContext(ctx, target, &set.Version, nextVersionQuery, set.TeacherID); err != nil {
		return fmt.Errorf("compute next availability version: %w", err)
	}

	const insertQuery = `
INSERT INTO teacher_availability_sets (id, teacher_id, version, created_at)
VALUES (:id, :teacher_id, :version, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, set); err != nil {
		return fmt.Errorf("insert availability set: %w", err)
	}
	return nil
}

// InsertSlots stores the windows belonging to a set.
func (r *AvailabilityRepository) InsertSlots(ctx context.Context, exec sqlx.ExtContext, slots []models.TeacherAvailability) error {
	if len(slots) == 0 {
		return nil
	}
	target := r.exec(exec)
	const query = `
INSERT INTO teacher_availabilities (id, set_id, teacher_id, day_of_week, start_time, end_time)
VALUES (:id, :set_id, :teacher_id, :day_of_week, :start_time, :end_time)`
	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, slot); err != nil {
			return fmt.Errorf("insert availability slot: %w", err)
		}
	}
	return nil
}

// SetHead points the teacher at a set. Readers switch to the new set only once the transaction commits.
func (r *AvailabilityRepository) SetHead(ctx context.Context, exec sqlx.ExtContext, teacherID, setID string) error {
	const query = `
INSERT INTO teacher_availability_heads (teacher_id, set_id, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (teacher_id) DO UPDATE SET set_id = EXCLUDED.set_id, updated_at = EXCLUDED.updated_at`
	if _, err := r.exec(exec).ExecContext(ctx, query, teacherID, setID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update availability head: %w", err)
	}
	return nil
}

// CurrentSet returns the set the head points at.
func (r *AvailabilityRepository) CurrentSet(ctx context.Context, teacherID string) (*models.AvailabilitySet, error) {
	const query = `SELECT s.id, s.teacher_id, s.version, s.created_at
FROM teacher_availability_heads h
JOIN teacher_availability_sets s ON s.id = h.set_id
WHERE h.teacher_id = $1`
	var set models.AvailabilitySet
	if err := r.db.GetContext(ctx, &set, query, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find current availability set: %w", err)
	}
	return &set, nil
}

// ListCurrent returns every window of the current set, optionally for one weekday (pass a negative day for all).
func (r *AvailabilityRepository) ListCurrent(ctx context.Context, teacherID string, dayOfWeek int) ([]models.TeacherAvailability, error) {
	query := `SELECT a.id, a.set_id, a.teacher_id, a.day_of_week, a.start_time, a.end_time
FROM teacher_availability_heads h
JOIN teacher_availabilities a ON a.set_id = h.set_id
WHERE h.teacher_id = $1`
	args := []interface{}{teacherID}
	if dayOfWeek >= 0 {
		query += ` AND a.day_of_week = $2`
		args = append(args, dayOfWeek)
	}
	query += ` ORDER BY a.day_of_week ASC, a.start_time ASC`
	var slots []models.TeacherAvailability
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return slots, nil
}
