package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erfannorozi54/Rashed-sub001/internal/models"
)

// ClassRepository manages persistence for classes and their teaching assignments.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = `id, title, session_price, min_sessions_to_pay, max_capacity, session_duration, class_type, created_at`

// FindByID returns a class by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT ` + classColumns + ` FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return &class, nil
}

// LockByID loads a class holding a row lock until the transaction ends. Joins serialise on it.
func (r *ClassRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Class, error) {
	const query = `SELECT ` + classColumns + ` FROM classes WHERE id = $1 FOR UPDATE`
	if exec == nil {
		exec = r.db
	}
	var class models.Class
	if err := sqlx.GetContext(ctx, exec, &class, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock class: %w", err)
	}
	return &class, nil
}

// ListTeachers returns the class's teaching assignments, earliest first.
func (r *ClassRepository) ListTeachers(ctx context.Context, classID string) ([]models.ClassTeacher, error) {
	const query = `SELECT class_id, teacher_id, created_at FROM class_teachers WHERE class_id = $1 ORDER BY created_at ASC, teacher_id ASC`
	var teachers []models.ClassTeacher
	if err := r.db.SelectContext(ctx, &teachers, query, classID); err != nil {
		return nil, fmt.Errorf("list class teachers: %w", err)
	}
	return teachers, nil
}

// IsTeacher reports whether the teacher is assigned to the class.
func (r *ClassRepository) IsTeacher(ctx context.Context, classID, teacherID string) (bool, error) {
	const query = `SELECT 1 FROM class_teachers WHERE class_id = $1 AND teacher_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, classID, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check class teacher: %w", err)
	}
	return true, nil
}
