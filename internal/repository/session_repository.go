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

// SessionRepository persists class session events.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID returns a session by ID regardless of its cancelled flag.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSessionEvent, error) {
	const query = `SELECT id, class_id, title, description, date, type, cancelled, created_by, created_at FROM class_session_events WHERE id = $1`
	var session models.ClassSessionEvent
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSessionEvent) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	if session.Type == "" {
		session.Type = models.SessionTypeScheduled
	}
	const query = `INSERT INTO class_session_events (id, class_id, title, description, date, type, cancelled, created_by, created_at)
        VALUES (:id, :class_id, :title, :description, :date, :type, :cancelled, :created_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// CancelIfActive flips cancelled to true only when it is still false. It reports whether a row changed,
// so two concurrent callers cannot both cancel the same session.
func (r *SessionRepository) CancelIfActive(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error) {
	const query = `UPDATE class_session_events SET cancelled = TRUE WHERE id = $1 AND cancelled = FALSE`
	result, err := r.exec(exec).ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("cancel session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("session rows affected: %w", err)
	}
	return affected > 0, nil
}

// CountActive counts non-cancelled sessions of a class, optionally only those starting at or before until.
func (r *SessionRepository) CountActive(ctx context.Context, classID string, until *time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM class_session_events WHERE class_id = $1 AND cancelled = FALSE`
	args := []interface{}{classID}
	if until != nil {
		query += ` AND date <= $2`
		args = append(args, *until)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return total, nil
}

// ListBusyByTeacher returns non-cancelled sessions of every class the teacher teaches that start in [from, to).
func (r *SessionRepository) ListBusyByTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]models.BusySession, error) {
	const query = `SELECT e.id, e.class_id, e.title, e.date, c.session_duration
        FROM class_session_events e
        JOIN classes c ON c.id = e.class_id
        JOIN class_teachers ct ON ct.class_id = e.class_id
        WHERE ct.teacher_id = $1 AND e.cancelled = FALSE AND e.date >= $2 AND e.date < $3
        ORDER BY e.date ASC`
	var sessions []models.BusySession
	if err := r.db.SelectContext(ctx, &sessions, query, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("list teacher sessions: %w", err)
	}
	return sessions, nil
}
