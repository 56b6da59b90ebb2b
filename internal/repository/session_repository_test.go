package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erfannorozi54/Rashed-sub001/internal/models"
)

func TestSessionRepositoryCancelIfActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	query := regexp.QuoteMeta("UPDATE class_session_events SET cancelled = TRUE WHERE id = $1 AND cancelled = FALSE")
	mock.ExpectExec(query).WithArgs("sess-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("sess-1").WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.CancelIfActive(context.Background(), nil, "sess-1")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.CancelIfActive(context.Background(), nil, "sess-1")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCancelIfActiveError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("UPDATE class_session_events").WillReturnError(errors.New("connection reset"))

	_, err := repo.CancelIfActive(context.Background(), nil, "sess-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancel session")
}

func TestSessionRepositoryListBusyByTeacher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	from := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "class_id", "title", "date", "session_duration"}).
		AddRow("sess-1", "class-1", "Harmony", from.Add(10*time.Hour), 90)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ct.teacher_id = $1 AND e.cancelled = FALSE AND e.date >= $2 AND e.date < $3")).
		WithArgs("teacher-1", from, to).
		WillReturnRows(rows)

	sessions, err := repo.ListBusyByTeacher(context.Background(), "teacher-1", from, to)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 90, sessions[0].SessionDuration)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCountActiveUntil(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	until := time.Now().Add(30 * 24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM class_session_events WHERE class_id = $1 AND cancelled = FALSE AND date <= $2")).
		WithArgs("class-1", until).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountActive(context.Background(), "class-1", &until)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreateDefaultsType(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("INSERT INTO class_session_events").WillReturnResult(sqlmock.NewResult(1, 1))

	session := &models.ClassSessionEvent{ClassID: "class-1", Date: time.Now().Add(48 * time.Hour)}
	require.NoError(t, repo.Create(context.Background(), nil, session))
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, models.SessionTypeScheduled, session.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}
