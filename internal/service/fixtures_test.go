package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/erfannorozi54/Rashed-sub001/internal/dto"
	"github.com/erfannorozi54/Rashed-sub001/internal/models"
	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func money(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func student(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent}
}

func teacher(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleTeacher}
}

func admin() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

type userStub struct {
	users map[string]*models.User
	err   error
}

func (s *userStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

// memoryCache is a CacheRepository backed by a map of JSON payloads.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	gets  int
	sets  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.items[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

func (m *memoryCache) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.items))
	for k := range m.items {
		out = append(out, k)
	}
	return out
}

type availabilityRepoStub struct {
	set      *models.AvailabilitySet
	slots    []models.TeacherAvailability
	listErr  error
	inserted []models.TeacherAvailability
	heads    []string
	calls    int
}

func (s *availabilityRepoStub) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, set *models.AvailabilitySet) error {
	version := 1
	if s.set != nil {
		version = s.set.Version + 1
	}
	set.ID = "set-new"
	set.Version = version
	return nil
}

func (s *availabilityRepoStub) InsertSlots(ctx context.Context, exec sqlx.ExtContext, slots []models.TeacherAvailability) error {
	s.inserted = append(s.inserted, slots...)
	return nil
}

func (s *availabilityRepoStub) SetHead(ctx context.Context, exec sqlx.ExtContext, teacherID, setID string) error {
	s.heads = append(s.heads, setID)
	return nil
}

func (s *availabilityRepoStub) CurrentSet(ctx context.Context, teacherID string) (*models.AvailabilitySet, error) {
	if s.set == nil {
		return nil, sql.ErrNoRows
	}
	return s.set, nil
}

func (s *availabilityRepoStub) ListCurrent(ctx context.Context, teacherID string, dayOfWeek int) ([]models.TeacherAvailability, error) {
	s.calls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.TeacherAvailability
	for _, slot := range s.slots {
		if slot.TeacherID != teacherID {
			continue
		}
		if dayOfWeek >= 0 && slot.DayOfWeek != dayOfWeek {
			continue
		}
		out = append(out, slot)
	}
	return out, nil
}

type exceptionRepoStub struct {
	items   []models.AvailabilityException
	created []*models.AvailabilityException
	deleted []string
}

func (s *exceptionRepoStub) Create(ctx context.Context, exception *models.AvailabilityException) error {
	exception.ID = "exc-new"
	s.created = append(s.created, exception)
	return nil
}

func (s *exceptionRepoStub) FindByID(ctx context.Context, id string) (*models.AvailabilityException, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *exceptionRepoStub) ListByTeacher(ctx context.Context, teacherID string, from, to *time.Time) ([]models.AvailabilityException, error) {
	var out []models.AvailabilityException
	for _, exc := range s.items {
		if exc.TeacherID != teacherID {
			continue
		}
		day := exc.Date.Format(dateLayout)
		if from != nil && day < from.Format(dateLayout) {
			continue
		}
		if to != nil && day > to.Format(dateLayout) {
			continue
		}
		out = append(out, exc)
	}
	return out, nil
}

func (s *exceptionRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type busyStub struct {
	sessions []models.BusySession
}

func (s *busyStub) ListBusyByTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]models.BusySession, error) {
	var out []models.BusySession
	for _, session := range s.sessions {
		if !session.Date.Before(from) && session.Date.Before(to) {
			out = append(out, session)
		}
	}
	return out, nil
}

type sessionRepoStub struct {
	sessions  map[string]*models.ClassSessionEvent
	created   []*models.ClassSessionEvent
	cancelled []string
	cancelErr error
	createErr error
	lostRace  bool
}

func (s *sessionRepoStub) FindByID(ctx context.Context, id string) (*models.ClassSessionEvent, error) {
	if session, ok := s.sessions[id]; ok {
		copied := *session
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *sessionRepoStub) Create(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSessionEvent) error {
	if s.createErr != nil {
		return s.createErr
	}
	session.ID = "session-new"
	s.created = append(s.created, session)
	return nil
}

func (s *sessionRepoStub) CancelIfActive(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error) {
	if s.cancelErr != nil {
		return false, s.cancelErr
	}
	if s.lostRace {
		return false, nil
	}
	session, ok := s.sessions[id]
	if !ok || session.Cancelled {
		return false, nil
	}
	s.cancelled = append(s.cancelled, id)
	return true, nil
}

type classStub struct {
	classes  map[string]*models.Class
	teachers map[string][]models.ClassTeacher
	locked   []string
}

func (s *classStub) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if class, ok := s.classes[id]; ok {
		return class, nil
	}
	return nil, sql.ErrNoRows
}

func (s *classStub) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Class, error) {
	if exec == nil {
		return nil, errors.New("class lock outside a transaction")
	}
	s.locked = append(s.locked, id)
	return s.FindByID(ctx, id)
}

func (s *classStub) ListTeachers(ctx context.Context, classID string) ([]models.ClassTeacher, error) {
	return s.teachers[classID], nil
}

func (s *classStub) IsTeacher(ctx context.Context, classID, teacherID string) (bool, error) {
	for _, t := range s.teachers[classID] {
		if t.TeacherID == teacherID {
			return true, nil
		}
	}
	return false, nil
}

type invalidatorStub struct {
	teachers []string
}

func (s *invalidatorStub) InvalidateTeacherSchedule(ctx context.Context, teacherID string) {
	s.teachers = append(s.teachers, teacherID)
}

type debtStub struct {
	summary *dto.DebtSummary
	err     error
}

func (s *debtStub) ComputeDebt(ctx context.Context, studentID string) (*dto.DebtSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.summary, nil
}

func (s *debtStub) GetDebt(ctx context.Context, actor *models.JWTClaims, studentID string) (*dto.DebtSummary, error) {
	if err := authorizeStudentRead(actor, studentID); err != nil {
		return nil, err
	}
	return s.ComputeDebt(ctx, studentID)
}
