package service

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest("GET", "/health", 200, 10*time.Millisecond)
	m.ObserveHTTPRequest("GET", "/health", 200, 30*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordReschedule(RescheduleOutcomeCommitted, 50000)
	m.RecordReschedule(RescheduleOutcomeRequiresPayment, 0)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 20.0, snap.AverageRequestDurationMs, 0.001)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.001)
	assert.Equal(t, uint64(1), snap.Reschedules[RescheduleOutcomeCommitted])
	assert.Equal(t, uint64(1), snap.Reschedules[RescheduleOutcomeRequiresPayment])

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `session_reschedules_total{outcome="committed"} 1`)
	assert.Contains(t, string(body), "session_reschedule_fees_total 50000")
}

func TestNilMetricsAndCacheAreSafe(t *testing.T) {
	var m *MetricsService
	m.RecordReschedule(RescheduleOutcomeRejected, 0)
	m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
	assert.Empty(t, m.Snapshot().Reschedules)

	var cache *CacheService
	hit, err := cache.Get(context.Background(), "k", &struct{}{})
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, cache.Set(context.Background(), "k", 1, 0))
	require.NoError(t, cache.Invalidate(context.Background(), "k*"))
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newMemoryCache()
	cache := NewCacheService(repo, NewMetricsService(), 0, nil, true)

	var out map[string]int
	hit, err := cache.Get(context.Background(), "schedule:weekly:t-1:2026-10-19", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(context.Background(), "schedule:weekly:t-1:2026-10-19", map[string]int{"a": 1}, 0))
	hit, err = cache.Get(context.Background(), "schedule:weekly:t-1:2026-10-19", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, out["a"])

	disabled := NewCacheService(repo, nil, 0, nil, false)
	assert.False(t, disabled.Enabled())
}
