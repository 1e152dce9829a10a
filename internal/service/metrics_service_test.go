package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/reports", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/reports", http.StatusNotFound, 40*time.Millisecond)
	m.ObserveDBQuery("section_records_by_session_user", 10*time.Millisecond)
	m.RecordEnrichmentFallback("qualification")
	m.RecordUpstreamFailure("record_store")

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 30, snap.AverageRequestDurationMs, 0.01)
	assert.Equal(t, uint64(1), snap.StoreQueryCount)
	assert.Equal(t, uint64(1), snap.EnrichmentFallbacks)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordReport("student")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `reports_assembled_total{kind="student"} 1`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveDBQuery("q", time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())
}

func TestMetricsServiceTracksQueueDepth(t *testing.T) {
	m := NewMetricsService()
	depth := 3
	m.TrackQueue("exports", func() int { return depth })
	m.TrackQueue("exports", func() int { return 99 })

	assert.Equal(t, map[string]int{"exports": 3}, m.Snapshot().QueueDepths)

	depth = 1
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `job_queue_depth{queue="exports"} 1`)
}
