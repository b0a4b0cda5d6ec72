package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/study-planner/internal/urgency"
)

func TestMetricsServiceCollectors(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/dashboard", http.StatusOK, 10*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.ObserveUpstreamCall("records", "list_subjects", 0, time.Second)
	m.ObserveUpstreamCall("records", "list_subjects", 200, time.Second)
	m.SetTierCounts(map[urgency.Tier]int{urgency.TierUrgent: 2})
	m.RecordRefresh("stale")
	m.RecordTransition(urgency.TierUrgent)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "/api/v1/dashboard", "200")))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.cacheHitRatio))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamErrors.WithLabelValues("records", "list_subjects")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.dashboardTiers.WithLabelValues("urgent")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.dashboardTiers.WithLabelValues("safe")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dashboardRefresh.WithLabelValues("stale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("urgent")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deadline_transitions_total")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
	m.ObserveUpstreamCall("auth", "login", 0, time.Millisecond)
	m.SetTierCounts(nil)
	m.RecordRefresh("fresh")
	m.RecordTransition(urgency.TierExpired)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
