package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iQube-Protocol/moneypenny/internal/api/middleware"
	"github.com/iQube-Protocol/moneypenny/internal/extraction"
	"github.com/iQube-Protocol/moneypenny/internal/jobs/inmemory"
	"github.com/iQube-Protocol/moneypenny/internal/logger"
	"github.com/iQube-Protocol/moneypenny/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, withJobs bool) http.Handler {
	t.Helper()
	now := func() time.Time { return time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC) }
	deps := Deps{
		Service: pipeline.NewService(extraction.NewMockExtractor(1).WithClock(now)),
		Now:     now,
	}
	if withJobs {
		deps.JobStore = inmemory.NewStore()
	}
	return NewRouter(logger.NewWithWriter(&bytes.Buffer{}), deps)
}

func TestRouter_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t, false).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"service":"banking-profile"`)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	h := newTestRouter(t, true)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/bank/extract"},
		{http.MethodGet, "/bank/bulk_extract"},
		{http.MethodGet, "/profile/aggregate"},
		{http.MethodPost, "/profile/history"},
		{http.MethodPost, "/api/jobs"},
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouter_Aggregate(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/profile/aggregate",
		strings.NewReader(`{"tenant_id":"t-1","months":[{"month":"2025-01","features":{"avg_daily_surplus":10}}]}`))
	newTestRouter(t, false).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"months":["2025-01"]`)
}

func TestRouter_Jobs(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t, false).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h := newTestRouter(t, true)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t, false).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aggregations_total")
}
