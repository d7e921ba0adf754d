package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pronafmonitor/internal/services"
)

type readiness struct {
	dataset, boundaries bool
}

func (p readiness) Ready() (bool, bool) {
	return p.dataset, p.boundaries
}

func newHealthHandler(p readiness) *HealthHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := services.NewHealthService("v1.2.3-test", "https://example.org/pronafmonitor", "2025-03-01", "abc123", p, nil, logger)
	return NewHealthHandler(svc, logger)
}

func TestHealthHandler(t *testing.T) {
	h := newHealthHandler(readiness{dataset: true, boundaries: true})

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus string
	}{
		{"health", h.HealthCheck, "ok"},
		{"ready", h.ReadinessCheck, "ready"},
		{"live", h.LivenessCheck, "alive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			var status services.HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, "v1.2.3-test", status.Version)
		})
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name           string
		source         readiness
		wantCode       int
		wantStatus     string
		wantBoundaries string
	}{
		{"dataset missing", readiness{dataset: false, boundaries: true}, http.StatusServiceUnavailable, "not_ready", "ready"},
		{"boundaries missing", readiness{dataset: true, boundaries: false}, http.StatusOK, "ready", "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHealthHandler(tt.source)
			rec := httptest.NewRecorder()
			h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
			svcs := body["services"].(map[string]interface{})
			assert.Equal(t, tt.wantBoundaries, svcs["boundaries"].(map[string]interface{})["status"])
		})
	}
}

func TestHealthHandler_Version(t *testing.T) {
	h := newHealthHandler(readiness{dataset: true})
	rec := httptest.NewRecorder()
	h.Version(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "v1.2.3-test", body["version"])
	assert.Equal(t, "abc123", body["build_id"])
}

func TestMetricsHandler(t *testing.T) {
	called := false
	h := NewMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, _ = w.Write([]byte("# HELP http_requests_total\n"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, called)
	assert.Contains(t, rec.Body.String(), "http_requests_total")

	rec = httptest.NewRecorder()
	NewMetricsHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
