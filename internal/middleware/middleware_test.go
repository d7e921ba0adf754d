package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	apierrors "pronafmonitor/internal/errors"
	"pronafmonitor/internal/infrastructure"
	api "pronafmonitor/pkg/contracts/api/v1"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func ok(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func TestRequestID(t *testing.T) {
	var seen, trace string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		trace = infrastructure.GetTraceID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
		assert.Equal(t, seen, trace)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "client-42")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "client-42", seen)
		assert.Equal(t, "client-42", rec.Header().Get("X-Request-ID"))
	})
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := RequestID(StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/dashboard?region=Ub%C3%A1", nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "/api/dashboard", entry["path"])
	assert.Equal(t, float64(404), entry["status"])
	assert.Equal(t, "region=Ub%C3%A1", entry["query"])
}

func TestRecoverer(t *testing.T) {
	h := RequestID(Recoverer(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var p Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "/errors/internal-server-error", p.Type)
	assert.Equal(t, rec.Header().Get("X-Request-ID"), p.Trace)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, discardLogger())
	h := rl.Handler(http.HandlerFunc(ok))

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:1002"))

	// Another client has its own bucket
	assert.Equal(t, http.StatusOK, call("10.0.0.2:1000"))
}

func TestTimeout(t *testing.T) {
	t.Run("handler honours deadline", func(t *testing.T) {
		h := Timeout(10*time.Millisecond, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	})

	t.Run("fast handler", func(t *testing.T) {
		h := Timeout(time.Second, discardLogger())(http.HandlerFunc(ok))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})
}

func TestCORS(t *testing.T) {
	h := CORS(CORSConfig{AllowedOrigins: []string{"http://localhost:8080"}})(http.HandlerFunc(ok))

	tests := []struct {
		name       string
		method     string
		origin     string
		wantOrigin string
		wantCode   int
	}{
		{"allowed origin", http.MethodGet, "http://localhost:8080", "http://localhost:8080", http.StatusOK},
		{"foreign origin", http.MethodGet, "http://evil.example", "", http.StatusOK},
		{"preflight", http.MethodOptions, "http://localhost:8080", "http://localhost:8080", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/dashboard", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	h := DefaultSecureHeaders().Handler(http.HandlerFunc(ok))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "https://cdn.plot.ly")
	assert.Contains(t, csp, "frame-ancestors 'none'")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"), "HSTS is only sent over TLS")

	t.Run("websocket upgrade untouched", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.Header.Set("Upgrade", "websocket")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
	})
}

func TestAuditLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := AuditLog(logger)(http.HandlerFunc(ok))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/export.csv?region=Vi%C3%A7osa", nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "data_export", entry["event_type"])
	assert.Equal(t, "region=Vi%C3%A7osa", entry["query"])
	assert.Equal(t, float64(2), entry["bytes"])
}

func TestOTelMiddlewareRecordsRoute(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := infrastructure.CreateBusinessMetrics(provider.Meter("test"))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(NewOTelMiddleware(nil, metrics, discardLogger()).Handler)
	r.Get("/api/charts/{chart}.png", ok)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/charts/gender.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var names []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names = append(names, m.Name)
			if m.Name != "http_requests_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			require.Len(t, sum.DataPoints, 1)
			route, _ := sum.DataPoints[0].Attributes.Value("route")
			assert.Equal(t, "/api/charts/{chart}.png", route.AsString())
		}
	}
	assert.Contains(t, names, "http_requests_total")
}

func TestValidateStruct(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		req     interface{}
		wantErr bool
		field   string
	}{
		{"valid selection", api.SelectionRequest{Region: "Juiz de Fora", Municipalities: []string{"Santos Dumont", "São João Nepomuceno"}}, false, ""},
		{"markup in region", api.SelectionRequest{Region: "<script>"}, true, "region"},
		{"valid export", api.ExportRequest{Format: "xlsx"}, false, ""},
		{"unknown format", api.ExportRequest{Format: "pdf"}, true, "format"},
		{"client log iso timestamp", api.ClientLogRequest{Level: "error", Message: "x", Timestamp: "2025-03-01T12:00:00.000Z"}, false, ""},
		{"client log bad timestamp", api.ClientLogRequest{Level: "error", Message: "x", Timestamp: "yesterday"}, true, "timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(v, tt.req)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			require.NotEmpty(t, details.Errors)
			assert.Equal(t, tt.field, details.Errors[0].Field)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	m := NewValidationMiddleware(discardLogger(), apierrors.NewErrorHandler(discardLogger(), false))
	h := m.ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	}))

	t.Run("valid JSON is passed through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(`{"level":"info"}`)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `{"level":"info"}`, rec.Body.String())
	})

	t.Run("invalid JSON", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(`{"level":`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		big := strings.Repeat("a", 70*1024)
		req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(`"`+big+`"`))
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestContentTypeValidator(t *testing.T) {
	h := ContentTypeValidator("application/json")(http.HandlerFunc(ok))

	req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQueryParamValidator(t *testing.T) {
	v := NewQueryParamValidator(discardLogger(), apierrors.NewErrorHandler(discardLogger(), false))

	tests := []struct {
		query  string
		want   int
		wantOK bool
	}{
		{"", 960, true},
		{"width=1200", 1200, true},
		{"width=abc", 0, false},
		{"width=10", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			got, valid := v.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil), "width", 200, 4000, 960)
			assert.Equal(t, tt.wantOK, valid)
			assert.Equal(t, tt.want, got)
			if !tt.wantOK {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			}
		})
	}
}
