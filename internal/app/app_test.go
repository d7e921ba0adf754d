package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pronafmonitor/internal/config"
	"pronafmonitor/internal/shared/testutil"
	"pronafmonitor/pkg/contracts/events"
)

type testEnv struct {
	withData   bool
	geoHealthy bool
	devMode    bool
}

// createTestLogger discards output; sessions and background fetches keep
// logging after a test returns.
func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func boundaryServer(t *testing.T, healthy bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, testutil.SampleGeoJSON())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, env testEnv) *config.Config {
	t.Helper()
	cfg := config.Default()

	dir := t.TempDir()
	cfg.Data.File = filepath.Join(dir, "missing.csv")
	if env.withData {
		cfg.Data.File = testutil.WriteSampleCSV(t, dir)
	}
	cfg.Geo.BoundariesURL = boundaryServer(t, env.geoHealthy).URL
	cfg.Geo.Timeout = 5 * time.Second
	cfg.Security.RateLimit.Enabled = false
	cfg.Security.AllowedOrigins = []string{"https://painel.example.org"}
	cfg.Logging.Development = env.devMode
	return cfg
}

func newTestApp(t *testing.T, env testEnv) *Application {
	t.Helper()
	app, err := New(testConfig(t, env), createTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		app.WebSocketHub.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.OTelProviders.Shutdown(ctx)
	})
	return app
}

func serve(app *Application, method, target string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestNew(t *testing.T) {
	app := newTestApp(t, testEnv{withData: true, geoHealthy: true})

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.Store)
	assert.NotNil(t, app.Boundaries)
	assert.NotNil(t, app.Exporter)
	assert.NotNil(t, app.Dashboard)
	assert.NotNil(t, app.Health)
	assert.NotNil(t, app.WebSocketHub)
	assert.NotNil(t, app.Dispatcher)
	assert.NotNil(t, app.Metrics)

	assert.Equal(t, ":8080", app.Server.Addr)
	assert.Equal(t, app.Config.Server.ReadTimeout, app.Server.ReadTimeout)
	assert.Equal(t, app.Config.Data.File, app.Dashboard.DataPath())
	assert.Equal(t, app.Config.Geo.BoundariesURL, app.Boundaries.URL())
}

func TestApplication_Routes(t *testing.T) {
	app := newTestApp(t, testEnv{withData: true, geoHealthy: true})

	tests := []struct {
		name        string
		method      string
		target      string
		wantStatus  int
		contentType string
	}{
		{"page", http.MethodGet, "/", http.StatusOK, "text/html"},
		{"page with selection", http.MethodGet, "/?region=Vi%C3%A7osa", http.StatusOK, "text/html"},
		{"health", http.MethodGet, "/api/health", http.StatusOK, "application/json"},
		{"ready", http.MethodGet, "/api/health/ready", http.StatusOK, "application/json"},
		{"live", http.MethodGet, "/api/health/live", http.StatusOK, "application/json"},
		{"version", http.MethodGet, "/api/version", http.StatusOK, "application/json"},
		{"dashboard", http.MethodGet, "/api/dashboard", http.StatusOK, "application/json"},
		{"dashboard trailing slash", http.MethodGet, "/api/dashboard/", http.StatusOK, "application/json"},
		{"filters", http.MethodGet, "/api/filters?region=Juiz+de+Fora", http.StatusOK, "application/json"},
		{"csv export", http.MethodGet, "/api/export.csv", http.StatusOK, "text/csv"},
		{"xlsx export", http.MethodGet, "/api/export.xlsx", http.StatusOK, config.ExportXLSXMimeType},
		{"chart", http.MethodGet, "/api/charts/concentration.png", http.StatusOK, "image/png"},
		{"boundaries", http.MethodGet, "/api/geo/boundaries", http.StatusOK, "application/geo+json"},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "text/plain"},
		{"unknown route", http.MethodGet, "/nope", http.StatusNotFound, "application/problem+json"},
		{"wrong method", http.MethodPost, "/api/dashboard", http.StatusMethodNotAllowed, "application/problem+json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(app, tt.method, tt.target, nil, nil)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), tt.contentType),
				"content type %q", rec.Header().Get("Content-Type"))
		})
	}
}

func TestApplication_Middleware(t *testing.T) {
	app := newTestApp(t, testEnv{withData: true, geoHealthy: true})

	t.Run("request id is echoed", func(t *testing.T) {
		rec := serve(app, http.MethodGet, "/api/health", nil, http.Header{"X-Request-Id": {"req-42"}})
		assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	})

	t.Run("request id is generated", func(t *testing.T) {
		rec := serve(app, http.MethodGet, "/api/health", nil, nil)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("security headers", func(t *testing.T) {
		rec := serve(app, http.MethodGet, "/", nil, nil)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	})

	t.Run("cors allowed origin", func(t *testing.T) {
		rec := serve(app, http.MethodOptions, "/api/dashboard", nil, http.Header{"Origin": {"https://painel.example.org"}})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://painel.example.org", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("cors other origin", func(t *testing.T) {
		rec := serve(app, http.MethodGet, "/api/dashboard", nil, http.Header{"Origin": {"https://evil.example.com"}})
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("gzip", func(t *testing.T) {
		rec := serve(app, http.MethodGet, "/api/dashboard", nil, http.Header{"Accept-Encoding": {"gzip"}})
		assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	})
}

func TestApplication_ClientLogs(t *testing.T) {
	app := newTestApp(t, testEnv{withData: true, geoHealthy: true})

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
	}{
		{"accepted", "application/json", `{"level":"error","message":"chart failed"}`, http.StatusOK},
		{"wrong content type", "text/plain", `level=error`, http.StatusUnsupportedMediaType},
		{"no content type", "", `{"level":"error","message":"x"}`, http.StatusBadRequest},
		{"invalid level", "application/json", `{"level":"fatal","message":"x"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.contentType != "" {
				header.Set("Content-Type", tt.contentType)
			}
			rec := serve(app, http.MethodPost, "/api/logs", strings.NewReader(tt.body), header)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestApplication_MissingDataset(t *testing.T) {
	app := newTestApp(t, testEnv{withData: false, geoHealthy: true})

	rec := serve(app, http.MethodGet, "/api/health/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(app, http.MethodGet, "/api/dashboard", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Contains(t, problem["detail"], "missing.csv")

	rec = serve(app, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "notice error")
}

func TestApplication_BoundariesDown(t *testing.T) {
	app := newTestApp(t, testEnv{withData: true, geoHealthy: false})

	rec := serve(app, http.MethodGet, "/api/dashboard", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	charts := body["charts"].(map[string]interface{})
	assert.Equal(t, true, charts["map_fallback"])
	assert.Nil(t, charts["map"])

	rec = serve(app, http.MethodGet, "/api/health/ready", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "missing boundaries only degrade readiness")

	rec = serve(app, http.MethodGet, "/api/geo/boundaries", nil, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestApplication_WebSocket(t *testing.T) {
	app := newTestApp(t, testEnv{withData: true, geoHealthy: true})
	app.WebSocketHub.Start()

	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg events.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, events.MessageTypeConnect, msg.Type)

	require.NoError(t, conn.WriteJSON(events.ClientMessage{ID: "f1", Type: events.MessageTypeFilters}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, events.MessageTypeFilterState, msg.Type)
	assert.Equal(t, "f1", msg.ReplyTo)

	rec := serve(app, http.MethodGet, "/api/health/ready", nil, nil)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	session := health["services"].(map[string]interface{})["websocket"].(map[string]interface{})
	assert.Equal(t, "sessions open: 1", session["message"])
	counters := session["counters"].(map[string]interface{})
	assert.Equal(t, float64(1), counters["total_sessions"])
}

func TestApplication_WarmBroadcastsStatus(t *testing.T) {
	app := newTestApp(t, testEnv{withData: true, geoHealthy: true})
	app.WebSocketHub.Start()

	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg events.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, events.MessageTypeConnect, msg.Type)

	app.Warm(context.Background())

	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, events.MessageTypeSystemStatus, msg.Type)
	status := msg.Data.(map[string]interface{})
	assert.Equal(t, "ready", status["dataset"])
	assert.Equal(t, float64(1), status["sessions"])

	assert.Eventually(t, func() bool {
		return app.WebSocketHub.Stats()["broadcasts_sent"] >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestApplication_getCORSConfig(t *testing.T) {
	tests := []struct {
		name     string
		devMode  bool
		contains []string
		excludes []string
	}{
		{
			name:     "production",
			contains: []string{"https://painel.example.org"},
			excludes: []string{"http://localhost:3000"},
		},
		{
			name:     "development",
			devMode:  true,
			contains: []string{"https://painel.example.org", "http://localhost:3000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, testEnv{withData: true, geoHealthy: true, devMode: tt.devMode})
			cfg := app.getCORSConfig()

			for _, o := range tt.contains {
				assert.Contains(t, cfg.AllowedOrigins, o)
			}
			for _, o := range tt.excludes {
				assert.NotContains(t, cfg.AllowedOrigins, o)
			}
			assert.Contains(t, cfg.ExposedHeaders, "Content-Disposition")
		})
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestApplication_StartStop(t *testing.T) {
	cfg := testConfig(t, testEnv{withData: true, geoHealthy: true})
	cfg.Server.Port = freePort(t)

	app, err := New(cfg, createTestLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx, cancel))

	url := fmt.Sprintf("http://127.0.0.1:%d/api/health/live", cfg.Server.Port)
	assert.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	assert.True(t, app.Store.Loaded(cfg.Data.File), "Start warms the dataset")
	assert.Eventually(t, func() bool { return app.Boundaries.Cached() != nil }, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, app.Stop(context.Background()))
	assert.NoError(t, ctx.Err(), "a clean stop does not cancel")
}

func TestApplication_StartPortInUse(t *testing.T) {
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer l.Close()

	cfg := testConfig(t, testEnv{withData: true, geoHealthy: true})
	cfg.Server.Port = l.Addr().(*net.TCPAddr).Port

	app, err := New(cfg, createTestLogger())
	require.NoError(t, err)
	defer app.WebSocketHub.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx, cancel))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("listen failure should cancel the context")
	}
}
