package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "pronafmonitor/internal/errors"
	"pronafmonitor/internal/shared/testutil"
)

func TestClientLogHandler_Handle(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedLevel  slog.Level
	}{
		{
			name: "error from the page",
			body: map[string]interface{}{
				"level":     "error",
				"message":   "chart failed: Plotly is not defined",
				"category":  "page",
				"data":      map[string]interface{}{"chart": "map"},
				"timestamp": "2025-03-01T12:00:00.000Z",
				"url":       "http://localhost:8080/?region=Vi%C3%A7osa",
			},
			expectedStatus: http.StatusOK,
			expectedLevel:  slog.LevelError,
		},
		{
			name:           "warn",
			body:           map[string]interface{}{"level": "warn", "message": "websocket closed"},
			expectedStatus: http.StatusOK,
			expectedLevel:  slog.LevelWarn,
		},
		{
			name:           "debug",
			body:           map[string]interface{}{"level": "debug", "message": "redraw"},
			expectedStatus: http.StatusOK,
			expectedLevel:  slog.LevelDebug,
		},
		{
			name:           "invalid JSON",
			body:           "invalid json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown level",
			body:           map[string]interface{}{"level": "fatal", "message": "x"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing message",
			body:           map[string]interface{}{"level": "info"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad timestamp",
			body:           map[string]interface{}{"level": "info", "message": "x", "timestamp": "yesterday"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "oversized message",
			body:           map[string]interface{}{"level": "info", "message": strings.Repeat("a", 2001)},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewClientLogHandler(logger, apierrors.NewErrorHandler(logger, false))

			var body []byte
			if s, ok := tt.body.(string); ok {
				body = []byte(s)
			} else {
				var err error
				body, err = json.Marshal(tt.body)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/logs", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			handler.Handle(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			if tt.expectedStatus != http.StatusOK {
				assert.Equal(t, float64(tt.expectedStatus), response["status"])
				return
			}

			assert.Equal(t, true, response["success"])
			records := logs.AtLevel(tt.expectedLevel)
			require.NotEmpty(t, records)
			msg := tt.body.(map[string]interface{})["message"]
			assert.Equal(t, msg, records[len(records)-1].Message)
			assert.Equal(t, "browser", records[len(records)-1].Attrs["source"])
		})
	}
}
