package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"pronafmonitor/internal/config"
	apierrors "pronafmonitor/internal/errors"
	"pronafmonitor/internal/infrastructure"
	ws "pronafmonitor/internal/websocket"
)

// WebSocketHandler upgrades /ws requests into dashboard sessions.
type WebSocketHandler struct {
	hub            *ws.Hub
	dispatcher     ws.Dispatcher
	cfg            config.WebSocketConfig
	allowedOrigins []string
	devMode        bool
	upgrader       websocket.Upgrader
	logger         *slog.Logger
}

// NewWebSocketHandler creates the upgrade handler. Origins other than the
// request host must be listed in allowedOrigins unless devMode is set.
func NewWebSocketHandler(hub *ws.Hub, dispatcher ws.Dispatcher, cfg config.WebSocketConfig, allowedOrigins []string, devMode bool, logger *slog.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:            hub,
		dispatcher:     dispatcher,
		cfg:            cfg,
		allowedOrigins: allowedOrigins,
		devMode:        devMode,
		logger:         logger.With(slog.String("handler", "websocket")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "websocket upgrade rejected",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			writeJSONProblem(w, status, reason.Error())
		},
	}
	return h
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := infrastructure.EnsureTraceID(r.Context())
	traceID := infrastructure.GetTraceID(ctx)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already answered.
		return
	}

	client := ws.NewClient(h.hub, ws.NewConnectionWrapper(conn), h.dispatcher, h.cfg, traceID, h.logger)
	h.logger.InfoContext(ctx, "websocket client connected",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr))

	go client.Serve()
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.devMode {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// writeJSONProblem answers with a minimal problem document outside the
// render pipeline.
func writeJSONProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"type":   apierrors.TypeWebSocketUpgrade,
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
