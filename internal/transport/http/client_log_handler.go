package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "pronafmonitor/internal/errors"
	"pronafmonitor/internal/middleware"
	api "pronafmonitor/pkg/contracts/api/v1"
)

// ClientLogHandler records errors reported by the dashboard page
type ClientLogHandler struct {
	logger       *slog.Logger
	validate     *validator.Validate
	errorHandler *apierrors.ErrorHandler
}

// NewClientLogHandler creates a new client log handler
func NewClientLogHandler(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ClientLogHandler {
	return &ClientLogHandler{
		logger:       logger.With(slog.String("handler", "client_log")),
		validate:     middleware.NewValidator(),
		errorHandler: errorHandler,
	}
}

// Handle processes POST /api/logs
func (h *ClientLogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req api.ClientLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := middleware.ValidateStruct(h.validate, req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	attrs := []slog.Attr{
		slog.String("source", "browser"),
		slog.String("category", req.Category),
	}
	if req.Timestamp != "" {
		attrs = append(attrs, slog.String("client_timestamp", req.Timestamp))
	}
	if req.URL != "" {
		attrs = append(attrs, slog.String("url", req.URL))
	}
	if req.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", req.UserAgent))
	}
	if req.Data != nil {
		attrs = append(attrs, slog.Any("data", req.Data))
	}

	h.logger.LogAttrs(r.Context(), clientLevel(req.Level), req.Message, attrs...)
	render.JSON(w, r, map[string]interface{}{"success": true})
}

func clientLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
