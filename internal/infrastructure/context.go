package infrastructure

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"pronafmonitor/pkg/contracts/domain"
)

// EnsureTraceID returns ctx with a trace ID, generating a UUID when the
// caller did not provide one (CLI commands, WebSocket frames).
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, uuid.New().String())
}

// LoggerWithContext returns the global logger carrying the trace ID of ctx.
func LoggerWithContext(ctx context.Context) *slog.Logger {
	logger := GetLogger()
	if traceID := GetTraceID(ctx); traceID != "" {
		logger = logger.With("trace_id", traceID)
	}
	return logger
}

// WithComponent creates a logger with a component field
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}

// WithError creates a logger with an error field
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if err == nil {
		return logger
	}
	return logger.With("error", err.Error())
}

// WithFields creates a logger with multiple fields
func WithFields(logger *slog.Logger, fields map[string]interface{}) *slog.Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return logger.With(args...)
}

// SelectionAttr renders a filter selection as a log group. Long municipality
// lists are summarised by count.
func SelectionAttr(sel domain.Selection) slog.Attr {
	n := sel.Normalized()
	munis := strings.Join(n.Municipalities, ",")
	if len(n.Municipalities) > 10 {
		munis = ""
	}
	return slog.Group("selection",
		slog.String("region", n.Region),
		slog.Int("municipality_count", len(n.Municipalities)),
		slog.String("municipalities", munis),
	)
}

// WithSelection creates a logger tagged with the selection being served.
func WithSelection(logger *slog.Logger, sel domain.Selection) *slog.Logger {
	return logger.With(SelectionAttr(sel))
}
