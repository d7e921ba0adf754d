package websocket

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"pronafmonitor/internal/infrastructure"
	"pronafmonitor/internal/services"
	"pronafmonitor/pkg/contracts/domain"
	"pronafmonitor/pkg/contracts/events"
)

// DashboardRenderer is the part of the dashboard service a session needs.
type DashboardRenderer interface {
	Render(ctx context.Context, sel domain.Selection) (*domain.Dashboard, error)
	Unavailable(sel domain.Selection, err error) *domain.Dashboard
	Filters(ctx context.Context, sel domain.Selection) (*domain.FilterState, error)
}

// DashboardDispatcher turns filter changes into re-rendered dashboards.
type DashboardDispatcher struct {
	renderer DashboardRenderer
	logger   *slog.Logger
}

// NewDashboardDispatcher creates a dispatcher backed by renderer.
func NewDashboardDispatcher(renderer DashboardRenderer, logger *slog.Logger) *DashboardDispatcher {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &DashboardDispatcher{
		renderer: renderer,
		logger:   infrastructure.WithComponent(logger, "websocket.dispatcher"),
	}
}

// Dispatch implements Dispatcher. A dataset failure still yields a
// dashboard:render reply, halted with the error notice.
func (d *DashboardDispatcher) Dispatch(ctx context.Context, msg events.ClientMessage) events.WebSocketMessage {
	id := uuid.New().String()
	var reply events.WebSocketMessage
	if msg.Selection == nil {
		msg.Selection = &domain.Selection{}
	}

	switch msg.Type {
	case events.MessageTypePing:
		reply = events.NewMessage(id, events.MessageTypePong, nil)

	case events.MessageTypeSelection:
		sel := *msg.Selection
		logger := infrastructure.WithSelection(d.logger, sel)
		dash, err := d.renderer.Render(ctx, sel)
		if err != nil {
			logger.WarnContext(ctx, "render failed", slog.String("error", err.Error()))
			dash = d.renderer.Unavailable(sel, err)
		} else {
			logger.DebugContext(ctx, "selection rendered",
				slog.Int("records", dash.RecordCount),
				slog.Bool("halted", dash.Halted))
		}
		reply = events.NewMessage(id, events.MessageTypeDashboard, dash)

	case events.MessageTypeFilters:
		state, err := d.renderer.Filters(ctx, *msg.Selection)
		if err != nil {
			code := events.ErrCodeDataUnavailable
			if errors.Is(err, services.ErrUnknownRegion) {
				code = events.ErrCodeInvalidRegion
			}
			reply = events.NewError(id, msg.ID, code, err.Error(), false)
			break
		}
		reply = events.NewMessage(id, events.MessageTypeFilterState, state)

	default:
		reply = events.NewError(id, msg.ID, events.ErrCodeUnsupportedType, "unsupported message type", false)
	}

	reply.ReplyTo = msg.ID
	reply.TraceID = infrastructure.GetTraceID(ctx)
	return reply
}
