package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pronafmonitor/internal/infrastructure"
	"pronafmonitor/pkg/contracts/events"
)

// Hub tracks open dashboard sessions. Registration, removal and broadcast
// are serialised through Run.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	totalConnections int64
	messagesSent     int64

	quit    chan struct{}
	done    chan struct{}
	running bool
}

// NewHub creates a new Hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in its own goroutine. It is idempotent.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.Run()
}

// Stop closes every session and ends the loop. It is idempotent.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

// Run is the hub loop.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for c := range h.clients {
				c.closeSend()
				delete(h.clients, c)
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.totalConnections++
			count := len(h.clients)
			h.mu.Unlock()

			ctx := c.context()
			if h.metrics != nil {
				h.metrics.ActiveSessions.Add(ctx, 1)
			}
			h.logger.InfoContext(ctx, "session opened",
				slog.String("client_id", c.id),
				slog.String("remote_addr", c.remoteAddr),
				slog.Int("sessions", count))

			c.Send(events.NewMessage(c.id, events.MessageTypeConnect, events.ConnectEvent{
				SessionID: c.id,
				Protocol:  events.ProtocolName,
				Version:   events.ProtocolVersion,
				Heartbeat: int(c.pingPeriod / time.Second),
			}))

		case c := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[c]
			if ok {
				delete(h.clients, c)
			}
			count := len(h.clients)
			h.mu.Unlock()
			if !ok {
				continue
			}
			c.closeSend()

			ctx := c.context()
			if h.metrics != nil {
				h.metrics.ActiveSessions.Add(ctx, -1)
			}
			h.logger.InfoContext(ctx, "session closed",
				slog.String("client_id", c.id),
				slog.Duration("duration", time.Since(c.connectedAt)),
				slog.Int("sessions", count))

		case payload := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if c.enqueue(payload) {
					h.messagesSent++
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a client. It returns false when the hub is stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its outbound queue.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast sends msg to every open session.
func (h *Hub) Broadcast(msg events.WebSocketMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Type, err)
	}
	select {
	case <-h.done:
		return fmt.Errorf("hub stopped")
	default:
	}
	select {
	case h.broadcast <- payload:
		return nil
	case <-h.done:
		return fmt.Errorf("hub stopped")
	}
}

// ClientCount returns the number of open sessions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats reports lifetime counters.
func (h *Hub) Stats() map[string]int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]int64{
		"active_sessions": int64(len(h.clients)),
		"total_sessions":  h.totalConnections,
		"broadcasts_sent": h.messagesSent,
	}
}

// context returns a context carrying the session trace ID.
func (c *Client) context() context.Context {
	return infrastructure.WithTraceID(context.Background(), c.traceID)
}
