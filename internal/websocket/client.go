package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pronafmonitor/internal/config"
	"pronafmonitor/internal/infrastructure"
	"pronafmonitor/pkg/contracts/events"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 32
)

// Client is one dashboard session.
type Client struct {
	id         string
	traceID    string
	remoteAddr string

	hub        *Hub
	conn       Connection
	dispatcher Dispatcher
	logger     *slog.Logger

	send   chan []byte
	mu     sync.Mutex
	closed bool

	pingPeriod     time.Duration
	pongWait       time.Duration
	maxMessageSize int64

	connectedAt time.Time
}

// NewClient creates a session for conn. Zero durations in cfg fall back to
// the defaults.
func NewClient(hub *Hub, conn Connection, dispatcher Dispatcher, cfg config.WebSocketConfig, traceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if traceID == "" {
		traceID = uuid.New().String()
	}
	pongWait := cfg.PongWait
	if pongWait <= 0 {
		pongWait = 60 * time.Second
	}
	pingPeriod := cfg.PingPeriod
	if pingPeriod <= 0 || pingPeriod >= pongWait {
		pingPeriod = pongWait * 9 / 10
	}
	maxSize := cfg.MaxMessageSize
	if maxSize <= 0 {
		maxSize = 64 * 1024
	}

	id := uuid.New().String()
	return &Client{
		id:             id,
		traceID:        traceID,
		remoteAddr:     conn.RemoteAddr(),
		hub:            hub,
		conn:           conn,
		dispatcher:     dispatcher,
		logger:         logger.With(slog.String("component", "websocket.client"), slog.String("client_id", id)),
		send:           make(chan []byte, sendBufferSize),
		pingPeriod:     pingPeriod,
		pongWait:       pongWait,
		maxMessageSize: maxSize,
		connectedAt:    time.Now(),
	}
}

// ID returns the session identifier.
func (c *Client) ID() string {
	return c.id
}

// Serve registers the client and runs both pumps until the peer goes away.
func (c *Client) Serve() {
	if !c.hub.Register(c) {
		_ = c.conn.Close()
		return
	}
	go c.WritePump()
	c.ReadPump()
}

// Send queues msg for the peer. It reports false when the session is closed
// or its queue is full.
func (c *Client) Send(msg events.WebSocketMessage) bool {
	if msg.TraceID == "" {
		msg.TraceID = c.traceID
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to marshal message",
			slog.String("type", string(msg.Type)),
			slog.String("error", err.Error()))
		return false
	}
	return c.enqueue(payload)
}

func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		c.logger.Warn("send buffer full, message dropped")
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump reads client messages and dispatches them in arrival order.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Warn("websocket read error", slog.String("error", err.Error()))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))

		msg, err := events.DecodeClientMessage(data)
		if err != nil {
			var perr *events.ProtocolError
			if errors.As(err, &perr) {
				c.Send(events.NewError(uuid.New().String(), msg.ID, perr.Code, perr.Message, perr.Fatal))
			}
			continue
		}

		ctx := infrastructure.WithTraceID(context.Background(), c.traceID)
		reply := c.dispatcher.Dispatch(ctx, msg)
		if reply.ReplyTo == "" {
			reply.ReplyTo = msg.ID
		}
		c.Send(reply)
	}
}

// WritePump drains the send queue and keeps the connection alive with
// pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Debug("websocket write failed", slog.String("error", err.Error()))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
