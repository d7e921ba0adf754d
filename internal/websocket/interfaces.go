package websocket

import (
	"context"
	"time"

	"pronafmonitor/pkg/contracts/events"
)

// Connection is the subset of a gorilla connection the pumps use, so tests
// can substitute an in-memory peer.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() string
}

// Dispatcher answers one client message. The reply is sent back to the
// sender only.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg events.ClientMessage) events.WebSocketMessage
}
