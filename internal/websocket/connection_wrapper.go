package websocket

import (
	"github.com/gorilla/websocket"
)

// ConnectionWrapper adapts *websocket.Conn to Connection. Everything but
// RemoteAddr is promoted from the embedded connection.
type ConnectionWrapper struct {
	*websocket.Conn
}

// NewConnectionWrapper creates a new connection wrapper
func NewConnectionWrapper(conn *websocket.Conn) Connection {
	return &ConnectionWrapper{Conn: conn}
}

// RemoteAddr returns the peer address as a string.
func (c *ConnectionWrapper) RemoteAddr() string {
	if addr := c.Conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
