package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"pronafmonitor/pkg/contracts/events"
)

// mockConnection is an in-memory peer. Frames pushed to in are returned by
// ReadMessage; text frames written by the server arrive on out.
type mockConnection struct {
	in  chan []byte
	out chan []byte

	mu        sync.Mutex
	closed    chan struct{}
	closeOnce sync.Once
	readLimit int64
	pong      func(string) error
}

func newMockConnection() *mockConnection {
	return &mockConnection{
		in:     make(chan []byte, 16),
		out:    make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (m *mockConnection) WriteMessage(messageType int, data []byte) error {
	select {
	case <-m.closed:
		return errors.New("connection closed")
	default:
	}
	if messageType == websocket.TextMessage {
		m.out <- data
	}
	return nil
}

func (m *mockConnection) ReadMessage() (int, []byte, error) {
	select {
	case data, ok := <-m.in:
		if !ok {
			return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
		}
		return websocket.TextMessage, data, nil
	case <-m.closed:
		return 0, nil, errors.New("connection closed")
	}
}

func (m *mockConnection) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

func (m *mockConnection) SetReadDeadline(time.Time) error  { return nil }
func (m *mockConnection) SetWriteDeadline(time.Time) error { return nil }

func (m *mockConnection) SetReadLimit(limit int64) {
	m.mu.Lock()
	m.readLimit = limit
	m.mu.Unlock()
}

func (m *mockConnection) SetPongHandler(h func(string) error) {
	m.mu.Lock()
	m.pong = h
	m.mu.Unlock()
}

func (m *mockConnection) RemoteAddr() string { return "192.0.2.10:51000" }

// next waits for the next server message.
func (m *mockConnection) next(t *testing.T) events.WebSocketMessage {
	t.Helper()
	select {
	case data := <-m.out:
		var msg events.WebSocketMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server message")
		return events.WebSocketMessage{}
	}
}

// nextOf skips messages until one of type typ arrives.
func (m *mockConnection) nextOf(t *testing.T, typ events.MessageType) events.WebSocketMessage {
	t.Helper()
	for {
		msg := m.next(t)
		if msg.Type == typ {
			return msg
		}
	}
}
