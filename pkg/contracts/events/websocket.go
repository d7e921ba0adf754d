// Package events contains the message contracts of the interactive
// dashboard WebSocket session.
package events

import (
	"time"

	"pronafmonitor/pkg/contracts/domain"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Client messages
	MessageTypeSelection MessageType = "selection:update"
	MessageTypeFilters   MessageType = "filters:request"
	MessageTypePing      MessageType = "ping"

	// Server messages
	MessageTypeDashboard    MessageType = "dashboard:render"
	MessageTypeFilterState  MessageType = "filters:state"
	MessageTypeSystemStatus MessageType = "system:status"
	MessageTypePong         MessageType = "pong"

	// Connection messages
	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
	ReplyTo   string      `json:"reply_to,omitempty"`
}

// WebSocketMessage represents a complete server message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// ClientMessage is a message sent by the page. Selection is set for
// selection:update and filters:request.
type ClientMessage struct {
	ID        string            `json:"id,omitempty"`
	Type      MessageType       `json:"type"`
	Selection *domain.Selection `json:"selection,omitempty"`
}

// ConnectEvent greets a new session.
type ConnectEvent struct {
	SessionID string `json:"session_id"`
	Protocol  string `json:"protocol"`
	Version   string `json:"version"`
	Heartbeat int    `json:"heartbeat_interval"`
}

// ErrorData is the payload of an error message.
type ErrorData struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Fatal   bool        `json:"fatal"`
}

// SystemStatus is broadcast when the dataset or boundary state changes.
type SystemStatus struct {
	Dataset    string `json:"dataset"`
	Boundaries string `json:"boundaries"`
	Sessions   int    `json:"sessions"`
}

// NewMessage builds a server message.
func NewMessage(id string, t MessageType, data interface{}) WebSocketMessage {
	return WebSocketMessage{
		BaseMessage: BaseMessage{ID: id, Type: t, Timestamp: time.Now().UTC()},
		Data:        data,
	}
}

// NewError builds an error message replying to the client message replyTo.
func NewError(id, replyTo, code, message string, fatal bool) WebSocketMessage {
	m := NewMessage(id, MessageTypeError, ErrorData{Code: code, Message: message, Fatal: fatal})
	m.ReplyTo = replyTo
	return m
}
