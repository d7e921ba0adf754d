package events

import (
	"encoding/json"
	"fmt"

	"pronafmonitor/pkg/contracts/domain"
)

// Protocol version
const (
	ProtocolVersion = "1.0"
	ProtocolName    = "pronaf-dashboard-protocol"
)

// Protocol error codes
const (
	ErrCodeInvalidFrame    = "INVALID_FRAME"
	ErrCodeUnsupportedType = "UNSUPPORTED_TYPE"
	ErrCodeMessageTooLarge = "MESSAGE_TOO_LARGE"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeDataUnavailable = "DATA_UNAVAILABLE"
	ErrCodeInvalidRegion   = "INVALID_REGION"
	ErrCodeServerError     = "SERVER_ERROR"
)

// ProtocolError represents a protocol-level error
type ProtocolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// DecodeClientMessage parses a frame sent by the page. A missing selection
// on a selection message means "everything".
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, &ProtocolError{Code: ErrCodeInvalidFrame, Message: "message is not valid JSON"}
	}

	switch msg.Type {
	case MessageTypeSelection, MessageTypeFilters:
		if msg.Selection == nil {
			msg.Selection = &domain.Selection{}
		}
	case MessageTypePing:
	default:
		return msg, &ProtocolError{Code: ErrCodeUnsupportedType, Message: fmt.Sprintf("unsupported message type %q", msg.Type)}
	}
	return msg, nil
}
