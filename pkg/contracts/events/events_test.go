package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientMessage(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"id":"1","type":"selection:update","selection":{"region":"Ubá","municipalities":["Ubá"]}}`))
	require.NoError(t, err)
	assert.Equal(t, MessageTypeSelection, msg.Type)
	assert.Equal(t, "Ubá", msg.Selection.Region)
	assert.Equal(t, []string{"Ubá"}, msg.Selection.Municipalities)

	msg, err = DecodeClientMessage([]byte(`{"type":"filters:request"}`))
	require.NoError(t, err)
	require.NotNil(t, msg.Selection)
	assert.True(t, msg.Selection.AllRegionsSelected())

	_, err = DecodeClientMessage([]byte(`{"type":"ping"}`))
	require.NoError(t, err)
}

func TestDecodeClientMessage_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code string
	}{
		{"not json", `{`, ErrCodeInvalidFrame},
		{"unknown type", `{"type":"operation:start"}`, ErrCodeUnsupportedType},
		{"missing type", `{}`, ErrCodeUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeClientMessage([]byte(tt.in))
			var perr *ProtocolError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.code, perr.Code)
		})
	}
}

func TestNewError(t *testing.T) {
	m := NewError("srv-1", "cli-7", ErrCodeDataUnavailable, "Arquivo não encontrado: x.csv", true)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "error", out["type"])
	assert.Equal(t, "cli-7", out["reply_to"])
	payload := out["data"].(map[string]interface{})
	assert.Equal(t, ErrCodeDataUnavailable, payload["code"])
	assert.Equal(t, true, payload["fatal"])
}
