package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(EventOpen, map[string]bool{"ok": true})

	require.NoError(t, err)
	assert.Equal(t, "open", env.Event)
	assert.JSONEq(t, `{"ok":true}`, string(env.Data))
}

func TestNewEnvelope_UnserializablePayload(t *testing.T) {
	_, err := NewEnvelope(EventMessage, make(chan int))
	assert.Error(t, err)
}

func TestEnvelope_Frame(t *testing.T) {
	env, err := NewEnvelope(EventStatusChanged, map[string]string{"status": "read"})
	require.NoError(t, err)

	frame := string(env.Frame())

	assert.Equal(t, "event: status-changed\ndata: {\"status\":\"read\"}\n\n", frame)
}

func TestEnvelope_FrameCarriesRawJSON(t *testing.T) {
	env := Envelope{Event: EventMessage, Data: json.RawMessage(`{"id":1}`)}
	assert.Equal(t, "event: message\ndata: {\"id\":1}\n\n", string(env.Frame()))
}
