package model

import (
	"bytes"
	"encoding/json"
)

// Envelope is the wire unit pushed through a channel: an event name plus a
// JSON payload. Envelopes are ephemeral and delivered at most once per
// currently-attached subscriber; they are never persisted.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Well-known event names.
const (
	// EventOpen confirms a freshly opened subscription stream.
	EventOpen = "open"

	// EventMessage announces a newly created message.
	EventMessage = "message"

	// EventStatusChanged announces a lifecycle transition on a message.
	EventStatusChanged = "status-changed"
)

// NewEnvelope builds an envelope, serializing payload to JSON.
func NewEnvelope(event string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}

// Frame renders the envelope as one text event-stream frame:
//
//	event: <name>
//	data: <JSON>
//	<blank line>
func (e Envelope) Frame() []byte {
	var buf bytes.Buffer
	buf.Grow(len(e.Event) + len(e.Data) + 16)
	buf.WriteString("event: ")
	buf.WriteString(e.Event)
	buf.WriteString("\ndata: ")
	buf.Write(e.Data)
	buf.WriteString("\n\n")
	return buf.Bytes()
}
