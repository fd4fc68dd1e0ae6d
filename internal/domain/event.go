package domain

import "encoding/json"

// Event names on the websocket wire.
const (
	EventTextInput           = "TEXT_INPUT"
	EventTextBroadcast       = "TEXT_BROADCAST"
	EventTextBroadcastStatic = "TEXT_BROADCAST_PERSISTENT"
)

// Envelope frames every websocket message: {"event": "...", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// BroadcastEvent returns the outbound event name for an edit.
func BroadcastEvent(msg Message) string {
	if msg.Persistent {
		return EventTextBroadcastStatic
	}
	return EventTextBroadcast
}
