package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastEvent(t *testing.T) {
	assert.Equal(t, EventTextBroadcast, BroadcastEvent(Message{Content: "x"}))
	assert.Equal(t, EventTextBroadcastStatic, BroadcastEvent(Message{Content: "x", Persistent: true}))
}

func TestEnvelope_KeepsPayloadVerbatim(t *testing.T) {
	raw := `{"event":"TEXT_INPUT","data":{"id":"abc","content":"hi","persistent":false,"extra":1}}`

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	assert.Equal(t, EventTextInput, env.Event)
	assert.JSONEq(t, `{"id":"abc","content":"hi","persistent":false,"extra":1}`, string(env.Data))
}
