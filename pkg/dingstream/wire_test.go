package dingstream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownstreamFrameParse(t *testing.T) {
	t.Run("system ping", func(t *testing.T) {
		raw := `{
			"specVersion": "1.0",
			"type": "SYSTEM",
			"headers": {
				"contentType": "application/json",
				"messageId": "m-1",
				"time": "1693000000000",
				"topic": "ping"
			},
			"data": "{\"heartbeat\":1}"
		}`

		var frame DownstreamFrame
		require.NoError(t, json.Unmarshal([]byte(raw), &frame))
		assert.Equal(t, FrameTypeSystem, frame.Type)
		assert.Equal(t, "ping", frame.Headers.Topic)
		assert.Equal(t, "m-1", frame.Headers.MessageID)
		assert.Equal(t, `{"heartbeat":1}`, frame.Data)
	})

	t.Run("event with flattened headers", func(t *testing.T) {
		raw := `{
			"specVersion": "1.0",
			"type": "EVENT",
			"headers": {
				"appId": "app-1",
				"connectionId": "conn-1",
				"contentType": "application/json",
				"messageId": "m-2",
				"time": "1693000000000",
				"topic": "*",
				"eventType": "user_add_org",
				"eventBornTime": "1693000000000",
				"eventId": "e-1",
				"eventCorpId": "corp-1",
				"eventUnifiedAppId": "u-1"
			},
			"data": "{\"userId\":[\"u1\"]}"
		}`

		var frame DownstreamFrame
		require.NoError(t, json.Unmarshal([]byte(raw), &frame))
		assert.Equal(t, FrameTypeEvent, frame.Type)
		assert.Equal(t, "user_add_org", frame.Headers.EventType)
		assert.Equal(t, "e-1", frame.Headers.EventID)
		assert.Equal(t, "corp-1", frame.Headers.EventCorpID)
		assert.Equal(t, "u-1", frame.Headers.EventUnifiedAppID)
	})
}

func TestNewUpstreamAck(t *testing.T) {
	ack := NewUpstreamAck(`{"pong":1}`, "m-7")

	data, err := json.Marshal(ack)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"code": 200,
		"headers": {"contentType": "application/json", "messageId": "m-7"},
		"message": "OK",
		"data": "{\"pong\":1}"
	}`, string(data))
}

func TestEventAckEncode(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		assert.JSONEq(t, `{"status":"SUCCESS"}`, EventAckOK().encode())
	})

	t.Run("later with message", func(t *testing.T) {
		ack := EventAck{Status: EventAckLater, Message: "busy"}
		assert.JSONEq(t, `{"status":"LATER","message":"busy"}`, ack.encode())
	})
}
