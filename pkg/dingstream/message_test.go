package dingstream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRobotReceivedMessageUnmarshal(t *testing.T) {
	t.Run("text message", func(t *testing.T) {
		raw := `{
			"msgId": "msg-1",
			"msgtype": "text",
			"text": {"content": "hello bot"},
			"conversationId": "cid-1",
			"conversationType": "2",
			"conversationTitle": "dev chat",
			"chatbotUserId": "bot-1",
			"senderId": "u-1",
			"senderNick": "alice",
			"senderStaffId": "staff-1",
			"sessionWebhook": "https://oapi.dingtalk.com/robot/sendBySession?session=x",
			"sessionWebhookExpiredTime": 1693000000000,
			"createAt": 1692999990000,
			"atUsers": [{"dingtalkId": "d-1", "staffId": "staff-2"}],
			"isInAtList": true
		}`

		var msg RobotReceivedMessage
		require.NoError(t, json.Unmarshal([]byte(raw), &msg))

		assert.Equal(t, "msg-1", msg.MsgID)
		assert.Equal(t, "text", msg.MsgType)
		assert.Equal(t, "cid-1", msg.ConversationID)
		assert.Equal(t, "2", msg.ConversationType)
		assert.Equal(t, "alice", msg.SenderNick)
		assert.True(t, msg.IsInAtList)
		require.Len(t, msg.AtUsers, 1)
		assert.Equal(t, "d-1", msg.AtUsers[0].DingtalkID)

		text, ok := msg.Content.(TextContent)
		require.True(t, ok)
		assert.Equal(t, "hello bot", text.Content)
	})

	t.Run("picture message", func(t *testing.T) {
		raw := `{
			"msgId": "msg-2",
			"msgtype": "picture",
			"content": {"downloadCode": "dl-1", "pictureDownloadCode": "pdl-1"},
			"conversationId": "cid-1",
			"conversationType": "1",
			"chatbotUserId": "bot-1",
			"senderId": "u-1",
			"senderNick": "bob",
			"sessionWebhook": "https://example.com",
			"sessionWebhookExpiredTime": 1,
			"createAt": 1
		}`

		var msg RobotReceivedMessage
		require.NoError(t, json.Unmarshal([]byte(raw), &msg))

		pic, ok := msg.Content.(PictureContent)
		require.True(t, ok)
		assert.Equal(t, "dl-1", pic.DownloadCode)
		assert.Equal(t, "pdl-1", pic.PictureDownloadCode)
	})

	t.Run("rich text message", func(t *testing.T) {
		raw := `{
			"msgId": "msg-3",
			"msgtype": "richText",
			"content": {"richText": [
				{"text": "look at "},
				{"downloadCode": "dl-2", "type": "picture"}
			]},
			"conversationId": "cid-1",
			"conversationType": "2",
			"chatbotUserId": "bot-1",
			"senderId": "u-1",
			"senderNick": "carol",
			"sessionWebhook": "https://example.com",
			"sessionWebhookExpiredTime": 1,
			"createAt": 1
		}`

		var msg RobotReceivedMessage
		require.NoError(t, json.Unmarshal([]byte(raw), &msg))

		rich, ok := msg.Content.(RichTextContent)
		require.True(t, ok)
		require.Len(t, rich.RichText, 2)
		assert.Equal(t, "look at ", rich.RichText[0].Text)
		assert.Equal(t, "dl-2", rich.RichText[1].DownloadCode)
	})

	t.Run("unmodeled type keeps the raw payload", func(t *testing.T) {
		raw := `{
			"msgId": "msg-4",
			"msgtype": "hologram",
			"content": {"shape": "cube"},
			"conversationId": "cid-1",
			"conversationType": "1",
			"chatbotUserId": "bot-1",
			"senderId": "u-1",
			"senderNick": "dave",
			"sessionWebhook": "https://example.com",
			"sessionWebhookExpiredTime": 1,
			"createAt": 1
		}`

		var msg RobotReceivedMessage
		require.NoError(t, json.Unmarshal([]byte(raw), &msg))

		unknown, ok := msg.Content.(UnknownContent)
		require.True(t, ok)
		assert.Equal(t, "hologram", unknown.MsgType)
		assert.JSONEq(t, `{"shape":"cube"}`, string(unknown.Raw))
	})

	t.Run("no content is not an error", func(t *testing.T) {
		raw := `{"msgId": "msg-5", "msgtype": "text"}`

		var msg RobotReceivedMessage
		require.NoError(t, json.Unmarshal([]byte(raw), &msg))
		assert.Nil(t, msg.Content)
	})
}

func TestMessageTemplateKeys(t *testing.T) {
	templates := map[string]MessageTemplate{
		"sampleText":        SampleText{},
		"sampleMarkdown":    SampleMarkdown{},
		"sampleImageMsg":    SampleImage{},
		"sampleLink":        SampleLink{},
		"sampleActionCard":  SampleActionCard{},
		"sampleActionCard6": SampleButtonCard{},
		"sampleAudio":       SampleAudio{},
		"sampleFile":        SampleFile{},
		"sampleVideo":       SampleVideo{},
	}
	for key, template := range templates {
		assert.Equal(t, key, template.MsgKey())
	}
}
