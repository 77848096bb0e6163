package dingstream

import "encoding/json"

// Well-known CALLBACK topics.
const (
	// TopicRobotMessage delivers incoming chat-bot messages.
	TopicRobotMessage = "/v1.0/im/bot/messages/get"
	// TopicCardCallback delivers interactive card instance callbacks.
	TopicCardCallback = "/v1.0/card/instances/callback"
)

// RobotReceivedMessage is the payload of a CALLBACK frame on the robot
// message topic.
type RobotReceivedMessage struct {
	MsgID   string     `json:"msgId"`
	MsgType string     `json:"msgtype"`
	Content MsgContent `json:"-"`

	ConversationID string `json:"conversationId"`
	// "1" is a single chat, "2" a group chat.
	ConversationType  string `json:"conversationType"`
	ConversationTitle string `json:"conversationTitle,omitempty"`

	AtUsers       []AtUser `json:"atUsers,omitempty"`
	IsInAtList    bool     `json:"isInAtList,omitempty"`
	ChatbotCorpID string   `json:"chatbotCorpId,omitempty"`
	ChatbotUserID string   `json:"chatbotUserId"`

	SenderID      string `json:"senderId"`
	SenderNick    string `json:"senderNick"`
	SenderCorpID  string `json:"senderCorpId,omitempty"`
	SenderStaffID string `json:"senderStaffId,omitempty"`

	SessionWebhookExpiredTime uint64 `json:"sessionWebhookExpiredTime"`
	SessionWebhook            string `json:"sessionWebhook"`

	IsAdmin  bool   `json:"isAdmin,omitempty"`
	CreateAt uint64 `json:"createAt"`
}

// UnmarshalJSON decodes the envelope, then the content union keyed by
// msgtype. The server sends text content under "text" and other types under
// "content".
func (m *RobotReceivedMessage) UnmarshalJSON(data []byte) error {
	type envelope RobotReceivedMessage
	var env struct {
		envelope
		Text    json.RawMessage `json:"text"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*m = RobotReceivedMessage(env.envelope)

	raw := env.Content
	if len(raw) == 0 {
		raw = env.Text
	}
	if len(raw) == 0 {
		return nil
	}
	content, err := decodeMsgContent(m.MsgType, raw)
	if err != nil {
		return err
	}
	m.Content = content
	return nil
}

// AtUser identifies a user mentioned in a message.
type AtUser struct {
	DingtalkID string `json:"dingtalkId"`
	StaffID    string `json:"staffId,omitempty"`
}

// MsgContent is the union of inbound message content variants.
type MsgContent interface {
	msgContent()
}

type TextContent struct {
	Content string `json:"content"`
}

type FileContent struct {
	DownloadCode string `json:"downloadCode"`
	FileName     string `json:"fileName"`
}

type PictureContent struct {
	DownloadCode        string `json:"downloadCode"`
	PictureDownloadCode string `json:"pictureDownloadCode,omitempty"`
}

type RichTextContent struct {
	RichText []RichTextNode `json:"richText"`
}

// RichTextNode is one run of a rich text message: either text or an inline
// picture.
type RichTextNode struct {
	Text         string `json:"text,omitempty"`
	DownloadCode string `json:"downloadCode,omitempty"`
	Type         string `json:"type,omitempty"`
}

type AudioContent struct {
	Duration     uint32 `json:"duration"`
	DownloadCode string `json:"downloadCode"`
	Recognition  string `json:"recognition,omitempty"`
}

type VideoContent struct {
	Duration     uint32 `json:"duration"`
	DownloadCode string `json:"downloadCode"`
	VideoType    string `json:"videoType,omitempty"`
}

// UnknownContent preserves the raw payload of message types the client does
// not model.
type UnknownContent struct {
	MsgType string
	Raw     json.RawMessage
}

func (TextContent) msgContent()     {}
func (FileContent) msgContent()     {}
func (PictureContent) msgContent()  {}
func (RichTextContent) msgContent() {}
func (AudioContent) msgContent()    {}
func (VideoContent) msgContent()    {}
func (UnknownContent) msgContent()  {}

func decodeMsgContent(msgType string, raw json.RawMessage) (MsgContent, error) {
	switch msgType {
	case "text":
		var v TextContent
		return v, json.Unmarshal(raw, &v)
	case "file":
		var v FileContent
		return v, json.Unmarshal(raw, &v)
	case "picture":
		var v PictureContent
		return v, json.Unmarshal(raw, &v)
	case "richText":
		var v RichTextContent
		return v, json.Unmarshal(raw, &v)
	case "audio":
		var v AudioContent
		return v, json.Unmarshal(raw, &v)
	case "video":
		var v VideoContent
		return v, json.Unmarshal(raw, &v)
	default:
		return UnknownContent{MsgType: msgType, Raw: raw}, nil
	}
}

// MessageTemplate is an outbound message body. MsgKey names the vendor
// template; the value itself serializes into the msgParam field.
type MessageTemplate interface {
	MsgKey() string
}

type SampleText struct {
	Content string `json:"content"`
}

func (SampleText) MsgKey() string { return "sampleText" }

type SampleMarkdown struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

func (SampleMarkdown) MsgKey() string { return "sampleMarkdown" }

type SampleImage struct {
	PhotoURL string `json:"photoURL"`
}

func (SampleImage) MsgKey() string { return "sampleImageMsg" }

type SampleLink struct {
	Text       string `json:"text"`
	Title      string `json:"title"`
	PicURL     string `json:"picUrl"`
	MessageURL string `json:"messageUrl"`
}

func (SampleLink) MsgKey() string { return "sampleLink" }

type SampleActionCard struct {
	Title       string `json:"title"`
	Text        string `json:"text"`
	SingleTitle string `json:"singleTitle"`
	SingleURL   string `json:"singleURL"`
}

func (SampleActionCard) MsgKey() string { return "sampleActionCard" }

// SampleButtonCard is the two-button action card variant.
type SampleButtonCard struct {
	Title        string `json:"title"`
	Text         string `json:"text"`
	ButtonTitle1 string `json:"buttonTitle1"`
	ButtonURL1   string `json:"buttonUrl1"`
	ButtonTitle2 string `json:"buttonTitle2"`
	ButtonURL2   string `json:"buttonUrl2"`
}

func (SampleButtonCard) MsgKey() string { return "sampleActionCard6" }

type SampleAudio struct {
	MediaID  string `json:"mediaId"`
	Duration string `json:"duration"`
}

func (SampleAudio) MsgKey() string { return "sampleAudio" }

type SampleFile struct {
	MediaID  string `json:"mediaId"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

func (SampleFile) MsgKey() string { return "sampleFile" }

type SampleVideo struct {
	Duration     string `json:"duration"`
	VideoMediaID string `json:"videoMediaId"`
	VideoType    string `json:"videoType"`
	PicMediaID   string `json:"picMediaId"`
}

func (SampleVideo) MsgKey() string { return "sampleVideo" }
