package dingstream

import "encoding/json"

// Frame type constants for the "type" field of downstream frames.
const (
	FrameTypeSystem   = "SYSTEM"
	FrameTypeEvent    = "EVENT"
	FrameTypeCallback = "CALLBACK"
)

// SYSTEM frame topics handled by the dispatcher. Only "ping" requires a
// reply; the rest are informational.
const (
	systemTopicPing       = "ping"
	systemTopicConnected  = "CONNECTED"
	systemTopicRegistered = "REGISTERED"
	systemTopicDisconnect = "disconnect"
	systemTopicKeepalive  = "KEEPALIVE"
)

// DownstreamFrame is one complete text message received over the websocket
// session. Frames are immutable once parsed; CALLBACK frames are shared
// read-only with every topic consumer.
type DownstreamFrame struct {
	SpecVersion string           `json:"specVersion"`
	Type        string           `json:"type"`
	Headers     DownstreamHeader `json:"headers"`
	Data        string           `json:"data"`
}

// DownstreamHeader carries the frame routing metadata plus, for EVENT
// frames, the flattened event fields.
type DownstreamHeader struct {
	AppID        string `json:"appId,omitempty"`
	ConnectionID string `json:"connectionId,omitempty"`
	ContentType  string `json:"contentType"`
	MessageID    string `json:"messageId"`
	Time         string `json:"time"`
	Topic        string `json:"topic"`

	EventData
}

// EventData is the set of event fields the server flattens into the headers
// of EVENT frames.
type EventData struct {
	EventType         string `json:"eventType,omitempty"`
	EventBornTime     string `json:"eventBornTime,omitempty"`
	EventID           string `json:"eventId,omitempty"`
	EventCorpID       string `json:"eventCorpId,omitempty"`
	EventUnifiedAppID string `json:"eventUnifiedAppId,omitempty"`
}

// UpstreamAck is the protocol-mandated reply to a downstream frame. Its
// message id must echo the id of the frame that triggered it.
type UpstreamAck struct {
	Code    int            `json:"code"`
	Headers UpstreamHeader `json:"headers"`
	Message string         `json:"message"`
	Data    string         `json:"data"`
}

type UpstreamHeader struct {
	ContentType string `json:"contentType"` // always application/json
	MessageID   string `json:"messageId"`   // same as the triggering DownstreamHeader.MessageID
}

// NewUpstreamAck builds the standard 200/OK ack for the given message id,
// carrying data as the opaque reply payload.
func NewUpstreamAck(data, messageID string) UpstreamAck {
	return UpstreamAck{
		Code: 200,
		Headers: UpstreamHeader{
			ContentType: "application/json",
			MessageID:   messageID,
		},
		Message: "OK",
		Data:    data,
	}
}

// callbackAckData is the fixed payload acknowledging a CALLBACK frame. The
// protocol requires the ack before (and independent of) business processing.
const callbackAckData = `{"response":{}}`

// Event ack statuses. LATER tells the server to redeliver the event.
const (
	EventAckSuccess = "SUCCESS"
	EventAckLater   = "LATER"
)

// EventAck is the result of the user event handler, serialized into the data
// field of the corresponding UpstreamAck.
type EventAck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// EventAckOK is the default acknowledgement for handled events.
func EventAckOK() EventAck {
	return EventAck{Status: EventAckSuccess}
}

func (a EventAck) encode() string {
	data, err := json.Marshal(a)
	if err != nil {
		// EventAck has no unmarshalable fields; keep the protocol contract
		// even if a future change breaks that.
		return `{"status":"SUCCESS"}`
	}
	return string(data)
}
