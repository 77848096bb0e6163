package dingstream

import (
	"context"
	"encoding/json"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// dispatch consumes the receive half until the stream ends. Read errors and
// close frames are normal disconnect conditions: the loop returns and the
// supervisor decides whether to reconnect. Frames are processed strictly in
// receipt order, so acks leave in the order their frames arrived.
func (c *Client) dispatch(ctx context.Context, conn wsConn) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil && websocket.CloseStatus(err) == -1 {
				c.logger.Debug("stream read ended", zap.Error(err))
			}
			return
		}
		if typ != websocket.MessageText {
			c.logger.Debug("ignoring non-text frame", zap.Int("type", int(typ)))
			continue
		}

		var frame DownstreamFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Warn("malformed downstream frame dropped", zap.Error(err))
			c.metrics.parseFailures(ctx)
			continue
		}

		c.metrics.framesReceived(ctx, frame.Type)

		switch frame.Type {
		case FrameTypeSystem:
			c.onSystem(ctx, &frame)
		case FrameTypeEvent:
			c.onEvent(ctx, &frame)
		case FrameTypeCallback:
			c.onCallback(ctx, &frame)
		default:
			c.logger.Error("unknown frame type",
				zap.String("type", frame.Type),
				zap.String("topic", frame.Headers.Topic))
		}
	}
}

// onSystem handles protocol-level system messages. Only "ping" requires a
// reply, echoing the frame's raw data back as the ack payload; the
// remaining topics are connection lifecycle notices.
func (c *Client) onSystem(ctx context.Context, frame *DownstreamFrame) {
	switch frame.Headers.Topic {
	case systemTopicPing:
		ack := NewUpstreamAck(frame.Data, frame.Headers.MessageID)
		if err := c.send(ctx, ack); err != nil {
			c.logger.Warn("ping ack failed", zap.Error(err))
		}
	case systemTopicConnected, systemTopicRegistered, systemTopicDisconnect, systemTopicKeepalive:
		c.logger.Debug("system message", zap.String("topic", frame.Headers.Topic))
	default:
		c.logger.Warn("unknown system message", zap.String("topic", frame.Headers.Topic))
	}
}

// onEvent runs the registered event handler and acknowledges with its
// result. A missing handler still produces a SUCCESS ack: the protocol
// requires a reply regardless of business interest.
func (c *Client) onEvent(ctx context.Context, frame *DownstreamFrame) {
	ack := EventAckOK()
	if handler := c.currentEventHandler(); handler != nil {
		ack = c.invokeEventHandler(ctx, handler, frame.Headers.EventData)
	}

	reply := NewUpstreamAck(ack.encode(), frame.Headers.MessageID)
	if err := c.send(ctx, reply); err != nil {
		c.logger.Warn("event ack failed",
			zap.String("messageId", frame.Headers.MessageID),
			zap.Error(err))
	}
}

// invokeEventHandler contains handler panics; a panicking handler must not
// take the transport down with it.
func (c *Client) invokeEventHandler(ctx context.Context, handler EventHandler, event EventData) (ack EventAck) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("event handler panicked", zap.Any("panic", r))
			c.metrics.handlerErrors(ctx)
			ack = EventAck{Status: EventAckLater, Message: "handler failure"}
		}
	}()
	return handler(ctx, event)
}

// onCallback acknowledges the frame synchronously, then hands it to the
// broadcast for asynchronous fan-out. The ack must not wait on any
// subscriber.
func (c *Client) onCallback(ctx context.Context, frame *DownstreamFrame) {
	ack := NewUpstreamAck(callbackAckData, frame.Headers.MessageID)
	if err := c.send(ctx, ack); err != nil {
		c.logger.Warn("callback ack failed",
			zap.String("messageId", frame.Headers.MessageID),
			zap.Error(err))
	}
	c.bus.publish(frame)
}
