package dingstream

import (
	"context"
	"encoding/json"
	"fmt"
)

// EventHandler is the single catch-all handler for EVENT frames. The
// returned EventAck is serialized into the mandated acknowledgement;
// returning a LATER status asks the server to redeliver.
type EventHandler func(ctx context.Context, event EventData) EventAck

// RegisterAllEventListener installs handler as the event callback, replacing
// any previous one. The swap is atomic and effective for the next EVENT
// frame. Returns the client for chaining.
func (c *Client) RegisterAllEventListener(handler EventHandler) *Client {
	c.eventMu.Lock()
	c.eventHandler = handler
	c.eventMu.Unlock()
	return c
}

// RegisterCallbackListener subscribes handler to CALLBACK frames published
// on topic. The topic is added to the advertised subscription set (visible
// to the server from the next negotiation cycle) and a dedicated consumer
// goroutine is started. Registering the same topic again replaces the
// previous handler. Returns the client for chaining.
func (c *Client) RegisterCallbackListener(topic string, handler CallbackHandler) *Client {
	c.creds.addSubscription(SubscriptionKindCallback, topic)
	sub := newConsumer(topic, handler, c.consumerQueueSize, c.logger)
	c.bus.register(c.lifecycleCtx, sub)
	return c
}

// RegisterTypedCallbackListener is RegisterCallbackListener with the frame's
// data payload decoded into T before the handler runs. Frames whose payload
// does not decode are logged and skipped.
func RegisterTypedCallbackListener[T any](c *Client, topic string, handler func(ctx context.Context, msg *T) error) *Client {
	return c.RegisterCallbackListener(topic, func(ctx context.Context, frame *DownstreamFrame) error {
		var msg T
		if err := json.Unmarshal([]byte(frame.Data), &msg); err != nil {
			return fmt.Errorf("decode callback payload: %w", err)
		}
		return handler(ctx, &msg)
	})
}

// RegisterRobotMessageListener subscribes handler to incoming chat-bot
// messages on the standard robot topic.
func (c *Client) RegisterRobotMessageListener(handler func(ctx context.Context, msg *RobotReceivedMessage) error) *Client {
	return RegisterTypedCallbackListener(c, TopicRobotMessage, handler)
}

// RegisterCardCallbackListener subscribes a raw handler to card instance
// callbacks.
func (c *Client) RegisterCardCallbackListener(handler CallbackHandler) *Client {
	return c.RegisterCallbackListener(TopicCardCallback, handler)
}

func (c *Client) currentEventHandler() EventHandler {
	c.eventMu.RLock()
	defer c.eventMu.RUnlock()
	return c.eventHandler
}
