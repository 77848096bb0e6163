// Package dingstream implements a persistent-connection client for the
// DingTalk Stream Mode protocol. The client authenticates over HTTPS,
// exchanges its credentials for a single-use websocket endpoint, and then
// maintains a long-lived websocket session with heartbeat supervision and
// automatic reconnection.
//
// Inbound frames are classified as SYSTEM, EVENT or CALLBACK. SYSTEM frames
// are handled by the client itself, EVENT frames are delivered to a single
// replaceable event handler, and CALLBACK frames are acknowledged immediately
// and fanned out asynchronously to topic listeners registered with
// RegisterCallbackListener. Every frame that requires a reply is acknowledged
// with an upstream frame echoing the originating message id.
//
// A minimal bot:
//
//	client, err := dingstream.NewClient().
//		WithCredentials("appKey", "appSecret").
//		WithLogger(logger).
//		Build()
//	if err != nil {
//		return err
//	}
//
//	client.RegisterRobotMessageListener(func(ctx context.Context, msg *dingstream.RobotReceivedMessage) error {
//		logger.Info("message received", zap.String("sender", msg.SenderNick))
//		return nil
//	})
//
//	return client.Connect(ctx) // blocks until Exit() or a fatal negotiation error
package dingstream
