package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dingstream-io/dingstream/pkg/dingstream"
	"github.com/dingstream-io/dingstream/pkg/dingstream/config"
	"github.com/dingstream-io/dingstream/pkg/dingstream/o11y"
	"github.com/dingstream-io/dingstream/pkg/dingstream/otel"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the stream client until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile, env)
		if err != nil {
			return err
		}

		logger, sync := newLogger(cfg.Log.Level, cfg.Log.File)
		defer sync()

		builder := dingstream.NewClient().
			WithCredentials(cfg.App.ClientID, cfg.App.ClientSecret).
			WithUserAgent(cfg.App.UserAgent).
			WithLogger(logger).
			WithHeartbeatInterval(time.Duration(cfg.Stream.HeartbeatInterval) * time.Second).
			WithReconnectInterval(time.Duration(cfg.Stream.ReconnectInterval) * time.Second)

		if cfg.Observability.Enabled {
			provider := otel.NewProvider("dingstream", "1.0.0")
			builder.WithObservability(&o11y.Config{
				MetricsProvider: provider,
				TracingProvider: provider,
				ServiceName:     "dingstream",
				ServiceVersion:  "1.0.0",
			})
		}

		client, err := builder.Build()
		if err != nil {
			return err
		}

		client.RegisterRobotMessageListener(func(ctx context.Context, msg *dingstream.RobotReceivedMessage) error {
			logger.Info("robot message received",
				zap.String("sender", msg.SenderNick),
				zap.String("conversation", msg.ConversationID),
				zap.String("msgtype", msg.MsgType))
			return nil
		})
		client.RegisterAllEventListener(func(ctx context.Context, event dingstream.EventData) dingstream.EventAck {
			logger.Info("event received",
				zap.String("eventType", event.EventType),
				zap.String("eventId", event.EventID))
			return dingstream.EventAckOK()
		})
		for _, topic := range cfg.Stream.Topics {
			topic := topic
			client.RegisterCallbackListener(topic, func(ctx context.Context, frame *dingstream.DownstreamFrame) error {
				logger.Info("callback received",
					zap.String("topic", frame.Headers.Topic),
					zap.String("messageId", frame.Headers.MessageID))
				return nil
			})
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			client.Exit()
		}()

		return client.Connect(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
