package dingstream

import (
	"context"

	"github.com/dingstream-io/dingstream/pkg/dingstream/o11y"
)

// clientMetrics wraps the optional instruments. A client built without an
// observability provider carries the zero value and every method is a no-op.
type clientMetrics struct {
	frames            o11y.Counter
	acks              o11y.Counter
	reconnects        o11y.Counter
	parseFail         o11y.Counter
	handlerErr        o11y.Counter
	heartbeatTimeout  o11y.Counter
	connectedSessions o11y.Gauge
}

func newClientMetrics(provider o11y.MetricsProvider) clientMetrics {
	if provider == nil {
		return clientMetrics{}
	}
	return clientMetrics{
		frames:            provider.Counter("dingstream_frames_received_total"),
		acks:              provider.Counter("dingstream_acks_sent_total"),
		reconnects:        provider.Counter("dingstream_reconnects_total"),
		parseFail:         provider.Counter("dingstream_frame_parse_failures_total"),
		handlerErr:        provider.Counter("dingstream_handler_errors_total"),
		heartbeatTimeout:  provider.Counter("dingstream_heartbeat_timeouts_total"),
		connectedSessions: provider.Gauge("dingstream_connected_sessions"),
	}
}

func (m clientMetrics) framesReceived(ctx context.Context, frameType string) {
	if m.frames != nil {
		m.frames.Add(ctx, 1, o11y.Label{Key: "type", Value: frameType})
	}
}

func (m clientMetrics) acksSent(ctx context.Context) {
	if m.acks != nil {
		m.acks.Add(ctx, 1)
	}
}

func (m clientMetrics) reconnectAttempts(ctx context.Context) {
	if m.reconnects != nil {
		m.reconnects.Add(ctx, 1)
	}
}

func (m clientMetrics) parseFailures(ctx context.Context) {
	if m.parseFail != nil {
		m.parseFail.Add(ctx, 1)
	}
}

func (m clientMetrics) handlerErrors(ctx context.Context) {
	if m.handlerErr != nil {
		m.handlerErr.Add(ctx, 1)
	}
}

func (m clientMetrics) heartbeatTimeouts(ctx context.Context) {
	if m.heartbeatTimeout != nil {
		m.heartbeatTimeout.Add(ctx, 1)
	}
}

func (m clientMetrics) sessionUp(ctx context.Context) {
	if m.connectedSessions != nil {
		m.connectedSessions.Set(ctx, 1)
	}
}

func (m clientMetrics) sessionDown(ctx context.Context) {
	if m.connectedSessions != nil {
		m.connectedSessions.Set(ctx, -1)
	}
}
