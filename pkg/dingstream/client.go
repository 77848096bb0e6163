package dingstream

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dingstream-io/dingstream/pkg/dingstream/o11y"
)

const (
	defaultHeartbeatInterval = 8 * time.Second
	defaultReconnectInterval = 3 * time.Second
	defaultDialTimeout       = 30 * time.Second
	defaultConsumerQueueSize = 100

	maxFrameSize = 1 << 20
)

// Client maintains the stream session: it negotiates single-use endpoints,
// keeps the websocket connection alive under heartbeat supervision,
// dispatches inbound frames and emits the protocol acknowledgements.
// Construct it through NewClient (the builder); the zero value is not
// usable.
type Client struct {
	creds   *credentials
	logger  *zap.Logger
	monitor ClientMonitor
	metrics clientMetrics
	tracing o11y.TracingProvider

	tokenURL    string
	gatewayURL  string
	apiBaseURL  string
	oapiBaseURL string

	httpClient   *http.Client // negotiation and REST calls
	wsHTTPClient *http.Client // handshake transport, relaxed TLS
	dialTimeout  time.Duration

	bus               *broadcast
	consumerQueueSize int

	eventMu      sync.RWMutex
	eventHandler EventHandler

	connMu  sync.Mutex
	conn    wsConn
	writeMu sync.Mutex

	alive   atomic.Bool // pong seen since the last ping
	state   atomic.Int32
	started atomic.Bool
	exited  atomic.Bool

	exitOnce sync.Once
	exitCh   chan struct{}

	// lifecycleCtx outlives individual epochs; callback consumers run
	// against it and Exit cancels it.
	lifecycleCtx    context.Context
	lifecycleCancel context.CancelFunc

	now func() time.Time
}

// State returns the current supervisor phase.
func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

func (c *Client) setState(ctx context.Context, to ConnectionState) {
	from := ConnectionState(c.state.Swap(int32(to)))
	if from != to {
		c.monitor.OnStateChange(ctx, from, to)
	}
}

// SetHeartbeatInterval tunes the watchdog period. Zero disables heartbeat
// supervision. Takes effect on the next negotiation cycle, not a live
// session.
func (c *Client) SetHeartbeatInterval(d time.Duration) {
	if d >= 0 {
		c.creds.setHeartbeatInterval(d)
	}
}

// SetReconnectInterval tunes the pause between epochs. Zero disables
// automatic reconnection. Takes effect on the next negotiation cycle.
func (c *Client) SetReconnectInterval(d time.Duration) {
	if d >= 0 {
		c.creds.setReconnectInterval(d)
	}
}

// Connect runs the connection supervisor until Exit is called, reconnection
// is disabled, or a negotiation/handshake failure occurs. Each cycle
// negotiates a fresh single-use endpoint, opens the transport, and runs the
// dispatcher with the heartbeat watchdog alongside. Negotiation failures
// propagate rather than retry: a misconfigured credential should fail loudly
// instead of retry-storming the gateway.
func (c *Client) Connect(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("client already started")
	}

	for {
		if c.exited.Load() || ctx.Err() != nil {
			c.setState(ctx, StateDisconnected)
			return ctx.Err()
		}

		c.setState(ctx, StateConnecting)

		endpoint, err := c.Endpoint(ctx)
		if err != nil {
			c.setState(ctx, StateDisconnected)
			return err
		}

		conn, err := c.open(ctx, endpoint)
		if err != nil {
			c.setState(ctx, StateDisconnected)
			return err
		}

		epoch := uuid.NewString()
		logger := c.logger.With(zap.String("epoch", epoch))
		logger.Info("stream connected")

		c.setState(ctx, StateConnected)
		c.metrics.sessionUp(ctx)
		c.monitor.OnConnect(ctx, endpoint)

		heartbeat, reconnect := c.creds.intervals()

		epochCtx, cancel := context.WithCancel(ctx)
		if heartbeat > 0 {
			go c.watchdog(epochCtx, conn, heartbeat)
		}

		c.runEpoch(epochCtx, conn)
		cancel()

		c.closeConn(websocket.StatusNormalClosure, "epoch ended")
		c.metrics.sessionDown(ctx)
		c.setState(ctx, StateDisconnected)
		c.monitor.OnDisconnect(ctx, nil)
		logger.Info("stream disconnected")

		if c.exited.Load() || reconnect <= 0 {
			return nil
		}

		c.metrics.reconnectAttempts(ctx)
		select {
		case <-time.After(reconnect):
		case <-c.exitCh:
			c.setState(ctx, StateDisconnected)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// runEpoch traces one connection epoch around the dispatcher.
func (c *Client) runEpoch(ctx context.Context, conn wsConn) {
	if c.tracing != nil {
		var span o11y.Span
		ctx, span = c.tracing.StartSpan(ctx, "dingstream.epoch")
		defer span.End()
	}
	c.dispatch(ctx, conn)
}

// Exit requests shutdown. Idempotent and safe from any goroutine: it sets
// the persistent exit flag, unblocks a pending reconnect wait, closes the
// live connection to end the dispatcher, and drains the topic consumers.
func (c *Client) Exit() {
	c.exitOnce.Do(func() {
		c.exited.Store(true)
		close(c.exitCh)
		c.closeConn(websocket.StatusNormalClosure, "client exit")
		c.lifecycleCancel()
		c.bus.closeAll()
		c.logger.Info("client exit requested")
	})
}
