package dingstream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dingstream-io/dingstream/pkg/dingstream/o11y"
)

// ClientBuilder provides a fluent interface for building stream clients.
type ClientBuilder struct {
	clientID     string
	clientSecret string
	userAgent    string

	logger  *zap.Logger
	monitor ClientMonitor
	obs     *o11y.Config

	tokenURL    string
	gatewayURL  string
	apiBaseURL  string
	oapiBaseURL string

	heartbeatInterval time.Duration
	reconnectInterval time.Duration
	dialTimeout       time.Duration
	consumerQueueSize int

	httpClient *http.Client
}

// NewClient creates a new stream client builder with production endpoints
// and default intervals.
func NewClient() *ClientBuilder {
	return &ClientBuilder{
		logger:            zap.NewNop(),
		tokenURL:          DefaultTokenURL,
		gatewayURL:        DefaultGatewayURL,
		apiBaseURL:        DefaultAPIBaseURL,
		oapiBaseURL:       DefaultOAPIBaseURL,
		heartbeatInterval: defaultHeartbeatInterval,
		reconnectInterval: defaultReconnectInterval,
		dialTimeout:       defaultDialTimeout,
		consumerQueueSize: defaultConsumerQueueSize,
	}
}

// WithCredentials sets the client identity (AppKey/AppSecret in the vendor
// backend). Required.
func (b *ClientBuilder) WithCredentials(clientID, clientSecret string) *ClientBuilder {
	b.clientID = clientID
	b.clientSecret = clientSecret
	return b
}

// WithUserAgent sets the ua value advertised during endpoint negotiation.
func (b *ClientBuilder) WithUserAgent(ua string) *ClientBuilder {
	b.userAgent = ua
	return b
}

// WithLogger sets the logger for the client.
func (b *ClientBuilder) WithLogger(logger *zap.Logger) *ClientBuilder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// WithMonitor sets an optional monitor that receives state transitions and
// connect/disconnect events.
func (b *ClientBuilder) WithMonitor(monitor ClientMonitor) *ClientBuilder {
	b.monitor = monitor
	return b
}

// WithObservability attaches metrics and tracing providers.
func (b *ClientBuilder) WithObservability(cfg *o11y.Config) *ClientBuilder {
	b.obs = cfg
	return b
}

// WithTokenURL overrides the token endpoint. Intended for tests.
func (b *ClientBuilder) WithTokenURL(url string) *ClientBuilder {
	if url != "" {
		b.tokenURL = url
	}
	return b
}

// WithGatewayURL overrides the gateway endpoint. Intended for tests.
func (b *ClientBuilder) WithGatewayURL(url string) *ClientBuilder {
	if url != "" {
		b.gatewayURL = url
	}
	return b
}

// WithAPIBaseURL overrides the api.dingtalk.com host for the REST helpers.
// Intended for tests.
func (b *ClientBuilder) WithAPIBaseURL(url string) *ClientBuilder {
	if url != "" {
		b.apiBaseURL = url
	}
	return b
}

// WithOAPIBaseURL overrides the oapi.dingtalk.com host for media uploads.
// Intended for tests.
func (b *ClientBuilder) WithOAPIBaseURL(url string) *ClientBuilder {
	if url != "" {
		b.oapiBaseURL = url
	}
	return b
}

// WithHeartbeatInterval sets the watchdog period. Zero disables heartbeat
// supervision entirely; negative values are ignored.
func (b *ClientBuilder) WithHeartbeatInterval(d time.Duration) *ClientBuilder {
	if d >= 0 {
		b.heartbeatInterval = d
	}
	return b
}

// WithReconnectInterval sets the pause before re-negotiating after a
// disconnect. Zero disables automatic reconnection; negative values are
// ignored.
func (b *ClientBuilder) WithReconnectInterval(d time.Duration) *ClientBuilder {
	if d >= 0 {
		b.reconnectInterval = d
	}
	return b
}

// WithDialTimeout sets the timeout for the websocket handshake.
func (b *ClientBuilder) WithDialTimeout(d time.Duration) *ClientBuilder {
	if d > 0 {
		b.dialTimeout = d
	}
	return b
}

// WithConsumerQueueSize sets the per-topic consumer queue depth.
func (b *ClientBuilder) WithConsumerQueueSize(size int) *ClientBuilder {
	if size > 0 {
		b.consumerQueueSize = size
	}
	return b
}

// WithHTTPClient overrides the HTTP client used for negotiation and REST
// calls (not the websocket handshake).
func (b *ClientBuilder) WithHTTPClient(client *http.Client) *ClientBuilder {
	if client != nil {
		b.httpClient = client
	}
	return b
}

// IsValid checks that all required configuration is present.
func (b *ClientBuilder) IsValid() error {
	if b.clientID == "" || b.clientSecret == "" {
		return fmt.Errorf("credentials are required")
	}
	return nil
}

// Build creates the client with the configured options.
func (b *ClientBuilder) Build() (*Client, error) {
	if err := b.IsValid(); err != nil {
		return nil, err
	}

	creds := newCredentials(b.clientID, b.clientSecret)
	creds.setUserAgent(b.userAgent)
	creds.setHeartbeatInterval(b.heartbeatInterval)
	creds.setReconnectInterval(b.reconnectInterval)

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	monitor := b.monitor
	if monitor == nil {
		monitor = BaseMonitor{}
	}

	metrics := clientMetrics{}
	var tracing o11y.TracingProvider
	if b.obs != nil {
		metrics = newClientMetrics(b.obs.MetricsProvider)
		tracing = b.obs.TracingProvider
	}

	lifecycleCtx, lifecycleCancel := context.WithCancel(context.Background())

	c := &Client{
		creds:             creds,
		logger:            b.logger,
		monitor:           monitor,
		metrics:           metrics,
		tracing:           tracing,
		tokenURL:          b.tokenURL,
		gatewayURL:        b.gatewayURL,
		apiBaseURL:        b.apiBaseURL,
		oapiBaseURL:       b.oapiBaseURL,
		httpClient:        httpClient,
		wsHTTPClient:      insecureWSHTTPClient(),
		dialTimeout:       b.dialTimeout,
		consumerQueueSize: b.consumerQueueSize,
		bus:               newBroadcast(b.logger),
		exitCh:            make(chan struct{}),
		lifecycleCtx:      lifecycleCtx,
		lifecycleCancel:   lifecycleCancel,
		now:               time.Now,
	}

	return c, nil
}
