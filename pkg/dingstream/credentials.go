package dingstream

import (
	"sync"
	"time"
)

// Subscription kinds advertised to the gateway.
const (
	SubscriptionKindEvent    = "EVENT"
	SubscriptionKindSystem   = "SYSTEM"
	SubscriptionKindCallback = "CALLBACK"
)

// Subscription declares interest in one class of downstream traffic. The
// gateway matches CALLBACK frames against the registered topics; EVENT and
// SYSTEM subscriptions are wildcarded by default.
type Subscription struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

// credentials is the mutable shared client state: identity, cached token,
// tuning knobs and the advertised subscription set. All access goes through
// the mutex; critical sections are short and never span a network call.
type credentials struct {
	mu sync.Mutex

	clientID     string
	clientSecret string
	userAgent    string

	subscriptions []Subscription

	accessToken    string
	tokenExpiresAt time.Time

	heartbeatInterval time.Duration
	reconnectInterval time.Duration
}

// gatewayRequest is the POST body of the endpoint exchange, a snapshot of
// the credentials taken before the request is issued.
type gatewayRequest struct {
	ClientID      string         `json:"clientId"`
	ClientSecret  string         `json:"clientSecret"`
	UserAgent     string         `json:"ua"`
	Subscriptions []Subscription `json:"subscriptions"`
}

func newCredentials(clientID, clientSecret string) *credentials {
	return &credentials{
		clientID:     clientID,
		clientSecret: clientSecret,
		subscriptions: []Subscription{
			{Type: SubscriptionKindEvent, Topic: "*"},
			{Type: SubscriptionKindSystem, Topic: "*"},
		},
		heartbeatInterval: defaultHeartbeatInterval,
		reconnectInterval: defaultReconnectInterval,
	}
}

// snapshot copies the gateway-request view out under the lock, so the
// request itself runs without holding it.
func (c *credentials) snapshot() gatewayRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	subs := make([]Subscription, len(c.subscriptions))
	copy(subs, c.subscriptions)

	return gatewayRequest{
		ClientID:      c.clientID,
		ClientSecret:  c.clientSecret,
		UserAgent:     c.userAgent,
		Subscriptions: subs,
	}
}

// addSubscription appends (kind, topic) unless it is already present.
// Returns true if the set changed.
func (c *credentials) addSubscription(kind, topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subscriptions {
		if sub.Type == kind && sub.Topic == topic {
			return false
		}
	}
	c.subscriptions = append(c.subscriptions, Subscription{Type: kind, Topic: topic})
	return true
}

func (c *credentials) cachedToken(now time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken == "" || now.After(c.tokenExpiresAt) {
		return "", false
	}
	return c.accessToken, true
}

func (c *credentials) storeToken(token string, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accessToken = token
	c.tokenExpiresAt = expiresAt
}

func (c *credentials) identity() (clientID, clientSecret string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientID, c.clientSecret
}

// intervals returns the current tuning knobs. Changes made after Connect
// take effect on the next negotiation cycle, not the live session.
func (c *credentials) intervals() (heartbeat, reconnect time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.heartbeatInterval, c.reconnectInterval
}

func (c *credentials) setUserAgent(ua string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userAgent = ua
}

func (c *credentials) setHeartbeatInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.heartbeatInterval = d
}

func (c *credentials) setReconnectInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnectInterval = d
}
