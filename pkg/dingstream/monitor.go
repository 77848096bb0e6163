package dingstream

import "context"

// ConnectionState is the externally observable phase of the supervisor.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ClientMonitor receives client lifecycle notifications. All methods are
// called from the supervisor goroutine and should return quickly.
type ClientMonitor interface {
	// OnStateChange fires on every supervisor state transition.
	OnStateChange(ctx context.Context, from, to ConnectionState)
	// OnConnect fires after a successful handshake, with the negotiated
	// endpoint URL.
	OnConnect(ctx context.Context, endpoint string)
	// OnDisconnect fires when an epoch ends. err is nil for a graceful
	// close or explicit exit.
	OnDisconnect(ctx context.Context, err error)
}

// BaseMonitor is a no-op ClientMonitor for embedding.
type BaseMonitor struct{}

func (BaseMonitor) OnStateChange(context.Context, ConnectionState, ConnectionState) {}
func (BaseMonitor) OnConnect(context.Context, string)                               {}
func (BaseMonitor) OnDisconnect(context.Context, error)                             {}
