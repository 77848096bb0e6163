package dingstream

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// watchdog supervises session liveness. Each tick it first checks whether
// the previous ping was answered: a false liveness flag at tick time means
// the pong did not arrive within a full interval, and the epoch is aborted.
// Otherwise the flag is cleared and a fresh ping goes out; the pong arriving
// sets it back to true. Two consecutive missed pongs therefore tear the
// connection down. A zero interval disables the watchdog, leaving
// reconnection to transport-level closure detection alone.
func (c *Client) watchdog(ctx context.Context, conn wsConn, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.alive.Load() {
				c.logger.Warn("heartbeat timeout, aborting connection",
					zap.Duration("interval", interval))
				c.metrics.heartbeatTimeouts(ctx)
				c.closeConn(websocket.StatusPolicyViolation, "heartbeat timeout")
				return
			}
			c.alive.Store(false)
			c.ping(ctx, conn, interval)
		}
	}
}
