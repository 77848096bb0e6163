package dingstream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchdogKeepsHealthySessionAlive(t *testing.T) {
	client := newTestClient(t, nil)
	conn := &fakeConn{frames: make(chan []byte)} // Ping returns nil, pong immediately
	installConn(client, conn)
	client.alive.Store(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		client.watchdog(ctx, conn, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return conn.pings.Load() >= 3 }, time.Second, time.Millisecond)
	assert.False(t, conn.closed.Load())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watchdog did not stop on cancel")
	}
	assert.NotNil(t, client.currentConn())
}

func TestWatchdogAbortsAfterMissedPongs(t *testing.T) {
	client := newTestClient(t, nil)
	conn := &fakeConn{frames: make(chan []byte), pingBlock: true} // pong never arrives
	installConn(client, conn)
	client.alive.Store(true)

	done := make(chan struct{})
	go func() {
		client.watchdog(context.Background(), conn, 10*time.Millisecond)
		close(done)
	}()

	// Tick one clears the flag and pings; tick two sees it still cleared.
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watchdog never gave up")
	}

	assert.True(t, conn.closed.Load())
	assert.Nil(t, client.currentConn())
	assert.EqualValues(t, 1, conn.pings.Load())
}

func TestPingRefreshesLiveness(t *testing.T) {
	client := newTestClient(t, nil)

	t.Run("answered ping sets the flag", func(t *testing.T) {
		conn := &fakeConn{frames: make(chan []byte)}
		client.alive.Store(false)

		client.ping(context.Background(), conn, time.Second)

		require.Eventually(t, func() bool { return client.alive.Load() }, time.Second, time.Millisecond)
	})

	t.Run("unanswered ping leaves the flag cleared", func(t *testing.T) {
		conn := &fakeConn{frames: make(chan []byte), pingBlock: true}
		client.alive.Store(false)

		client.ping(context.Background(), conn, 10*time.Millisecond)

		time.Sleep(50 * time.Millisecond)
		assert.False(t, client.alive.Load())
	})
}
