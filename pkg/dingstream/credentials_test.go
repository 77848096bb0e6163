package dingstream

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsDefaults(t *testing.T) {
	creds := newCredentials("key", "secret")

	t.Run("wildcard event and system subscriptions", func(t *testing.T) {
		snap := creds.snapshot()
		assert.Equal(t, "key", snap.ClientID)
		assert.Equal(t, "secret", snap.ClientSecret)
		assert.Equal(t, []Subscription{
			{Type: SubscriptionKindEvent, Topic: "*"},
			{Type: SubscriptionKindSystem, Topic: "*"},
		}, snap.Subscriptions)
	})

	t.Run("default intervals", func(t *testing.T) {
		heartbeat, reconnect := creds.intervals()
		assert.Equal(t, defaultHeartbeatInterval, heartbeat)
		assert.Equal(t, defaultReconnectInterval, reconnect)
	})
}

func TestCredentialsAddSubscription(t *testing.T) {
	creds := newCredentials("key", "secret")

	t.Run("adds new topics", func(t *testing.T) {
		assert.True(t, creds.addSubscription(SubscriptionKindCallback, "/v1.0/im/bot/messages/get"))
		assert.Len(t, creds.snapshot().Subscriptions, 3)
	})

	t.Run("deduplicates", func(t *testing.T) {
		assert.False(t, creds.addSubscription(SubscriptionKindCallback, "/v1.0/im/bot/messages/get"))
		assert.Len(t, creds.snapshot().Subscriptions, 3)
	})

	t.Run("same topic under a different kind is distinct", func(t *testing.T) {
		assert.True(t, creds.addSubscription(SubscriptionKindEvent, "/v1.0/im/bot/messages/get"))
		assert.Len(t, creds.snapshot().Subscriptions, 4)
	})
}

func TestCredentialsSnapshotJSON(t *testing.T) {
	creds := newCredentials("appkey", "appsecret")
	creds.setUserAgent("dingstream/1.0")

	data, err := json.Marshal(creds.snapshot())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "appkey", decoded["clientId"])
	assert.Equal(t, "appsecret", decoded["clientSecret"])
	assert.Equal(t, "dingstream/1.0", decoded["ua"])
	assert.Len(t, decoded["subscriptions"], 2)
}

func TestCredentialsSnapshotIsACopy(t *testing.T) {
	creds := newCredentials("key", "secret")
	snap := creds.snapshot()
	snap.Subscriptions[0].Topic = "mutated"

	assert.Equal(t, "*", creds.snapshot().Subscriptions[0].Topic)
}

func TestCredentialsTokenCache(t *testing.T) {
	creds := newCredentials("key", "secret")
	now := time.Now()

	t.Run("empty cache misses", func(t *testing.T) {
		_, ok := creds.cachedToken(now)
		assert.False(t, ok)
	})

	t.Run("fresh token hits", func(t *testing.T) {
		creds.storeToken("T1", now.Add(2*time.Hour))
		token, ok := creds.cachedToken(now)
		require.True(t, ok)
		assert.Equal(t, "T1", token)
	})

	t.Run("expired token misses", func(t *testing.T) {
		_, ok := creds.cachedToken(now.Add(3 * time.Hour))
		assert.False(t, ok)
	})
}
