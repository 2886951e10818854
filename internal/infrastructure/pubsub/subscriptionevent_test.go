package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

func newTestBus(t *testing.T) *RedisSubscriptionEventBus {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSubscriptionEventBus(client, logger.NewNop())
}

func TestRedisSubscriptionEventBus_PublishAndSubscribe(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan SubscriptionChangeEvent, 1)
	done := make(chan error, 1)
	go func() {
		done <- bus.Subscribe(ctx, func(_ context.Context, event SubscriptionChangeEvent) {
			received <- event
		})
	}()

	// Publish until the subscriber is attached; redis drops messages with no listener.
	require.Eventually(t, func() bool {
		_ = bus.PublishChange(ctx, SubscriptionChangeEvent{
			TenantID: "org_1",
			Plan:     "professional",
			Status:   "active",
			Change:   "upgraded",
		})
		select {
		case event := <-received:
			assert.Equal(t, "org_1", event.TenantID)
			assert.Equal(t, "upgraded", event.Change)
			assert.Equal(t, bus.InstanceID(), event.InstanceID)
			assert.NotZero(t, event.Timestamp)
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}

func TestRedisSubscriptionEventBus_PublishFailsWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	bus := NewRedisSubscriptionEventBus(client, logger.NewNop())
	mr.Close()

	err := bus.PublishChange(context.Background(), SubscriptionChangeEvent{TenantID: "org_1"})
	assert.Error(t, err)
}
