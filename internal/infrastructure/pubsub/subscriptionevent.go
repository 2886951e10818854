package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/tenantbilling/internal/shared/biztime"
	"github.com/orris-inc/tenantbilling/internal/shared/constants"
	"github.com/orris-inc/tenantbilling/internal/shared/goroutine"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

// SubscriptionChangeEvent announces that a tenant's subscription row changed.
// Consumers re-read the store; the payload only carries enough to log and
// route the event.
type SubscriptionChangeEvent struct {
	TenantID   string `json:"tenant_id"`
	Plan       string `json:"plan"`
	Status     string `json:"status"`
	Change     string `json:"change"`
	Timestamp  int64  `json:"timestamp"`
	InstanceID string `json:"instance_id,omitempty"`
}

// SubscriptionEventHandler is a callback function for handling subscription events
type SubscriptionEventHandler func(ctx context.Context, event SubscriptionChangeEvent)

// SubscriptionEventPublisher defines the interface for publishing subscription events
type SubscriptionEventPublisher interface {
	PublishChange(ctx context.Context, event SubscriptionChangeEvent) error
}

// SubscriptionEventSubscriber defines the interface for subscribing to subscription events
type SubscriptionEventSubscriber interface {
	Subscribe(ctx context.Context, handler SubscriptionEventHandler) error
}

// RedisSubscriptionEventBus implements both SubscriptionEventPublisher and
// SubscriptionEventSubscriber on a single redis channel.
type RedisSubscriptionEventBus struct {
	client     *redis.Client
	logger     logger.Interface
	instanceID string
	channel    string
}

// NewRedisSubscriptionEventBus creates a new Redis-based subscription event bus
func NewRedisSubscriptionEventBus(client *redis.Client, logger logger.Interface) *RedisSubscriptionEventBus {
	return &RedisSubscriptionEventBus{
		client:     client,
		logger:     logger,
		instanceID: uuid.NewString(),
		channel:    constants.RedisChannelSubscription,
	}
}

// InstanceID identifies this process on the bus.
func (b *RedisSubscriptionEventBus) InstanceID() string {
	return b.instanceID
}

func (b *RedisSubscriptionEventBus) PublishChange(ctx context.Context, event SubscriptionChangeEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = biztime.NowUTC().Unix()
	}
	event.InstanceID = b.instanceID

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Errorw("failed to publish subscription change event",
			"tenant_id", event.TenantID,
			"change", event.Change,
			"error", err,
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debugw("subscription change event published",
		"tenant_id", event.TenantID,
		"change", event.Change,
	)
	return nil
}

// Subscribe blocks until ctx is cancelled, reconnecting with exponential
// backoff whenever the redis subscription drops.
func (b *RedisSubscriptionEventBus) Subscribe(ctx context.Context, handler SubscriptionEventHandler) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		err := b.subscribeOnce(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		b.logger.Warnw("subscription event bus disconnected, reconnecting",
			"channel", b.channel,
			"error", err,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}

func (b *RedisSubscriptionEventBus) subscribeOnce(ctx context.Context, handler SubscriptionEventHandler) error {
	ps := b.client.Subscribe(ctx, b.channel)
	defer ps.Close()

	// Wait for subscription confirmation
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Infow("subscribed to subscription change events", "channel", b.channel)

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("channel %s closed", b.channel)
			}

			var event SubscriptionChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warnw("failed to unmarshal subscription event",
					"payload", msg.Payload,
					"error", err,
				)
				continue
			}

			goroutine.Go(b.logger, "subscription-event-handler", func() {
				handler(context.Background(), event)
			})
		}
	}
}
