// Package ratelimit throttles unauthenticated billing endpoints such as the
// provider webhook and the internal sweep trigger.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/tenantbilling/internal/shared/constants"
)

// Limiter admits at most a fixed number of calls per key and window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter is a fixed-window counter shared by every instance.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := l.now().Unix() / int64(l.window.Seconds())
	redisKey := fmt.Sprintf("%s:%s:%d", constants.RedisKeyRateLimitPrefix, key, bucket)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	return incr.Val() <= int64(l.limit), nil
}

// MemoryLimiter is the single-instance fallback when redis is disabled.
// Counters live in an expiring LRU so idle keys do not accumulate.
type MemoryLimiter struct {
	mu       sync.Mutex
	counters *expirable.LRU[string, int]
	limit    int
	window   time.Duration
	now      func() time.Time
}

func NewMemoryLimiter(limit int, window time.Duration, maxKeys int) *MemoryLimiter {
	return &MemoryLimiter{
		counters: expirable.NewLRU[string, int](maxKeys, nil, window+time.Second),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	bucket := l.now().Unix() / int64(l.window.Seconds())
	k := fmt.Sprintf("%s:%d", key, bucket)

	l.mu.Lock()
	defer l.mu.Unlock()

	count, _ := l.counters.Get(k)
	count++
	l.counters.Add(k, count)
	return count <= l.limit, nil
}
