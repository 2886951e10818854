package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
)

const (
	defaultSnapshotCacheSize = 4096
	defaultSnapshotTTL       = 30 * time.Second
)

// SubscriptionSnapshotCache is a per-process, read-only cache of subscription
// state for hot entitlement checks. Entries are never mutated after Add;
// commands and the sweeper always read the store directly.
type SubscriptionSnapshotCache struct {
	lru *expirable.LRU[string, *subscription.Subscription]
}

func NewSubscriptionSnapshotCache(size int, ttl time.Duration) *SubscriptionSnapshotCache {
	if size <= 0 {
		size = defaultSnapshotCacheSize
	}
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &SubscriptionSnapshotCache{
		lru: expirable.NewLRU[string, *subscription.Subscription](size, nil, ttl),
	}
}

func (c *SubscriptionSnapshotCache) Get(tenantID string) (*subscription.Subscription, bool) {
	return c.lru.Get(tenantID)
}

func (c *SubscriptionSnapshotCache) Add(sub *subscription.Subscription) {
	c.lru.Add(sub.TenantID(), sub)
}

func (c *SubscriptionSnapshotCache) Remove(tenantID string) {
	c.lru.Remove(tenantID)
}

func (c *SubscriptionSnapshotCache) Len() int {
	return c.lru.Len()
}
