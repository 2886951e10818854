package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
)

func TestSubscriptionSnapshotCache(t *testing.T) {
	c := NewSubscriptionSnapshotCache(2, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	newSub := func(tenant string) *subscription.Subscription {
		s, err := subscription.NewSubscription("sub_"+tenant, tenant, plan.Starter, time.Hour, now)
		require.NoError(t, err)
		return s
	}

	c.Add(newSub("org_1"))
	c.Add(newSub("org_2"))

	got, ok := c.Get("org_1")
	require.True(t, ok)
	assert.Equal(t, "org_1", got.TenantID())

	// org_2 is now least recently used and is evicted by the next add
	c.Add(newSub("org_3"))
	_, ok = c.Get("org_2")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())

	c.Remove("org_1")
	_, ok = c.Get("org_1")
	assert.False(t, ok)
}

func TestSubscriptionSnapshotCache_Defaults(t *testing.T) {
	c := NewSubscriptionSnapshotCache(0, 0)
	assert.Equal(t, 0, c.Len())
}
