package subscription

import (
	"context"
	"time"
)

// Store is the persistence boundary for subscriptions. Every call is keyed
// by tenant; there is no cross-tenant read or write on this contract.
type Store interface {
	// Get returns ErrSubscriptionNotFound when the tenant has no subscription.
	Get(ctx context.Context, tenantID string) (*Subscription, error)
	// Create returns ErrSubscriptionAlreadyExists on a second call for a tenant.
	Create(ctx context.Context, sub *Subscription) error
	// Update persists sub. When expectedUpdatedAt is non-nil and no longer
	// matches the stored row, nothing is written and ErrConcurrentModification
	// is returned.
	Update(ctx context.Context, sub *Subscription, expectedUpdatedAt *time.Time) error
}

// DueScanner enumerates tenants whose trial or scheduled downgrade is due.
// It returns identifiers only; state is always re-read through Store.
type DueScanner interface {
	ListDueTenantIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// ProviderIndex resolves the tenant owning a provider subscription code, for
// webhooks that do not carry tenant metadata.
type ProviderIndex interface {
	FindTenantIDByProviderCode(ctx context.Context, code string) (string, error)
}
