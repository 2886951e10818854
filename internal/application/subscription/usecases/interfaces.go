package usecases

import (
	"context"

	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/pubsub"
)

// ChangeNotifier announces applied transitions to other instances.
type ChangeNotifier interface {
	PublishChange(ctx context.Context, event pubsub.SubscriptionChangeEvent) error
}

// SnapshotInvalidator drops a tenant's cached subscription after a write.
type SnapshotInvalidator interface {
	Remove(tenantID string)
}

// SnapshotCache serves recent reads for entitlement checks.
type SnapshotCache interface {
	SnapshotInvalidator
	Get(tenantID string) (*subscription.Subscription, bool)
	Add(sub *subscription.Subscription)
}
