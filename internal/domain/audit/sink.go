// Package audit defines the write-only record of billing decisions that need
// a human trail, such as provider calls that failed and must be reconciled.
package audit

import (
	"context"
	"time"
)

type Action string

const (
	ActionProvisioned          Action = "subscription.provisioned"
	ActionPlanChanged          Action = "subscription.plan_changed"
	ActionDowngradeScheduled   Action = "subscription.downgrade_scheduled"
	ActionDowngradeCleared     Action = "subscription.downgrade_cleared"
	ActionCancelled            Action = "subscription.cancelled"
	ActionReactivated          Action = "subscription.reactivated"
	ActionProviderCancelFailed Action = "provider.cancel_failed"
	ActionPriceChanged         Action = "plan.price_changed"
	ActionWebhookRejected      Action = "webhook.rejected"
)

type Entry struct {
	TenantID   string
	Action     Action
	Actor      string
	Details    map[string]any
	OccurredAt time.Time
}

// Sink receives audit entries. Implementations must not fail the caller's
// operation; Record errors are reported to the log only.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}
