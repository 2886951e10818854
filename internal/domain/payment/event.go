package payment

import (
	"errors"
	"time"

	"github.com/orris-inc/tenantbilling/internal/domain/plan"
)

// EventType is the provider event name.
type EventType string

const (
	EventChargeSuccess        EventType = "charge.success"
	EventChargeFailed         EventType = "charge.failed"
	EventInvoicePaymentFailed EventType = "invoice.payment_failed"
	EventSubscriptionCreate   EventType = "subscription.create"
	// Paystack emits "subscription.disable"; "subscription.disabled" is accepted as an alias.
	EventSubscriptionDisable  EventType = "subscription.disable"
	EventSubscriptionDisabled EventType = "subscription.disabled"
	EventSubscriptionNotRenew EventType = "subscription.not_renew"
)

var ErrUnsupportedEvent = errors.New("unsupported payment event")

// Affects reports whether the event can move a subscription through its lifecycle.
func (t EventType) Affects() bool {
	switch t {
	case EventChargeSuccess, EventChargeFailed, EventInvoicePaymentFailed,
		EventSubscriptionCreate, EventSubscriptionDisable, EventSubscriptionDisabled,
		EventSubscriptionNotRenew:
		return true
	}
	return false
}

// IsFailure reports whether the event is a failed charge attempt.
func (t EventType) IsFailure() bool {
	return t == EventChargeFailed || t == EventInvoicePaymentFailed
}

// IsDisable reports whether the provider turned the recurring subscription off.
func (t EventType) IsDisable() bool {
	return t == EventSubscriptionDisable || t == EventSubscriptionDisabled ||
		t == EventSubscriptionNotRenew
}

// Event is a verified, decoded provider notification.
type Event struct {
	ID               string
	Type             EventType
	OccurredAt       time.Time
	TenantID         string
	SubscriptionCode string
	CustomerEmail    string
	Reference        string
	AmountMinor      int64
	Currency         string
	PeriodEnd        *time.Time
	Plan             plan.ID
}
