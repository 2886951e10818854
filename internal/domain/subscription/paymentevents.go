package subscription

import (
	"time"

	"github.com/orris-inc/tenantbilling/internal/domain/payment"
	vo "github.com/orris-inc/tenantbilling/internal/domain/subscription/valueobjects"
)

// PaymentOutcome reports how RecordPaymentEvent treated an event.
type PaymentOutcome string

const (
	PaymentApplied     PaymentOutcome = "applied"
	PaymentStale       PaymentOutcome = "stale"
	PaymentUnsupported PaymentOutcome = "unsupported"
)

// IsStalePaymentEvent reports whether a provider event is older than what
// this subscription already reflects: it predates the last recorded update
// (any writer, including user commands), or it is not newer than the last
// applied provider event. An event at exactly that provider timestamp is a
// duplicate.
func (s *Subscription) IsStalePaymentEvent(occurredAt time.Time) bool {
	occurredAt = normalize(occurredAt)
	if s.lastPaymentEventAt != nil && !occurredAt.After(*s.lastPaymentEventAt) {
		return true
	}
	return occurredAt.Before(s.updatedAt)
}

// RecordPaymentEvent applies a verified provider event. maxChargeFailures is
// the number of consecutive failed charges that makes an active subscription
// past due.
func (s *Subscription) RecordPaymentEvent(evt payment.Event, maxChargeFailures int, now time.Time) PaymentOutcome {
	if !evt.Type.Affects() {
		return PaymentUnsupported
	}
	if s.IsStalePaymentEvent(evt.OccurredAt) {
		return PaymentStale
	}

	s.rememberProvider(evt)

	switch {
	case evt.Type == payment.EventChargeSuccess:
		s.applyChargeSuccess(evt)

	case evt.Type == payment.EventSubscriptionCreate:
		if evt.PeriodEnd != nil {
			end := normalize(*evt.PeriodEnd)
			s.currentPeriodEnd = &end
		}

	case evt.Type.IsFailure():
		s.consecutiveChargeFails++
		if maxChargeFailures < 1 {
			maxChargeFailures = 1
		}
		if s.consecutiveChargeFails >= maxChargeFailures && s.status == vo.StatusActive {
			s.status = vo.StatusPastDue
		}

	case evt.Type.IsDisable():
		// A disabled provider subscription also ends a trial that was
		// waiting on it.
		if s.status == vo.StatusActive || s.status == vo.StatusTrialing {
			s.endTrial()
			s.status = vo.StatusPastDue
		}
	}

	at := normalize(evt.OccurredAt)
	s.lastPaymentEventAt = &at
	s.touch(now)
	return PaymentApplied
}

// applyChargeSuccess settles the account. A paid charge also ends any trial.
// Cancelled subscriptions keep their status and only extend the paid period.
func (s *Subscription) applyChargeSuccess(evt payment.Event) {
	if evt.PeriodEnd != nil {
		end := normalize(*evt.PeriodEnd)
		s.currentPeriodEnd = &end
	}
	s.consecutiveChargeFails = 0

	if s.IsCancelled() {
		return
	}
	s.status = vo.StatusActive
	s.endTrial()
}

func (s *Subscription) rememberProvider(evt payment.Event) {
	if evt.SubscriptionCode != "" {
		s.providerSubscriptionCode = evt.SubscriptionCode
	}
	if evt.CustomerEmail != "" {
		s.customerEmail = evt.CustomerEmail
	}
}
