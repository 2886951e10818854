package usecases

import (
	"context"
	"time"

	"github.com/orris-inc/tenantbilling/internal/domain/payment"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	apperrors "github.com/orris-inc/tenantbilling/internal/shared/errors"
)

type RecordPaymentEventCommand struct {
	TenantID string
	Event    payment.Event
}

type RecordPaymentEventResult struct {
	Applied bool
	Outcome subscription.PaymentOutcome
	// Upgraded is set when a successful charge paid for a higher plan.
	Upgraded bool
}

// RecordPaymentEventUseCase applies a verified provider event to a tenant.
// Events older than what the subscription already reflects are discarded.
type RecordPaymentEventUseCase struct {
	*mutator
	catalog           *plan.Catalog
	maxChargeFailures int
}

func NewRecordPaymentEventUseCase(deps MutatorDeps, catalog *plan.Catalog, maxChargeFailures int) *RecordPaymentEventUseCase {
	return &RecordPaymentEventUseCase{
		mutator:           newMutator(deps),
		catalog:           catalog,
		maxChargeFailures: maxChargeFailures,
	}
}

func (uc *RecordPaymentEventUseCase) Execute(ctx context.Context, cmd RecordPaymentEventCommand) (*RecordPaymentEventResult, error) {
	if cmd.TenantID == "" {
		return nil, apperrors.NewValidationError("payment event is not linked to a tenant")
	}

	result := &RecordPaymentEventResult{}
	_, _, err := uc.applyWithRetry(ctx, cmd.TenantID, "payment."+string(cmd.Event.Type), func(s *subscription.Subscription, now time.Time) (bool, error) {
		*result = RecordPaymentEventResult{}
		result.Outcome = s.RecordPaymentEvent(cmd.Event, uc.maxChargeFailures, now)
		if result.Outcome != subscription.PaymentApplied {
			return false, nil
		}
		result.Applied = true
		result.Upgraded = uc.applyPaidPlan(s, cmd.Event, now)
		return true, nil
	})
	if err != nil {
		uc.logger.Warnw("failed to record payment event",
			"tenant_id", cmd.TenantID,
			"event_id", cmd.Event.ID,
			"event_type", cmd.Event.Type,
			"error", err,
		)
		return nil, ToAppError(err)
	}

	if !result.Applied {
		uc.logger.Infow("payment event discarded",
			"tenant_id", cmd.TenantID,
			"event_id", cmd.Event.ID,
			"event_type", cmd.Event.Type,
			"outcome", result.Outcome,
			"occurred_at", cmd.Event.OccurredAt,
		)
	}
	return result, nil
}

// applyPaidPlan moves the tenant up to the plan a successful charge paid for.
// A charge never downgrades; that only happens through the scheduled path.
func (uc *RecordPaymentEventUseCase) applyPaidPlan(s *subscription.Subscription, evt payment.Event, now time.Time) bool {
	if evt.Type != payment.EventChargeSuccess || evt.Plan == "" || s.IsCancelled() {
		return false
	}
	if cmp, err := uc.catalog.Compare(evt.Plan, s.Plan()); err != nil || cmp != plan.Higher {
		return false
	}
	outcome, err := s.RequestPlanChange(uc.catalog, evt.Plan, now)
	return err == nil && outcome == subscription.ChangeUpgraded
}
