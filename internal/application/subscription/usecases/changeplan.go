package usecases

import (
	"context"
	"time"

	"github.com/orris-inc/tenantbilling/internal/application/subscription/dto"
	"github.com/orris-inc/tenantbilling/internal/domain/audit"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
)

type ChangePlanCommand struct {
	TenantID   string
	TargetPlan plan.ID
	Actor      string
}

// ChangePlanUseCase upgrades immediately and defers downgrades to the end
// of the current period.
type ChangePlanUseCase struct {
	*mutator
	catalog *plan.Catalog
	audit   audit.Sink
}

func NewChangePlanUseCase(deps MutatorDeps, catalog *plan.Catalog, auditSink audit.Sink) *ChangePlanUseCase {
	return &ChangePlanUseCase{
		mutator: newMutator(deps),
		catalog: catalog,
		audit:   auditSink,
	}
}

func (uc *ChangePlanUseCase) Execute(ctx context.Context, cmd ChangePlanCommand) (*dto.PlanChangeDTO, error) {
	var outcome subscription.ChangeOutcome

	sub, _, err := uc.applyWithRetry(ctx, cmd.TenantID, "change_plan", func(s *subscription.Subscription, now time.Time) (bool, error) {
		var err error
		outcome, err = s.RequestPlanChange(uc.catalog, cmd.TargetPlan, now)
		return outcome != subscription.ChangeNone, err
	})
	if err != nil {
		uc.logger.Warnw("plan change rejected",
			"tenant_id", cmd.TenantID,
			"target_plan", cmd.TargetPlan,
			"error", err,
		)
		return nil, ToAppError(err)
	}

	if action, ok := changeAuditAction(outcome); ok {
		details := map[string]any{"target_plan": string(cmd.TargetPlan), "plan": string(sub.Plan())}
		if d := sub.ScheduledDowngrade(); d != nil {
			details["effective_at"] = d.EffectiveAt
		}
		recordAudit(ctx, uc.audit, audit.Entry{
			TenantID:   cmd.TenantID,
			Action:     action,
			Actor:      cmd.Actor,
			Details:    details,
			OccurredAt: sub.UpdatedAt(),
		})
	}

	return &dto.PlanChangeDTO{
		Outcome:      string(outcome),
		Subscription: dto.ToSubscriptionDTO(sub),
	}, nil
}

func changeAuditAction(outcome subscription.ChangeOutcome) (audit.Action, bool) {
	switch outcome {
	case subscription.ChangeUpgraded:
		return audit.ActionPlanChanged, true
	case subscription.ChangeDowngradeScheduled:
		return audit.ActionDowngradeScheduled, true
	case subscription.ChangeDowngradeCleared:
		return audit.ActionDowngradeCleared, true
	}
	return "", false
}
