package usecases

import (
	"context"
	"time"

	"github.com/orris-inc/tenantbilling/internal/application/subscription/dto"
	"github.com/orris-inc/tenantbilling/internal/domain/audit"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
)

type ReactivateSubscriptionCommand struct {
	TenantID string
	Actor    string
}

// ReactivateSubscriptionUseCase is the only way out of cancelled.
type ReactivateSubscriptionUseCase struct {
	*mutator
	audit audit.Sink
}

func NewReactivateSubscriptionUseCase(deps MutatorDeps, auditSink audit.Sink) *ReactivateSubscriptionUseCase {
	return &ReactivateSubscriptionUseCase{
		mutator: newMutator(deps),
		audit:   auditSink,
	}
}

func (uc *ReactivateSubscriptionUseCase) Execute(ctx context.Context, cmd ReactivateSubscriptionCommand) (*dto.ReactivateDTO, error) {
	var keptPlan bool

	sub, _, err := uc.applyWithRetry(ctx, cmd.TenantID, "reactivate", func(s *subscription.Subscription, now time.Time) (bool, error) {
		var err error
		keptPlan, err = s.Reactivate(now)
		return true, err
	})
	if err != nil {
		return nil, ToAppError(err)
	}

	recordAudit(ctx, uc.audit, audit.Entry{
		TenantID:   cmd.TenantID,
		Action:     audit.ActionReactivated,
		Actor:      cmd.Actor,
		Details:    map[string]any{"plan": string(sub.Plan()), "kept_plan": keptPlan},
		OccurredAt: sub.UpdatedAt(),
	})

	return &dto.ReactivateDTO{
		Subscription: dto.ToSubscriptionDTO(sub),
		KeptPlan:     keptPlan,
	}, nil
}
