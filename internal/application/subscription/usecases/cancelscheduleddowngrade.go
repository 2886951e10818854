package usecases

import (
	"context"
	"time"

	"github.com/orris-inc/tenantbilling/internal/application/subscription/dto"
	"github.com/orris-inc/tenantbilling/internal/domain/audit"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
)

type CancelScheduledDowngradeCommand struct {
	TenantID string
	Actor    string
}

type CancelScheduledDowngradeUseCase struct {
	*mutator
	audit audit.Sink
}

func NewCancelScheduledDowngradeUseCase(deps MutatorDeps, auditSink audit.Sink) *CancelScheduledDowngradeUseCase {
	return &CancelScheduledDowngradeUseCase{
		mutator: newMutator(deps),
		audit:   auditSink,
	}
}

func (uc *CancelScheduledDowngradeUseCase) Execute(ctx context.Context, cmd CancelScheduledDowngradeCommand) (*dto.SubscriptionDTO, error) {
	var withdrawn string

	sub, _, err := uc.applyWithRetry(ctx, cmd.TenantID, "cancel_scheduled_downgrade", func(s *subscription.Subscription, now time.Time) (bool, error) {
		if d := s.ScheduledDowngrade(); d != nil {
			withdrawn = string(d.TargetPlan)
		}
		return true, s.CancelScheduledDowngrade(now)
	})
	if err != nil {
		return nil, ToAppError(err)
	}

	recordAudit(ctx, uc.audit, audit.Entry{
		TenantID:   cmd.TenantID,
		Action:     audit.ActionDowngradeCleared,
		Actor:      cmd.Actor,
		Details:    map[string]any{"target_plan": withdrawn},
		OccurredAt: sub.UpdatedAt(),
	})
	return dto.ToSubscriptionDTO(sub), nil
}
