package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/tenantbilling/internal/application/subscription/dto"
	"github.com/orris-inc/tenantbilling/internal/domain/audit"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	apperrors "github.com/orris-inc/tenantbilling/internal/shared/errors"
	"github.com/orris-inc/tenantbilling/internal/shared/id"
)

type ProvisionSubscriptionCommand struct {
	TenantID string
	// Plan defaults to the lowest tier when empty.
	Plan  plan.ID
	Actor string
}

// ProvisionSubscriptionUseCase starts a new tenant on a trial.
type ProvisionSubscriptionUseCase struct {
	*mutator
	catalog     *plan.Catalog
	trialLength time.Duration
	audit       audit.Sink
}

func NewProvisionSubscriptionUseCase(
	deps MutatorDeps,
	catalog *plan.Catalog,
	trialLength time.Duration,
	auditSink audit.Sink,
) *ProvisionSubscriptionUseCase {
	return &ProvisionSubscriptionUseCase{
		mutator:     newMutator(deps),
		catalog:     catalog,
		trialLength: trialLength,
		audit:       auditSink,
	}
}

func (uc *ProvisionSubscriptionUseCase) Execute(ctx context.Context, cmd ProvisionSubscriptionCommand) (*dto.SubscriptionDTO, error) {
	if cmd.TenantID == "" {
		return nil, apperrors.NewValidationError("tenant id is required")
	}

	planID := cmd.Plan
	if planID == "" {
		planID = uc.catalog.Lowest().ID()
	}
	if !uc.catalog.Contains(planID) {
		return nil, ToAppError(fmt.Errorf("%w: %s", subscription.ErrInvalidPlan, planID))
	}

	subID, err := id.NewSubscriptionID()
	if err != nil {
		uc.logger.Errorw("failed to generate subscription id", "error", err)
		return nil, apperrors.NewInternalError("failed to generate subscription id").WithCause(err)
	}

	now := uc.clock.Now()
	sub, err := subscription.NewSubscription(subID, cmd.TenantID, planID, uc.trialLength, now)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error()).WithCause(err)
	}

	if err := uc.store.Create(ctx, sub); err != nil {
		uc.logger.Warnw("failed to provision subscription", "tenant_id", cmd.TenantID, "error", err)
		return nil, ToAppError(err)
	}

	uc.logger.Infow("subscription provisioned",
		"tenant_id", cmd.TenantID,
		"transition", string(audit.ActionProvisioned),
		"plan", planID,
		"trial_end_date", sub.TrialEndDate(),
	)
	uc.announce(ctx, sub, string(audit.ActionProvisioned))
	recordAudit(ctx, uc.audit, audit.Entry{
		TenantID:   cmd.TenantID,
		Action:     audit.ActionProvisioned,
		Actor:      cmd.Actor,
		Details:    map[string]any{"plan": string(planID)},
		OccurredAt: now,
	})

	return dto.ToSubscriptionDTO(sub), nil
}

// recordAudit is fire-and-forget; sink failures never fail the operation.
func recordAudit(ctx context.Context, sink audit.Sink, entry audit.Entry) {
	if sink == nil {
		return
	}
	_ = sink.Record(ctx, entry)
}
