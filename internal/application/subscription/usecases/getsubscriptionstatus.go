package usecases

import (
	"context"

	"github.com/orris-inc/tenantbilling/internal/application/subscription/dto"
	"github.com/orris-inc/tenantbilling/internal/domain/entitlement"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	"github.com/orris-inc/tenantbilling/internal/shared/biztime"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

type GetSubscriptionStatusQuery struct {
	TenantID string
}

type GetSubscriptionStatusUseCase struct {
	store     subscription.Store
	evaluator *entitlement.Evaluator
	clock     biztime.Clock
	logger    logger.Interface
}

func NewGetSubscriptionStatusUseCase(
	store subscription.Store,
	evaluator *entitlement.Evaluator,
	clock biztime.Clock,
	logger logger.Interface,
) *GetSubscriptionStatusUseCase {
	return &GetSubscriptionStatusUseCase{
		store:     store,
		evaluator: evaluator,
		clock:     clock,
		logger:    logger,
	}
}

func (uc *GetSubscriptionStatusUseCase) Execute(ctx context.Context, query GetSubscriptionStatusQuery) (*dto.StatusDTO, error) {
	sub, err := uc.store.Get(ctx, query.TenantID)
	if err != nil {
		return nil, ToAppError(err)
	}

	now := uc.clock.Now()
	entitled := entitlement.IsEntitled(sub, now)

	trialDays := 0
	if sub.IsTrialActive() {
		if end := sub.TrialEndDate(); end != nil {
			trialDays = biztime.DaysUntil(now, *end)
		}
	}

	needsUpgrade := !entitled || (sub.Plan() == plan.Starter && !sub.IsTrialActive())

	return &dto.StatusDTO{
		SubscriptionDTO:    *dto.ToSubscriptionDTO(sub),
		EffectivePlan:      string(uc.evaluator.EffectivePlan(sub, now)),
		IsActive:           entitled,
		NeedsUpgrade:       needsUpgrade,
		TrialDaysRemaining: trialDays,
		MaxStaff:           uc.evaluator.StaffLimitFor(sub, now).String(),
	}, nil
}
