package mappers

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	vo "github.com/orris-inc/tenantbilling/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/persistence/models"
)

type SubscriptionMapper interface {
	ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error)
	ToModel(entity *subscription.Subscription) *models.SubscriptionModel
}

type SubscriptionMapperImpl struct{}

func NewSubscriptionMapper() SubscriptionMapper {
	return &SubscriptionMapperImpl{}
}

func (m *SubscriptionMapperImpl) ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}

	status := vo.SubscriptionStatus(model.Status)
	if !vo.ValidStatuses[status] {
		return nil, fmt.Errorf("invalid subscription status: %s", model.Status)
	}

	var downgrade *subscription.ScheduledDowngrade
	if model.ScheduledDowngradePlan != nil && model.ScheduledDowngradeAt != nil {
		downgrade = &subscription.ScheduledDowngrade{
			TargetPlan:  plan.ID(*model.ScheduledDowngradePlan),
			EffectiveAt: model.ScheduledDowngradeAt.UTC(),
		}
	}

	entity, err := subscription.ReconstructSubscription(subscription.ReconstructParams{
		ID:                       model.ID,
		TenantID:                 model.TenantID,
		Plan:                     plan.ID(model.Plan),
		Status:                   status,
		IsTrialActive:            model.IsTrialActive,
		TrialEndDate:             model.TrialEndDate,
		CurrentPeriodEnd:         model.CurrentPeriodEnd,
		ScheduledDowngrade:       downgrade,
		ProviderSubscriptionCode: lo.FromPtr(model.ProviderSubscriptionCode),
		CustomerEmail:            model.CustomerEmail,
		LastPaymentEventAt:       model.LastPaymentEventAt,
		ConsecutiveChargeFails:   model.ConsecutiveChargeFails,
		CancelledAt:              model.CancelledAt,
		CancelReason:             lo.FromPtr(model.CancelReason),
		CreatedAt:                model.CreatedAt.UTC(),
		UpdatedAt:                model.UpdatedAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscription: %w", err)
	}

	return entity, nil
}

func (m *SubscriptionMapperImpl) ToModel(entity *subscription.Subscription) *models.SubscriptionModel {
	if entity == nil {
		return nil
	}

	model := &models.SubscriptionModel{
		ID:                       entity.ID(),
		TenantID:                 entity.TenantID(),
		Plan:                     string(entity.Plan()),
		Status:                   string(entity.Status()),
		IsTrialActive:            entity.IsTrialActive(),
		TrialEndDate:             entity.TrialEndDate(),
		CurrentPeriodEnd:         entity.CurrentPeriodEnd(),
		ProviderSubscriptionCode: lo.EmptyableToPtr(entity.ProviderSubscriptionCode()),
		CustomerEmail:            entity.CustomerEmail(),
		LastPaymentEventAt:       entity.LastPaymentEventAt(),
		ConsecutiveChargeFails:   entity.ConsecutiveChargeFailures(),
		CancelledAt:              entity.CancelledAt(),
		CancelReason:             lo.EmptyableToPtr(entity.CancelReason()),
		CreatedAt:                entity.CreatedAt(),
		UpdatedAt:                entity.UpdatedAt(),
	}

	if d := entity.ScheduledDowngrade(); d != nil {
		target := string(d.TargetPlan)
		at := d.EffectiveAt
		model.ScheduledDowngradePlan = &target
		model.ScheduledDowngradeAt = &at
	}

	return model
}
