package handlers

import (
	"context"

	paymentUsecases "github.com/orris-inc/tenantbilling/internal/application/payment/usecases"
	plandto "github.com/orris-inc/tenantbilling/internal/application/plan/dto"
	planUsecases "github.com/orris-inc/tenantbilling/internal/application/plan/usecases"
	subdto "github.com/orris-inc/tenantbilling/internal/application/subscription/dto"
	"github.com/orris-inc/tenantbilling/internal/application/subscription/usecases"
)

// Use case interfaces for the handlers

type getSubscriptionStatusUseCase interface {
	Execute(ctx context.Context, query usecases.GetSubscriptionStatusQuery) (*subdto.StatusDTO, error)
}

type changePlanUseCase interface {
	Execute(ctx context.Context, cmd usecases.ChangePlanCommand) (*subdto.PlanChangeDTO, error)
}

type cancelScheduledDowngradeUseCase interface {
	Execute(ctx context.Context, cmd usecases.CancelScheduledDowngradeCommand) (*subdto.SubscriptionDTO, error)
}

type cancelSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd usecases.CancelSubscriptionCommand) (*subdto.CancelDTO, error)
}

type reactivateSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd usecases.ReactivateSubscriptionCommand) (*subdto.ReactivateDTO, error)
}

type initializeCheckoutUseCase interface {
	Execute(ctx context.Context, cmd paymentUsecases.InitializeCheckoutCommand) (*paymentUsecases.CheckoutDTO, error)
}

type checkEntitlementUseCase interface {
	CheckFeature(ctx context.Context, query usecases.CheckFeatureQuery) (*subdto.FeatureDecisionDTO, error)
	CheckStaff(ctx context.Context, query usecases.CheckStaffQuery) (*subdto.StaffDecisionDTO, error)
}

type provisionSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd usecases.ProvisionSubscriptionCommand) (*subdto.SubscriptionDTO, error)
}

type sweepDueUseCase interface {
	Execute(ctx context.Context) (*usecases.SweepResult, error)
}

type ingestWebhookUseCase interface {
	Execute(ctx context.Context, cmd paymentUsecases.IngestWebhookCommand) (*paymentUsecases.IngestWebhookResult, error)
}

type listPlansUseCase interface {
	Execute(ctx context.Context) ([]*plandto.PlanDTO, error)
}

type planPriceUseCase interface {
	Set(ctx context.Context, cmd planUsecases.SetPlanPriceCommand) error
	Clear(ctx context.Context, cmd planUsecases.ClearPlanPriceCommand) error
}
