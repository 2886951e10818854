package usecases

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/tenantbilling/internal/domain/payment"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	apperrors "github.com/orris-inc/tenantbilling/internal/shared/errors"
	"github.com/orris-inc/tenantbilling/internal/shared/id"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
	"github.com/orris-inc/tenantbilling/internal/shared/utils"
)

// SubscriptionReader loads the current subscription of a tenant.
type SubscriptionReader interface {
	Get(ctx context.Context, tenantID string) (*subscription.Subscription, error)
}

// PriceResolver returns the effective monthly price of a plan.
type PriceResolver interface {
	ResolvePrice(ctx context.Context, id plan.ID) (decimal.Decimal, error)
}

type InitializeCheckoutCommand struct {
	TenantID   string
	Email      string
	TargetPlan plan.ID
}

type CheckoutDTO struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code,omitempty"`
	Reference        string `json:"reference"`
	Plan             string `json:"plan"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
}

// InitializeCheckoutUseCase starts a provider-hosted payment for a target
// plan. The subscription is only touched later, by the resulting webhook.
type InitializeCheckoutUseCase struct {
	store    SubscriptionReader
	prices   PriceResolver
	gateway  payment.Gateway
	currency string
	logger   logger.Interface
}

func NewInitializeCheckoutUseCase(
	store SubscriptionReader,
	prices PriceResolver,
	gateway payment.Gateway,
	currency string,
	logger logger.Interface,
) *InitializeCheckoutUseCase {
	return &InitializeCheckoutUseCase{
		store:    store,
		prices:   prices,
		gateway:  gateway,
		currency: currency,
		logger:   logger,
	}
}

func (uc *InitializeCheckoutUseCase) Execute(ctx context.Context, cmd InitializeCheckoutCommand) (*CheckoutDTO, error) {
	if strings.TrimSpace(cmd.Email) == "" {
		return nil, apperrors.NewValidationError("email is required")
	}

	if _, err := uc.store.Get(ctx, cmd.TenantID); err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			return nil, apperrors.NewNotFoundError("subscription not found").WithCause(err)
		}
		return nil, apperrors.NewInternalError("failed to load subscription").WithCause(err)
	}

	price, err := uc.prices.ResolvePrice(ctx, cmd.TargetPlan)
	if err != nil {
		return nil, err
	}
	if !price.IsPositive() {
		return nil, apperrors.NewValidationError("plan does not require payment", string(cmd.TargetPlan))
	}

	reference, err := id.NewPaymentReference()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to generate payment reference").WithCause(err)
	}

	amountMinor := utils.ToMinorUnits(price, uc.currency)
	session, err := uc.gateway.Initialize(ctx, payment.CheckoutRequest{
		Email:       cmd.Email,
		AmountMinor: amountMinor,
		Currency:    uc.currency,
		Reference:   reference,
		Metadata: map[string]string{
			"tenant_id": cmd.TenantID,
			"plan":      string(cmd.TargetPlan),
		},
	})
	if err != nil {
		uc.logger.Warnw("checkout initialization failed",
			"tenant_id", cmd.TenantID,
			"plan", cmd.TargetPlan,
			"reference", reference,
			"error", err,
		)
		return nil, apperrors.NewExternalServiceError("payment provider unavailable").WithCause(err)
	}

	uc.logger.Infow("checkout initialized",
		"tenant_id", cmd.TenantID,
		"email", utils.MaskEmail(cmd.Email),
		"plan", cmd.TargetPlan,
		"reference", session.Reference,
		"amount_minor", amountMinor,
	)

	return &CheckoutDTO{
		AuthorizationURL: session.AuthorizationURL,
		AccessCode:       session.AccessCode,
		Reference:        session.Reference,
		Plan:             string(cmd.TargetPlan),
		Amount:           price.StringFixed(2),
		Currency:         uc.currency,
	}, nil
}
