package usecases

import (
	"errors"

	"github.com/orris-inc/tenantbilling/internal/domain/payment"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	apperrors "github.com/orris-inc/tenantbilling/internal/shared/errors"
)

// ToAppError translates domain sentinels into AppErrors. The original error
// stays reachable through errors.Is.
func ToAppError(err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}

	switch {
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		return apperrors.NewNotFoundError("subscription not found").WithCause(err)
	case errors.Is(err, subscription.ErrSubscriptionAlreadyExists):
		return apperrors.NewConflictError("subscription already exists for tenant").WithCause(err)
	case errors.Is(err, subscription.ErrConcurrentModification):
		return apperrors.NewConflictError("subscription was modified concurrently, retry the request").WithCause(err)
	case errors.Is(err, subscription.ErrAlreadyCancelled):
		return apperrors.NewConflictError("subscription is already cancelled").WithCause(err)
	case errors.Is(err, subscription.ErrNoScheduledDowngrade):
		return apperrors.NewBadRequestError("no scheduled downgrade to cancel").WithCause(err)
	case errors.Is(err, subscription.ErrInvalidPlan), errors.Is(err, plan.ErrPlanNotFound):
		return apperrors.NewValidationError("invalid plan", err.Error()).WithCause(err)
	case errors.Is(err, plan.ErrInvalidPrice):
		return apperrors.NewValidationError("invalid plan price", err.Error()).WithCause(err)
	case errors.Is(err, subscription.ErrSubscriptionCancelled):
		return apperrors.NewValidationError("subscription is cancelled, reactivate it first").WithCause(err)
	case errors.Is(err, subscription.ErrNotCancelled):
		return apperrors.NewValidationError("subscription is not cancelled").WithCause(err)
	case errors.Is(err, subscription.ErrInvalidStatusTransition):
		return apperrors.NewValidationError("invalid status transition", err.Error()).WithCause(err)
	case errors.Is(err, payment.ErrInvalidSignature):
		return apperrors.NewUnauthorizedError("invalid webhook signature").WithCause(err)
	case errors.Is(err, payment.ErrMalformedEvent):
		return apperrors.NewValidationError("malformed webhook payload", err.Error()).WithCause(err)
	case errors.Is(err, payment.ErrProviderUnavailable):
		return apperrors.NewExternalServiceError("payment provider unavailable").WithCause(err)
	default:
		return apperrors.NewInternalError("billing operation failed").WithCause(err)
	}
}
