package usecases

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/tenantbilling/internal/domain/audit"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/shared/biztime"
	apperrors "github.com/orris-inc/tenantbilling/internal/shared/errors"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

type SetPlanPriceCommand struct {
	PlanID plan.ID
	// Price is in major currency units.
	Price decimal.Decimal
	Actor string
}

type ClearPlanPriceCommand struct {
	PlanID plan.ID
	Actor  string
}

// Transactor runs fn in one database transaction.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// PlanPriceUseCase maintains the owner-configurable pricing table. The
// catalog itself never changes.
type PlanPriceUseCase struct {
	catalog *plan.Catalog
	repo    plan.PriceOverrideRepository
	cache   PriceCache
	audit   audit.Sink
	tx      Transactor
	clock   biztime.Clock
	logger  logger.Interface
}

// NewPlanPriceUseCase builds the use case. tx may be nil, in which case the
// override and its audit entry are written separately.
func NewPlanPriceUseCase(
	catalog *plan.Catalog,
	repo plan.PriceOverrideRepository,
	cache PriceCache,
	auditSink audit.Sink,
	tx Transactor,
	clock biztime.Clock,
	logger logger.Interface,
) *PlanPriceUseCase {
	return &PlanPriceUseCase{
		catalog: catalog,
		repo:    repo,
		cache:   cache,
		audit:   auditSink,
		tx:      tx,
		clock:   clock,
		logger:  logger,
	}
}

func (uc *PlanPriceUseCase) Set(ctx context.Context, cmd SetPlanPriceCommand) error {
	override, err := plan.NewPriceOverride(uc.catalog, cmd.PlanID, cmd.Price.Round(2), cmd.Actor, uc.clock.Now())
	if err != nil {
		return toValidation(err)
	}

	err = uc.inTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.Upsert(ctx, override); err != nil {
			return err
		}
		uc.record(ctx, cmd.PlanID, cmd.Actor, map[string]any{"price": override.Price.StringFixed(2)})
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to save plan price", "plan", cmd.PlanID, "error", err)
		return apperrors.NewInternalError("failed to save plan price").WithCause(err)
	}

	uc.invalidate(ctx)
	uc.logger.Infow("plan price override set", "plan", cmd.PlanID, "price", override.Price.String(), "actor", cmd.Actor)
	return nil
}

func (uc *PlanPriceUseCase) Clear(ctx context.Context, cmd ClearPlanPriceCommand) error {
	if !uc.catalog.Contains(cmd.PlanID) {
		return toValidation(plan.ErrPlanNotFound)
	}

	err := uc.inTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.Delete(ctx, cmd.PlanID); err != nil {
			return err
		}
		uc.record(ctx, cmd.PlanID, cmd.Actor, map[string]any{"cleared": true})
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to clear plan price", "plan", cmd.PlanID, "error", err)
		return apperrors.NewInternalError("failed to clear plan price").WithCause(err)
	}

	uc.invalidate(ctx)
	uc.logger.Infow("plan price override cleared", "plan", cmd.PlanID, "actor", cmd.Actor)
	return nil
}

func (uc *PlanPriceUseCase) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if uc.tx == nil {
		return fn(ctx)
	}
	return uc.tx.RunInTransaction(ctx, fn)
}

func (uc *PlanPriceUseCase) invalidate(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx); err != nil {
		uc.logger.Warnw("failed to invalidate plan price cache", "error", err)
	}
}

func (uc *PlanPriceUseCase) record(ctx context.Context, id plan.ID, actor string, details map[string]any) {
	if uc.audit == nil {
		return
	}
	details["plan"] = string(id)
	_ = uc.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionPriceChanged,
		Actor:      actor,
		Details:    details,
		OccurredAt: uc.clock.Now(),
	})
}

func toValidation(err error) error {
	switch {
	case errors.Is(err, plan.ErrPlanNotFound):
		return apperrors.NewValidationError("invalid plan", err.Error()).WithCause(err)
	case errors.Is(err, plan.ErrInvalidPrice):
		return apperrors.NewValidationError("invalid plan price", err.Error()).WithCause(err)
	default:
		return apperrors.NewValidationError(err.Error()).WithCause(err)
	}
}
