package usecases

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/tenantbilling/internal/application/plan/dto"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	apperrors "github.com/orris-inc/tenantbilling/internal/shared/errors"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

// PriceCache holds the resolved override table between writes.
type PriceCache interface {
	Get(ctx context.Context) (overrides []*plan.PriceOverride, hit bool, err error)
	Set(ctx context.Context, overrides []*plan.PriceOverride) error
	Invalidate(ctx context.Context) error
}

// ListPlansUseCase returns the catalog with owner price overrides merged in.
type ListPlansUseCase struct {
	catalog  *plan.Catalog
	repo     plan.PriceOverrideRepository
	cache    PriceCache
	currency string
	logger   logger.Interface
}

func NewListPlansUseCase(
	catalog *plan.Catalog,
	repo plan.PriceOverrideRepository,
	cache PriceCache,
	currency string,
	logger logger.Interface,
) *ListPlansUseCase {
	return &ListPlansUseCase{
		catalog:  catalog,
		repo:     repo,
		cache:    cache,
		currency: currency,
		logger:   logger,
	}
}

func (uc *ListPlansUseCase) Execute(ctx context.Context) ([]*dto.PlanDTO, error) {
	overrides, err := uc.overrides(ctx)
	if err != nil {
		return nil, err
	}

	resolved := uc.catalog.Resolve(overrides)
	out := make([]*dto.PlanDTO, 0, len(resolved))
	for _, p := range resolved {
		out = append(out, dto.ToPlanDTO(p, uc.currency))
	}
	return out, nil
}

// ResolvePrice returns the effective monthly price of one plan.
func (uc *ListPlansUseCase) ResolvePrice(ctx context.Context, id plan.ID) (decimal.Decimal, error) {
	overrides, err := uc.overrides(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	price, err := uc.catalog.ResolvePrice(id, overrides)
	if err != nil {
		return decimal.Zero, apperrors.NewValidationError("invalid plan", err.Error()).WithCause(err)
	}
	return price, nil
}

// overrides reads through the cache. A cache outage degrades to the database.
func (uc *ListPlansUseCase) overrides(ctx context.Context) ([]*plan.PriceOverride, error) {
	if uc.cache != nil {
		cached, hit, err := uc.cache.Get(ctx)
		if err != nil {
			uc.logger.Warnw("plan price cache read failed", "error", err)
		} else if hit {
			return cached, nil
		}
	}

	overrides, err := uc.repo.List(ctx)
	if err != nil {
		uc.logger.Errorw("failed to list plan price overrides", "error", err)
		return nil, apperrors.NewInternalError("failed to load plan prices").WithCause(err)
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, overrides); err != nil {
			uc.logger.Warnw("plan price cache write failed", "error", err)
		}
	}
	return overrides, nil
}
