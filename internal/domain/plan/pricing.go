package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PriceOverride is an owner-set price replacing the catalog price of one plan.
type PriceOverride struct {
	PlanID    ID
	Price     decimal.Decimal
	UpdatedBy string
	UpdatedAt time.Time
}

// NewPriceOverride validates an override against the catalog.
func NewPriceOverride(c *Catalog, id ID, price decimal.Decimal, updatedBy string, now time.Time) (*PriceOverride, error) {
	if !c.Contains(id) {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, price)
	}
	return &PriceOverride{
		PlanID:    id,
		Price:     price,
		UpdatedBy: updatedBy,
		UpdatedAt: now,
	}, nil
}

// PriceOverrideRepository persists the owner-configurable pricing table.
type PriceOverrideRepository interface {
	List(ctx context.Context) ([]*PriceOverride, error)
	Upsert(ctx context.Context, override *PriceOverride) error
	Delete(ctx context.Context, id ID) error
}

// ResolvedPlan is a catalog plan with its effective price for presentation.
type ResolvedPlan struct {
	Plan
	Overridden bool
}

// Resolve merges overrides into copies of the catalog plans. The catalog
// itself is never modified; nil overrides and overrides for unknown plans
// are ignored.
func (c *Catalog) Resolve(overrides []*PriceOverride) []ResolvedPlan {
	byID := lo.SliceToMap(lo.Compact(overrides), func(o *PriceOverride) (ID, decimal.Decimal) {
		return o.PlanID, o.Price
	})

	return lo.Map(c.plans, func(p Plan, _ int) ResolvedPlan {
		if price, ok := byID[p.ID()]; ok {
			return ResolvedPlan{Plan: p.withPrice(price), Overridden: true}
		}
		return ResolvedPlan{Plan: p}
	})
}

// ResolvePrice returns the effective price of one plan.
func (c *Catalog) ResolvePrice(id ID, overrides []*PriceOverride) (decimal.Decimal, error) {
	p, err := c.Lookup(id)
	if err != nil {
		return decimal.Zero, err
	}
	for _, o := range overrides {
		if o != nil && o.PlanID == id {
			return o.Price, nil
		}
	}
	return p.MonthlyPrice(), nil
}
