package dto

import (
	"github.com/samber/lo"

	"github.com/orris-inc/tenantbilling/internal/domain/plan"
)

// PlanDTO is a catalog plan with its effective price.
type PlanDTO struct {
	ID             string   `json:"id"`
	MonthlyPrice   string   `json:"monthly_price"`
	Currency       string   `json:"currency"`
	MaxStaff       string   `json:"max_staff"`
	CheckInMethods []string `json:"check_in_methods"`
	Features       []string `json:"features"`
	PriceOverride  bool     `json:"price_override"`
}

func ToPlanDTO(p plan.ResolvedPlan, currency string) *PlanDTO {
	return &PlanDTO{
		ID:             string(p.ID()),
		MonthlyPrice:   p.MonthlyPrice().StringFixed(2),
		Currency:       currency,
		MaxStaff:       p.MaxStaff().String(),
		CheckInMethods: lo.Map(p.CheckInMethods(), func(m plan.CheckInMethod, _ int) string { return string(m) }),
		Features:       lo.Map(p.Features(), func(f plan.Feature, _ int) string { return string(f) }),
		PriceOverride:  p.Overridden,
	}
}
