package mappers

import (
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/persistence/models"
)

func PriceOverrideToModel(o *plan.PriceOverride) *models.PlanPriceOverrideModel {
	return &models.PlanPriceOverrideModel{
		PlanID:    string(o.PlanID),
		Price:     o.Price,
		UpdatedBy: o.UpdatedBy,
		UpdatedAt: o.UpdatedAt.UTC(),
	}
}

func PriceOverrideToEntity(m *models.PlanPriceOverrideModel) *plan.PriceOverride {
	return &plan.PriceOverride{
		PlanID:    plan.ID(m.PlanID),
		Price:     m.Price,
		UpdatedBy: m.UpdatedBy,
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}
