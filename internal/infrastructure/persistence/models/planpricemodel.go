package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/tenantbilling/internal/shared/constants"
)

// PlanPriceOverrideModel stores an owner-set price for one catalog plan.
type PlanPriceOverrideModel struct {
	PlanID    string          `gorm:"primaryKey;size:32"`
	Price     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	UpdatedBy string          `gorm:"size:64"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime:false"`
}

func (PlanPriceOverrideModel) TableName() string {
	return constants.TablePlanPrices
}
