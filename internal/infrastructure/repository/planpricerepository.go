package repository

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/persistence/models"
	"github.com/orris-inc/tenantbilling/internal/shared/db"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

type PlanPriceRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

var _ plan.PriceOverrideRepository = (*PlanPriceRepositoryImpl)(nil)

func NewPlanPriceRepository(db *gorm.DB, logger logger.Interface) *PlanPriceRepositoryImpl {
	return &PlanPriceRepositoryImpl{db: db, logger: logger}
}

func (r *PlanPriceRepositoryImpl) List(ctx context.Context) ([]*plan.PriceOverride, error) {
	var rows []*models.PlanPriceOverrideModel
	if err := db.GetTxFromContext(ctx, r.db).Order("plan_id ASC").Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list plan price overrides", "error", err)
		return nil, fmt.Errorf("failed to list plan prices: %w", err)
	}
	return lo.Map(rows, func(m *models.PlanPriceOverrideModel, _ int) *plan.PriceOverride {
		return mappers.PriceOverrideToEntity(m)
	}), nil
}

func (r *PlanPriceRepositoryImpl) Upsert(ctx context.Context, override *plan.PriceOverride) error {
	model := mappers.PriceOverrideToModel(override)
	err := db.GetTxFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "plan_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "updated_by", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to upsert plan price override", "plan_id", model.PlanID, "error", err)
		return fmt.Errorf("failed to save plan price: %w", err)
	}

	r.logger.Infow("plan price override saved", "plan_id", model.PlanID, "price", model.Price.String())
	return nil
}

func (r *PlanPriceRepositoryImpl) Delete(ctx context.Context, id plan.ID) error {
	if err := db.GetTxFromContext(ctx, r.db).Delete(&models.PlanPriceOverrideModel{}, "plan_id = ?", string(id)).Error; err != nil {
		r.logger.Errorw("failed to delete plan price override", "plan_id", id, "error", err)
		return fmt.Errorf("failed to delete plan price: %w", err)
	}
	return nil
}
