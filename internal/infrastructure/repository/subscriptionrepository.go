package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	vo "github.com/orris-inc/tenantbilling/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/persistence/models"
	"github.com/orris-inc/tenantbilling/internal/shared/db"
	apperrors "github.com/orris-inc/tenantbilling/internal/shared/errors"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

// SubscriptionRepositoryImpl is the gorm-backed subscription store. It also
// serves the sweeper's due scan and the webhook provider-code lookup.
type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriptionMapper
	logger logger.Interface
}

var (
	_ subscription.Store         = (*SubscriptionRepositoryImpl)(nil)
	_ subscription.DueScanner    = (*SubscriptionRepositoryImpl)(nil)
	_ subscription.ProviderIndex = (*SubscriptionRepositoryImpl)(nil)
)

func NewSubscriptionRepository(db *gorm.DB, logger logger.Interface) *SubscriptionRepositoryImpl {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mappers.NewSubscriptionMapper(),
		logger: logger,
	}
}

func (r *SubscriptionRepositoryImpl) Get(ctx context.Context, tenantID string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	err := db.GetTxFromContext(ctx, r.db).Where("tenant_id = ?", tenantID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		r.logger.Errorw("failed to get subscription", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map subscription model to entity", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("failed to map subscription: %w", err)
	}

	return entity, nil
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, sub *subscription.Subscription) error {
	model := r.mapper.ToModel(sub)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return subscription.ErrSubscriptionAlreadyExists
		}
		r.logger.Errorw("failed to create subscription in database", "tenant_id", model.TenantID, "error", err)
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	r.logger.Infow("subscription created successfully", "id", model.ID, "tenant_id", model.TenantID, "plan", model.Plan)
	return nil
}

// Update writes every mutable column. With expectedUpdatedAt set, the write
// is a compare-and-set on updated_at and fails with
// ErrConcurrentModification when another writer got there first.
func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, sub *subscription.Subscription, expectedUpdatedAt *time.Time) error {
	model := r.mapper.ToModel(sub)
	tx := db.GetTxFromContext(ctx, r.db)

	query := tx.Model(&models.SubscriptionModel{}).Where("tenant_id = ?", model.TenantID)
	if expectedUpdatedAt != nil {
		query = query.Where("updated_at = ?", expectedUpdatedAt.UTC())
	}

	result := query.Updates(map[string]interface{}{
		"plan":                       model.Plan,
		"status":                     model.Status,
		"is_trial_active":            model.IsTrialActive,
		"trial_end_date":             model.TrialEndDate,
		"current_period_end":         model.CurrentPeriodEnd,
		"scheduled_downgrade_plan":   model.ScheduledDowngradePlan,
		"scheduled_downgrade_at":     model.ScheduledDowngradeAt,
		"provider_subscription_code": model.ProviderSubscriptionCode,
		"customer_email":             model.CustomerEmail,
		"last_payment_event_at":      model.LastPaymentEventAt,
		"consecutive_charge_fails":   model.ConsecutiveChargeFails,
		"cancelled_at":               model.CancelledAt,
		"cancel_reason":              model.CancelReason,
		"updated_at":                 model.UpdatedAt,
	})
	if result.Error != nil {
		r.logger.Errorw("failed to update subscription", "tenant_id", model.TenantID, "error", result.Error)
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		exists, err := r.exists(ctx, model.TenantID)
		if err != nil {
			return err
		}
		if !exists {
			return subscription.ErrSubscriptionNotFound
		}
		if expectedUpdatedAt != nil {
			r.logger.Warnw("subscription update lost optimistic check",
				"tenant_id", model.TenantID,
				"expected_updated_at", expectedUpdatedAt.UTC(),
			)
			return subscription.ErrConcurrentModification
		}
	}

	r.logger.Debugw("subscription updated", "tenant_id", model.TenantID, "status", model.Status, "plan", model.Plan)
	return nil
}

func (r *SubscriptionRepositoryImpl) exists(ctx context.Context, tenantID string) (bool, error) {
	var count int64
	if err := db.GetTxFromContext(ctx, r.db).Model(&models.SubscriptionModel{}).
		Where("tenant_id = ?", tenantID).Count(&count).Error; err != nil {
		r.logger.Errorw("failed to check subscription existence", "tenant_id", tenantID, "error", err)
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}
	return count > 0, nil
}

// ListDueTenantIDs returns tenants with an active trial that has ended or a
// scheduled downgrade whose effective time has passed, oldest first.
func (r *SubscriptionRepositoryImpl) ListDueTenantIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	now = now.UTC()
	var tenantIDs []string

	query := db.GetTxFromContext(ctx, r.db).Model(&models.SubscriptionModel{}).
		Where("(is_trial_active = ? AND status = ? AND trial_end_date IS NOT NULL AND trial_end_date <= ?)"+
			" OR (scheduled_downgrade_at IS NOT NULL AND scheduled_downgrade_at <= ?)",
			true, string(vo.StatusTrialing), now, now).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Pluck("tenant_id", &tenantIDs).Error; err != nil {
		r.logger.Errorw("failed to list due subscriptions", "error", err)
		return nil, fmt.Errorf("failed to list due subscriptions: %w", err)
	}

	return tenantIDs, nil
}

func (r *SubscriptionRepositoryImpl) FindTenantIDByProviderCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", subscription.ErrSubscriptionNotFound
	}

	var model models.SubscriptionModel
	err := db.GetTxFromContext(ctx, r.db).Select("tenant_id").
		Where("provider_subscription_code = ?", code).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", subscription.ErrSubscriptionNotFound
		}
		r.logger.Errorw("failed to find subscription by provider code", "error", err)
		return "", fmt.Errorf("failed to find subscription by provider code: %w", err)
	}

	return model.TenantID, nil
}
