package models

import (
	"time"

	"github.com/orris-inc/tenantbilling/internal/shared/constants"
)

// SubscriptionModel represents the database persistence model for subscriptions.
// UpdatedAt is written by the domain, never by gorm, because it doubles as
// the optimistic concurrency token.
type SubscriptionModel struct {
	ID                       string     `gorm:"primaryKey;size:32"`
	TenantID                 string     `gorm:"uniqueIndex;not null;size:64"`
	Plan                     string     `gorm:"not null;size:32"`
	Status                   string     `gorm:"not null;size:20;index:idx_status"`
	IsTrialActive            bool       `gorm:"not null;default:false"`
	TrialEndDate             *time.Time `gorm:"index:idx_trial_end"`
	CurrentPeriodEnd         *time.Time
	ScheduledDowngradePlan   *string    `gorm:"size:32"`
	ScheduledDowngradeAt     *time.Time `gorm:"index:idx_downgrade_at"`
	ProviderSubscriptionCode *string    `gorm:"size:100;index:idx_provider_code"`
	CustomerEmail            string     `gorm:"size:255"`
	LastPaymentEventAt       *time.Time
	ConsecutiveChargeFails   int `gorm:"not null;default:0"`
	CancelledAt              *time.Time
	CancelReason             *string   `gorm:"size:500"`
	CreatedAt                time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt                time.Time `gorm:"autoUpdateTime:false;precision:6"`
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}
