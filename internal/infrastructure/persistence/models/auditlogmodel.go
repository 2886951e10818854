package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/orris-inc/tenantbilling/internal/shared/constants"
)

// AuditLogModel is one append-only billing audit record.
type AuditLogModel struct {
	ID         uint   `gorm:"primarykey"`
	TenantID   string `gorm:"not null;size:64;index:idx_audit_tenant"`
	Action     string `gorm:"not null;size:64"`
	Actor      string `gorm:"size:64"`
	Details    datatypes.JSON
	OccurredAt time.Time `gorm:"not null;index:idx_audit_occurred"`
}

func (AuditLogModel) TableName() string {
	return constants.TableBillingAuditLog
}
