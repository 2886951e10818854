package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/orris-inc/tenantbilling/internal/domain/audit"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/persistence/models"
	"github.com/orris-inc/tenantbilling/internal/shared/db"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

// AuditLogRepository appends audit entries to the billing_audit_log table.
type AuditLogRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

var _ audit.Sink = (*AuditLogRepository)(nil)

func NewAuditLogRepository(db *gorm.DB, logger logger.Interface) *AuditLogRepository {
	return &AuditLogRepository{db: db, logger: logger}
}

func (r *AuditLogRepository) Record(ctx context.Context, entry audit.Entry) error {
	var details datatypes.JSON
	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
		details = raw
	}

	model := &models.AuditLogModel{
		TenantID:   entry.TenantID,
		Action:     string(entry.Action),
		Actor:      entry.Actor,
		Details:    details,
		OccurredAt: entry.OccurredAt.UTC(),
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to write audit entry", "tenant_id", entry.TenantID, "action", entry.Action, "error", err)
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// ListByTenant returns a tenant's audit trail, newest first.
func (r *AuditLogRepository) ListByTenant(ctx context.Context, tenantID string, limit int) ([]audit.Entry, error) {
	var rows []models.AuditLogModel
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("occurred_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	entries := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		var details map[string]any
		if len(row.Details) > 0 {
			if err := json.Unmarshal(row.Details, &details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit details: %w", err)
			}
		}
		entries = append(entries, audit.Entry{
			TenantID:   row.TenantID,
			Action:     audit.Action(row.Action),
			Actor:      row.Actor,
			Details:    details,
			OccurredAt: row.OccurredAt.UTC(),
		})
	}
	return entries, nil
}
