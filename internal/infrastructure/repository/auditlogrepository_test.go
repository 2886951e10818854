package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/tenantbilling/internal/domain/audit"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

func TestAuditLogRepository_RecordAndList(t *testing.T) {
	repo := NewAuditLogRepository(newTestDB(t), logger.NewNop())
	ctx := context.Background()
	at := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Record(ctx, audit.Entry{
		TenantID:   "org_1",
		Action:     audit.ActionCancelled,
		Actor:      "user_1",
		Details:    map[string]any{"reason": "too expensive"},
		OccurredAt: at,
	}))
	require.NoError(t, repo.Record(ctx, audit.Entry{
		TenantID:   "org_1",
		Action:     audit.ActionProviderCancelFailed,
		OccurredAt: at.Add(time.Second),
	}))
	require.NoError(t, repo.Record(ctx, audit.Entry{
		TenantID:   "org_2",
		Action:     audit.ActionProvisioned,
		OccurredAt: at,
	}))

	entries, err := repo.ListByTenant(ctx, "org_1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionProviderCancelFailed, entries[0].Action)
	assert.Nil(t, entries[0].Details)
	assert.Equal(t, audit.ActionCancelled, entries[1].Action)
	assert.Equal(t, "too expensive", entries[1].Details["reason"])
}
