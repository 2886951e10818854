package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/orris-inc/tenantbilling/internal/infrastructure/database"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/migration"
	"github.com/orris-inc/tenantbilling/internal/shared/config"
)

// newTestDB returns an in-memory sqlite database with the production
// schema applied through the goose scripts.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(&config.DatabaseConfig{Driver: database.DriverSQLite})
	require.NoError(t, err)
	require.NoError(t, migration.NewGooseStrategy("sqlite3", migration.DefaultScriptsPath).Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
