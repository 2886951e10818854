package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/orris-inc/tenantbilling/internal/infrastructure/database"
	"github.com/orris-inc/tenantbilling/internal/shared/config"
	"github.com/orris-inc/tenantbilling/internal/shared/constants"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Driver: database.DriverSQLite})
	require.NoError(t, err)
	return db
}

func TestGooseStrategy_UpAndDown(t *testing.T) {
	db := openSQLite(t)
	strategy := NewGooseStrategy("sqlite3", DefaultScriptsPath)

	require.NoError(t, NewManager(strategy).Migrate(db))

	version, err := strategy.GetVersion(db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	for _, table := range []string{constants.TableSubscriptions, constants.TablePlanPrices, constants.TableBillingAuditLog} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	require.NoError(t, strategy.MigrateDown(db, 1))
	assert.False(t, db.Migrator().HasTable(constants.TableBillingAuditLog))

	version, err = strategy.GetVersion(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestGooseStrategy_MigrateIsIdempotent(t *testing.T) {
	db := openSQLite(t)
	strategy := NewGooseStrategy("sqlite3", DefaultScriptsPath)

	require.NoError(t, strategy.Migrate(db))
	require.NoError(t, strategy.Migrate(db))
}

func TestGormAutoMigrateStrategy(t *testing.T) {
	db := openSQLite(t)

	require.NoError(t, NewGormAutoMigrateStrategy().Migrate(db))
	assert.True(t, db.Migrator().HasTable(constants.TableSubscriptions))
	assert.True(t, db.Migrator().HasIndex(constants.TableSubscriptions, "idx_status"))
}

func TestGooseDialect(t *testing.T) {
	d, err := GooseDialect("mysql")
	require.NoError(t, err)
	assert.Equal(t, "mysql", d)

	d, err = GooseDialect("sqlite")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", d)

	_, err = GooseDialect("oracle")
	assert.Error(t, err)
}
