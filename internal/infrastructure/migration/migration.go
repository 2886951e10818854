package migration

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/orris-inc/tenantbilling/internal/infrastructure/database"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

// Manager runs a migration strategy and logs the outcome.
type Manager struct {
	strategy Strategy
	logger   *slog.Logger
}

// DefaultScriptsPath is where Create writes new scripts, relative to the
// repository root.
const DefaultScriptsPath = "./internal/infrastructure/migration/scripts"

// GooseDialect maps a configured database driver to its goose dialect.
func GooseDialect(driver string) (string, error) {
	switch driver {
	case "", database.DriverMySQL:
		return "mysql", nil
	case database.DriverSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("no migrations for database driver %q", driver)
	}
}

func NewManager(strategy Strategy) *Manager {
	return &Manager{
		strategy: strategy,
		logger:   logger.WithComponent("migration.manager"),
	}
}

func (m *Manager) Migrate(db *gorm.DB) error {
	m.logger.Info("starting database migration", "strategy", m.strategy.GetName())

	if err := m.strategy.Migrate(db); err != nil {
		m.logger.Error("migration failed", "strategy", m.strategy.GetName(), "error", err)
		return fmt.Errorf("migration failed with strategy %s: %w", m.strategy.GetName(), err)
	}

	m.logger.Info("database migration completed", "strategy", m.strategy.GetName())
	return nil
}
