package persistence

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
)

// RunMigrations applies pending migrations from cfg.MigrationsPath. The DSN
// must be in URL form (postgres://...).
func RunMigrations(cfg config.PostgresConfig, logger *zap.Logger) error {
	if cfg.DSN == "" {
		logger.Warn("no postgres DSN configured; skipping migrations")
		return nil
	}

	m, err := migrate.New(sourceURL(cfg.MigrationsPath), cfg.DSN)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is dirty at migration %d; fix manually before starting", version)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("migrations up to date", zap.Uint("version", version))
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, _, _ = m.Version()
	logger.Info("migrations applied", zap.Uint("version", version))
	return nil
}

func sourceURL(path string) string {
	if path == "" {
		path = "migrations"
	}
	return "file://" + filepath.ToSlash(path)
}
