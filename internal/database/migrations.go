package database

import (
	"database/sql"
	"fmt"
	"math"
	"path/filepath"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// RunMigrations brings the schema up to the newest file in migrationsDir,
// logging every migration it is about to apply.
func RunMigrations(db *sql.DB, migrationsDir string, logger *zap.Logger) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	current, err := goose.EnsureDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	pending, err := goose.CollectMigrations(migrationsDir, current, math.MaxInt64)
	if err != nil {
		return fmt.Errorf("failed to collect migrations: %w", err)
	}
	if len(pending) == 0 {
		logger.Info("Schema is up to date", zap.Int64("version", current))
		return nil
	}

	for _, m := range pending {
		logger.Info("Pending migration", zap.Int64("version", m.Version), zap.String("file", filepath.Base(m.Source)))
	}

	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Schema migrated",
		zap.Int64("from", current),
		zap.Int64("to", pending[len(pending)-1].Version),
	)
	return nil
}
