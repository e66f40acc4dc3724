package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goran-ethernal/DonationIndexor/internal/db"
	"github.com/goran-ethernal/DonationIndexor/internal/logger"
	"github.com/goran-ethernal/DonationIndexor/internal/migrations"
	"github.com/goran-ethernal/DonationIndexor/internal/store/postgres"
	"github.com/goran-ethernal/DonationIndexor/internal/store/sqlite"
	"github.com/goran-ethernal/DonationIndexor/pkg/config"
	"github.com/goran-ethernal/DonationIndexor/pkg/store"
)

// openStore migrates and opens the configured event store. sqlDB is set for SQLite
// so the maintainer can operate on the same handle.
func openStore(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (store.Store, *sql.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.DSN, log)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return s, nil, nil

	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}

		sqlDB, err := db.NewSQLiteDBFromConfig(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.RunSQLite(log, sqlDB); err != nil {
			sqlDB.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return sqlite.New(sqlDB, log), sqlDB, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
