package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goran-ethernal/DonationIndexor/internal/logger"
	"github.com/goran-ethernal/DonationIndexor/pkg/config"
)

// Maintainer periodically checkpoints the SQLite WAL so it does not grow without
// bound under a continuously writing indexer. SQLite checkpoints are safe to run
// next to readers and writers, so no coordination with the store is needed.
type Maintainer struct {
	db     *sql.DB
	dbPath string
	cfg    config.MaintenanceConfig
	log    *logger.Logger
}

// NewMaintainer returns nil when cfg is nil or disabled.
func NewMaintainer(dbPath string, db *sql.DB, cfg *config.MaintenanceConfig, log *logger.Logger) *Maintainer {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	return &Maintainer{
		db:     db,
		dbPath: dbPath,
		cfg:    *cfg,
		log:    log,
	}
}

// Run performs the optional startup VACUUM and then checkpoints every CheckInterval
// until ctx is cancelled. It never returns an error for failed maintenance rounds.
func (m *Maintainer) Run(ctx context.Context) error {
	if m.cfg.VacuumOnStartup {
		m.log.Info("running startup vacuum")
		if err := Vacuum(m.db); err != nil {
			m.log.Warnf("startup vacuum failed: %v", err)
		}
	}

	ticker := time.NewTicker(m.cfg.CheckInterval.Duration)
	defer ticker.Stop()

	m.log.Infof("database maintenance started - interval: %v, checkpoint mode: %s",
		m.cfg.CheckInterval.Duration, m.cfg.WALCheckpointMode)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := m.RunMaintenance(ctx); err != nil {
				m.log.Warnf("periodic maintenance failed: %v", err)
			}
		}
	}
}

// RunMaintenance performs one WAL checkpoint and records the database size.
func (m *Maintainer) RunMaintenance(ctx context.Context) error {
	start := time.Now()
	MaintenanceRunsInc()

	err := m.walCheckpoint(ctx)

	MaintenanceDurationLog(time.Since(start))

	if size, sizeErr := DBTotalSize(m.dbPath); sizeErr == nil {
		DBSizeLog(size)
	} else {
		m.log.Warnf("failed to get DB size: %v", sizeErr)
	}

	if err != nil {
		MaintenanceErrorInc()
		return err
	}

	MaintenanceSuccessInc()
	return nil
}

func (m *Maintainer) walCheckpoint(ctx context.Context) error {
	var mode string
	if err := m.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		return fmt.Errorf("failed to check journal mode: %w", err)
	}

	if !strings.EqualFold(mode, "wal") {
		m.log.Debugf("journal mode is %s, skipping WAL checkpoint", mode)
		return nil
	}

	var busy, logFrames, checkpointed int
	query := fmt.Sprintf("PRAGMA wal_checkpoint(%s)", m.cfg.WALCheckpointMode)
	if err := m.db.QueryRowContext(ctx, query).Scan(&busy, &logFrames, &checkpointed); err != nil {
		return fmt.Errorf("failed to execute WAL checkpoint: %w", err)
	}

	WALCheckpointInc(strings.ToLower(m.cfg.WALCheckpointMode))

	if busy > 0 {
		m.log.Warnf("WAL checkpoint hit busy pages: log_frames=%d checkpointed=%d", logFrames, checkpointed)
	} else {
		m.log.Debugf("WAL checkpoint complete: log_frames=%d checkpointed=%d", logFrames, checkpointed)
	}

	return nil
}
