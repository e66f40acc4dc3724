package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/goran-ethernal/DonationIndexor/internal/logger"
	migrate "github.com/rubenv/sql-migrate"
)

const (
	UpDownSeparator     = "-- +migrate Up"
	downMarker          = "-- +migrate Down"
	NoLimitMigrations   = 0 // indicate that there is no limit on the number of migrations to run
	migrationDirections = 2

	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
)

// Migration is a single embedded SQL file containing a Down and an Up section.
type Migration struct {
	ID  string
	SQL string
}

// RunMigrations will execute pending migrations on the SQLite database at dbPath.
func RunMigrations(dbPath string, migrations []Migration) error {
	db, err := NewSQLiteDB(dbPath)
	if err != nil {
		return fmt.Errorf("error creating DB %w", err)
	}
	defer db.Close()

	return RunMigrationsDB(logger.GetDefaultLogger(), db, DialectSQLite, migrations)
}

// RunMigrationsDB applies every pending migration in the up direction.
func RunMigrationsDB(log *logger.Logger, db *sql.DB, dialect string, migrations []Migration) error {
	return RunMigrationsDBExtended(log, db, dialect, migrations, migrate.Up, NoLimitMigrations)
}

// RunMigrationsDBExtended is an extended version of RunMigrationsDB that allows
// dir: can be migrate.Up or migrate.Down
// maxMigrations: Will apply at most `max` migrations. Pass 0 for no limit
func RunMigrationsDBExtended(log *logger.Logger,
	db *sql.DB,
	dialect string,
	migrations []Migration,
	dir migrate.MigrationDirection,
	maxMigrations int) error {
	source, err := memorySource(migrations)
	if err != nil {
		return err
	}

	ids := make([]string, len(source.Migrations))
	for i, m := range source.Migrations {
		ids[i] = m.Id
	}
	list := strings.Join(ids, ", ")

	log.Debugf("running %s migrations: (max %d/%d) migrations: %s", dialect, maxMigrations, len(ids), list)

	applied, err := migrate.ExecMax(db, dialect, source, dir, maxMigrations)
	if err != nil {
		return fmt.Errorf("error executing migration (max %d/%d) migrations: %s . Err: %w",
			maxMigrations, len(ids), list, err)
	}

	log.Infof("successfully ran %d migrations from migrations: %s", applied, list)
	return nil
}

func memorySource(migrations []Migration) (*migrate.MemoryMigrationSource, error) {
	source := &migrate.MemoryMigrationSource{Migrations: make([]*migrate.Migration, 0, len(migrations))}

	for _, m := range migrations {
		// sections[0] = Down section (with its marker), sections[1] = Up section
		sections := strings.Split(m.SQL, UpDownSeparator)
		if len(sections) < migrationDirections {
			return nil, fmt.Errorf("migration %s missing '%s' separator", m.ID, UpDownSeparator)
		}

		downSQL := sections[0]
		if idx := strings.Index(downSQL, downMarker); idx != -1 {
			downSQL = downSQL[idx+len(downMarker):]
		}

		source.Migrations = append(source.Migrations, &migrate.Migration{
			Id:   m.ID,
			Up:   []string{strings.TrimSpace(sections[1])},
			Down: []string{strings.TrimSpace(downSQL)},
		})
	}

	return source, nil
}
