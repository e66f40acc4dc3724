package migrations

import (
	"database/sql"
	"embed"
	"path"

	"github.com/goran-ethernal/DonationIndexor/internal/db"
	"github.com/goran-ethernal/DonationIndexor/internal/logger"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// SQLite returns the migrations of the SQLite event store.
func SQLite() []db.Migration {
	return load("sqlite")
}

// Postgres returns the migrations of the Postgres event store.
func Postgres() []db.Migration {
	return load("postgres")
}

// RunMigrations applies the SQLite migrations to the database at dbPath.
func RunMigrations(dbPath string) error {
	return db.RunMigrations(dbPath, SQLite())
}

// RunSQLite applies the SQLite migrations on an open connection.
func RunSQLite(log *logger.Logger, conn *sql.DB) error {
	return db.RunMigrationsDB(log, conn, db.DialectSQLite, SQLite())
}

// RunPostgres applies the Postgres migrations on an open connection.
func RunPostgres(log *logger.Logger, conn *sql.DB) error {
	return db.RunMigrationsDB(log, conn, db.DialectPostgres, Postgres())
}

func load(dir string) []db.Migration {
	entries, err := files.ReadDir(dir)
	if err != nil {
		panic(err)
	}

	migrations := make([]db.Migration, 0, len(entries))
	for _, e := range entries {
		content, err := files.ReadFile(path.Join(dir, e.Name()))
		if err != nil {
			panic(err)
		}
		migrations = append(migrations, db.Migration{ID: e.Name(), SQL: string(content)})
	}

	return migrations
}
