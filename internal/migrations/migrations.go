package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// Run applies every pending migration for the users schema. The migrate
// instance is not closed because its database driver would close db.
func Run(db *sqlx.DB) error {
	var (
		dir    string
		driver database.Driver
		err    error
	)
	switch db.DriverName() {
	case "sqlite":
		dir = "sqlite"
		driver, err = sqlitemigrate.WithInstance(db.DB, &sqlitemigrate.Config{})
	case "pgx":
		dir = "postgres"
		driver, err = pgxmigrate.WithInstance(db.DB, &pgxmigrate.Config{})
	default:
		return fmt.Errorf("migrations: unsupported driver %q", db.DriverName())
	}
	if err != nil {
		return fmt.Errorf("migrations: init %s driver: %w", dir, err)
	}

	src, err := iofs.New(files, dir)
	if err != nil {
		return fmt.Errorf("migrations: open source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dir, driver)
	if err != nil {
		return fmt.Errorf("migrations: init: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
