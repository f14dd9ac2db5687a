package database

import (
	"database/sql"
	"embed"
	stderrors "errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

//go:embed migrations
var dbMigrations embed.FS

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(dbMigrations, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, "db.migrate.source")
	}

	dst, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "db.migrate.driver")
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite3", dst)
	return migrator, errors.Wrap(err, "db.migrate.init")
}

func migrateDB(db *sql.DB) error {
	migrator, err := newMigrator(db)
	if err != nil {
		return err
	}

	err = migrator.Up()
	if stderrors.Is(err, migrate.ErrNoChange) {
		// db already up to date
		return nil
	}
	return errors.Wrap(err, "db.migrate.up")
}

// SchemaVersion reports the applied migration version.
func SchemaVersion(db *sql.DB) (version uint, dirty bool, err error) {
	migrator, err := newMigrator(db)
	if err != nil {
		return
	}
	version, dirty, err = migrator.Version()
	err = errors.Wrap(err, "db.migrate.version")
	return
}
