package storage

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// openMigrator builds a migrator over the file-based migration source.
// The second return value closes it; source and database close errors
// are ignored.
func openMigrator(databaseURL, migrationsPath string) (*migrate.Migrate, func(), error) {
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open migrator: %w", err)
	}
	return m, func() { _, _ = m.Close() }, nil
}

// RunMigrations applies every pending migration. An already up-to-date
// schema is not an error.
func RunMigrations(databaseURL, migrationsPath string) error {
	m, closeMigrator, err := openMigrator(databaseURL, migrationsPath)
	if err != nil {
		return err
	}
	defer closeMigrator()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// RollbackMigrations undoes the most recent migration
func RollbackMigrations(databaseURL, migrationsPath string) error {
	m, closeMigrator, err := openMigrator(databaseURL, migrationsPath)
	if err != nil {
		return err
	}
	defer closeMigrator()

	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback migration: %w", err)
	}
	return nil
}

// MigrationVersion reports the schema version. A database with no
// applied migrations reports version 0.
func MigrationVersion(databaseURL, migrationsPath string) (version uint, dirty bool, err error) {
	m, closeMigrator, openErr := openMigrator(databaseURL, migrationsPath)
	if openErr != nil {
		return 0, false, openErr
	}
	defer closeMigrator()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}
