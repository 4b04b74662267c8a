package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres:// driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // file:// source
)

// Migrator applies the versioned schema in a golang-migrate source such as
// "file://migrations".
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator opens the migration source and the target database.
func NewMigrator(dsn, sourceURL string) (*Migrator, error) {
	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations %s: %w", sourceURL, err)
	}
	return &Migrator{m: m}, nil
}

// Up applies every pending migration. Being up to date is not an error.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate up: %w", err)
	}
	return nil
}

// Down rolls back every applied migration.
func (m *Migrator) Down() error {
	if err := m.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate down: %w", err)
	}
	return nil
}

// Version reports the applied schema version. ok is false on an empty database.
func (m *Migrator) Version() (version uint, dirty, ok bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, true, nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

// RunMigrations brings the schema at dsn up to date.
func RunMigrations(dsn, sourceURL string) error {
	m, err := NewMigrator(dsn, sourceURL)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}
