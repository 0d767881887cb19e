package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

func newMigrate(dsn, dir string) (*migrate.Migrate, error) {
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return nil, fmt.Errorf("create migration instance: %w", err)
	}
	return m, nil
}

// ErrDirty means a migration failed part way. The schema has to be repaired
// by hand and the version set with Force before migrating again.
var ErrDirty = errors.New("database schema is dirty")

type versioner interface {
	Version() (uint, bool, error)
}

func checkClean(m versioner) error {
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("%w at version %d", ErrDirty, version)
	}
	return nil
}

// Migrate applies every pending migration found in dir. It refuses to run
// on a dirty database.
func Migrate(dsn, dir string, log *zap.Logger) error {
	m, err := newMigrate(dsn, dir)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := checkClean(m); err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	version, _, _ := m.Version()
	log.Info("migrations applied", zap.Uint("version", version))
	return nil
}

// Force records version as applied and clears the dirty flag without
// running any SQL. -1 means no migration applied.
func Force(dsn, dir string, version int) error {
	m, err := newMigrate(dsn, dir)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Rollback reverts the last applied migration.
func Rollback(dsn, dir string) error {
	m, err := newMigrate(dsn, dir)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}
	return nil
}

// Version reports the applied version and whether it is dirty.
func Version(dsn, dir string) (uint, bool, error) {
	m, err := newMigrate(dsn, dir)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()
	return m.Version()
}
