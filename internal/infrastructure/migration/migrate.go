package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Bundled holds the export job schema shipped with the binary, one
// directory per driver
//
//go:embed migrations
var Bundled embed.FS

// Migrator applies the export job schema with golang-migrate
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// BundledSource returns the embedded migrations for a driver
func BundledSource(driver string) (fs.FS, error) {
	dir := "migrations/" + driver
	if _, err := fs.Stat(Bundled, dir); err != nil {
		return nil, fmt.Errorf("no bundled migrations for driver %q: %w", driver, err)
	}
	return fs.Sub(Bundled, dir)
}

// New creates a Migrator that applies the bundled migrations for driver
// (postgres or sqlite) to db
func New(db *sql.DB, driver string, logger *zap.Logger) (*Migrator, error) {
	source, err := BundledSource(driver)
	if err != nil {
		return nil, err
	}
	return NewFromFS(db, driver, source, logger)
}

// NewFromFS creates a Migrator reading migrations from source, which holds
// NNNNNN_name.up.sql / .down.sql pairs at its root
func NewFromFS(db *sql.DB, driver string, source fs.FS, logger *zap.Logger) (*Migrator, error) {
	target, err := databaseDriver(db, driver)
	if err != nil {
		return nil, err
	}
	src, err := iofs.New(source, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{migrate: m, logger: logger.With(zap.String("driver", driver))}, nil
}

func databaseDriver(db *sql.DB, driver string) (database.Driver, error) {
	var (
		d   database.Driver
		err error
	)
	switch driver {
	case "postgres":
		d, err = postgres.WithInstance(db, &postgres.Config{})
	case "sqlite":
		d, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	default:
		return nil, fmt.Errorf("unsupported migration driver: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migration driver: %w", driver, err)
	}
	return d, nil
}

// apply runs one golang-migrate operation. ErrNoChange is success; the
// resulting version is logged either way.
func (m *Migrator) apply(op string, fn func() error) error {
	m.logger.Info("Running migrations", zap.String("op", op))

	if err := fn(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration %s failed: %w", op, err)
		}
		m.logger.Info("Schema already current", zap.String("op", op))
		return nil
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Migrations applied",
		zap.String("op", op),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Up runs all pending migrations
func (m *Migrator) Up() error {
	return m.apply("up", m.migrate.Up)
}

// Down rolls back all migrations
func (m *Migrator) Down() error {
	return m.apply("down", m.migrate.Down)
}

// Steps applies n migrations; negative n rolls back
func (m *Migrator) Steps(n int) error {
	return m.apply(fmt.Sprintf("steps(%d)", n), func() error { return m.migrate.Steps(n) })
}

// GoTo migrates up or down to version
func (m *Migrator) GoTo(version uint) error {
	return m.apply(fmt.Sprintf("goto(%d)", version), func() error { return m.migrate.Migrate(version) })
}

// Version returns the applied version; 0 when nothing has been applied
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied without running anything. It is the
// way out of a dirty state after a failed migration was fixed by hand.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and database handles
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}
