// Package migration applies versioned SQL migrations embedded in the binary
// using golang-migrate and its SQLite driver.
//
// Migration files follow golang-migrate naming:
//
//	0001_create_portfolio_images.up.sql
//	0001_create_portfolio_images.down.sql
package migration

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/kbukum/portfolio/database"
	"github.com/kbukum/portfolio/logger"
)

// Migrator runs the migrations found under dir in fsys against db.
type Migrator struct {
	db   *database.DB
	fsys fs.FS
	dir  string
	log  *logger.Logger
}

// New returns a Migrator.
func New(db *database.DB, fsys fs.FS, dir string, log *logger.Logger) *Migrator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Migrator{db: db, fsys: fsys, dir: dir, log: log.WithComponent("migration")}
}

// Up applies all pending migrations. Having nothing to apply is not an error.
func (m *Migrator) Up() error {
	mg, err := m.instance()
	if err != nil {
		return err
	}
	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	m.logVersion(mg, "migrations applied")
	return nil
}

// Down rolls back all migrations.
func (m *Migrator) Down() error {
	mg, err := m.instance()
	if err != nil {
		return err
	}
	if err := mg.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	m.log.Info("migrations rolled back")
	return nil
}

// Steps applies n migrations forward, or -n backward when n is negative.
func (m *Migrator) Steps(n int) error {
	mg, err := m.instance()
	if err != nil {
		return err
	}
	if err := mg.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate steps: %w", err)
	}
	m.logVersion(mg, "migration steps applied")
	return nil
}

// Version returns the current schema version. A database with no applied
// migrations reports version 0.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	mg, err := m.instance()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (m *Migrator) logVersion(mg *migrate.Migrate, msg string) {
	if v, dirty, err := mg.Version(); err == nil {
		m.log.Info(msg, logger.Fields("version", v, "dirty", dirty))
	}
}

// instance builds a golang-migrate instance on the shared connection.
// The instance must not be closed: that would close the shared *sql.DB.
func (m *Migrator) instance() (*migrate.Migrate, error) {
	sqlDB, err := m.db.GormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("create sqlite3 migrate driver: %w", err)
	}
	source, err := iofs.New(m.fsys, m.dir)
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}
	mg, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return mg, nil
}
