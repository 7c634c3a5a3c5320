// Package migrate applies the embedded PostgreSQL schema migrations.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

const defaultMigrationsTable = "schema_migrations"

//go:embed sql/*.sql
var migrationFiles embed.FS

// ErrDirty reports a database left mid-migration; it needs Force.
var ErrDirty = errors.New("migrate: database is in a dirty state")

// Manager runs migrations against one PostgreSQL database.
type Manager struct {
	db              *sql.DB
	migrationsTable string
	m               *migrate.Migrate
}

// Option configures Manager.
type Option func(*Manager)

// WithMigrationsTable overrides the default bookkeeping table.
func WithMigrationsTable(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.migrationsTable = name
		}
	}
}

// Open connects to dsn and prepares the embedded migration source.
func Open(ctx context.Context, dsn string, opts ...Option) (*Manager, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	mgr, err := NewManager(db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return mgr, nil
}

// NewManager wraps an existing connection. Close releases it.
func NewManager(db *sql.DB, opts ...Option) (*Manager, error) {
	mgr := &Manager{db: db, migrationsTable: defaultMigrationsTable}
	for _, opt := range opts {
		opt(mgr)
	}
	src, err := iofs.New(migrationFiles, "sql")
	if err != nil {
		return nil, fmt.Errorf("loading embedded migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: mgr.migrationsTable})
	if err != nil {
		return nil, fmt.Errorf("creating migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("creating migrate instance: %w", err)
	}
	mgr.m = m
	return mgr, nil
}

// Up applies pending migrations, or n steps when n > 0. It returns the
// version before and after.
func (mgr *Manager) Up(n int) (from, to uint, err error) {
	from, dirty, err := mgr.Version()
	if err != nil {
		return 0, 0, err
	}
	if dirty {
		return from, from, fmt.Errorf("%w (version %d)", ErrDirty, from)
	}
	if n > 0 {
		err = mgr.m.Steps(n)
	} else {
		err = mgr.m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return from, from, fmt.Errorf("applying migrations: %w", err)
	}
	to, _, err = mgr.Version()
	return from, to, err
}

// Down rolls back every migration, or n steps when n > 0.
func (mgr *Manager) Down(n int) error {
	var err error
	if n > 0 {
		err = mgr.m.Steps(-n)
	} else {
		err = mgr.m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rolling back migrations: %w", err)
	}
	return nil
}

// Version reports the applied version. A fresh database reports 0.
func (mgr *Manager) Version() (uint, bool, error) {
	v, dirty, err := mgr.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("checking migration version: %w", err)
	}
	return v, dirty, nil
}

// Force sets the version without running migrations and clears the dirty flag.
func (mgr *Manager) Force(version int) error {
	if err := mgr.m.Force(version); err != nil {
		return fmt.Errorf("forcing version %d: %w", version, err)
	}
	return nil
}

// Close releases the migration source and the database connection.
func (mgr *Manager) Close() error {
	srcErr, dbErr := mgr.m.Close()
	return errors.Join(srcErr, dbErr)
}
