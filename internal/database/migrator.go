package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// CatalogTables lists the tables the catalog migrations create, in report
// order.
var CatalogTables = []string{"researchers", "projects"}

const migrationsTable = "schema_migrations"

// SchemaVersion is the migration state recorded in schema_migrations.
// Applied is false on a database no catalog migration has touched.
type SchemaVersion struct {
	Version uint
	Dirty   bool
	Applied bool
}

// TableStatus is the row count of one catalog table. Exists is false when
// the schema does not have the table yet.
type TableStatus struct {
	Name   string
	Exists bool
	Rows   int64
}

// SchemaStatus combines the migration state with the catalog table counts.
type SchemaStatus struct {
	SchemaVersion
	Tables []TableStatus
}

// Migrator applies and inspects the catalog schema.
type Migrator struct {
	db     *DB
	conn   *sql.DB
	m      *migrate.Migrate
	logger zerolog.Logger
}

// NewMigrator opens the catalog migrations in dir against db.
func NewMigrator(db *DB, dir string, logger zerolog.Logger) (*Migrator, error) {
	if db == nil || db.pool == nil {
		return nil, errors.New("catalog database is not connected")
	}
	if err := checkMigrationDir(dir); err != nil {
		return nil, err
	}

	// Closing conn leaves the pool open.
	conn := stdlib.OpenDBFromPool(db.pool)
	m, err := openMigrate(conn, dir)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Migrator{db: db, conn: conn, m: m, logger: logger.With().Str("migrations", dir).Logger()}, nil
}

// checkMigrationDir fails unless dir is a directory holding at least one
// up migration.
func checkMigrationDir(dir string) error {
	if dir == "" {
		return errors.New("catalog migrations directory is not set")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to open catalog migrations: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("catalog migrations path %s is not a directory", dir)
	}

	ups, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to list catalog migrations: %w", err)
	}
	if len(ups) == 0 {
		return fmt.Errorf("no catalog migrations found in %s", dir)
	}
	return nil
}

func openMigrate(conn *sql.DB, dir string) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(conn, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog migrations: %w", err)
	}
	return m, nil
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
	return mg.run("up", mg.m.Up)
}

// Down drops the catalog schema by reverting every migration.
func (mg *Migrator) Down() error {
	return mg.run("down", mg.m.Down)
}

// Steps applies n migrations, reverting when n is negative.
func (mg *Migrator) Steps(n int) error {
	return mg.run(fmt.Sprintf("steps %+d", n), func() error { return mg.m.Steps(n) })
}

// Force records version as applied and clears the dirty flag without
// running anything. It is the way out of a half-applied migration.
func (mg *Migrator) Force(version int) error {
	mg.logger.Warn().Int("version", version).Msg("forcing catalog schema version")
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("failed to force catalog schema version %d: %w", version, err)
	}
	return nil
}

func (mg *Migrator) run(action string, fn func() error) error {
	log := mg.logger.With().Str("action", action).Logger()
	before, _ := mg.Version()

	err := fn()
	var short migrate.ErrShortLimit
	switch {
	case err == nil:
	case errors.Is(err, migrate.ErrNoChange), errors.Is(err, os.ErrNotExist):
		log.Info().Uint("version", before.Version).Msg("catalog schema already at target version")
		return nil
	case errors.As(err, &short):
		log.Warn().Uint("missing", short.Short).Msg("fewer catalog migrations available than requested")
	default:
		return fmt.Errorf("failed to migrate catalog schema (%s): %w", action, err)
	}

	after, _ := mg.Version()
	log.Info().
		Uint("from", before.Version).
		Uint("to", after.Version).
		Msg("catalog schema migrated")
	return nil
}

// Version reads the recorded migration state.
func (mg *Migrator) Version() (SchemaVersion, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaVersion{}, nil
	}
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("failed to read catalog schema version: %w", err)
	}
	return SchemaVersion{Version: v, Dirty: dirty, Applied: true}, nil
}

// Status reports the migration state and the size of each catalog table.
func (mg *Migrator) Status(ctx context.Context) (SchemaStatus, error) {
	version, err := mg.Version()
	if err != nil {
		return SchemaStatus{}, err
	}
	tables, err := CatalogStatus(ctx, mg.db)
	if err != nil {
		return SchemaStatus{}, err
	}
	return SchemaStatus{SchemaVersion: version, Tables: tables}, nil
}

// Close releases the migration source and its database handle.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	if err := errors.Join(srcErr, dbErr, mg.conn.Close()); err != nil {
		return fmt.Errorf("failed to close catalog migrator: %w", err)
	}
	return nil
}

// CatalogStatus counts the rows of every catalog table present in the public
// schema.
func CatalogStatus(ctx context.Context, q DBTX) ([]TableStatus, error) {
	tables := make([]TableStatus, 0, len(CatalogTables))
	for _, name := range CatalogTables {
		st := TableStatus{Name: name}

		if err := q.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, "public."+name).Scan(&st.Exists); err != nil {
			return nil, fmt.Errorf("failed to look up table %s: %w", name, err)
		}
		if st.Exists {
			count := "SELECT count(*) FROM " + pgx.Identifier{name}.Sanitize()
			if err := q.QueryRow(ctx, count).Scan(&st.Rows); err != nil {
				return nil, fmt.Errorf("failed to count %s: %w", name, err)
			}
		}

		tables = append(tables, st)
	}
	return tables, nil
}

// MigrateUp brings the catalog schema up to date and closes the migrator.
func MigrateUp(db *DB, dir string, logger zerolog.Logger) error {
	mg, err := NewMigrator(db, dir, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := mg.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close catalog migrator")
		}
	}()

	return mg.Up()
}
