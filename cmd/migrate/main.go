// Command migrate manages the postgres schema of the profile catalog and
// reports the size of the researchers and projects tables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/lab-stats-service/internal/config"
	"github.com/helixir/lab-stats-service/internal/database"
	"github.com/helixir/lab-stats-service/internal/observability"
)

const connectTimeout = 30 * time.Second

type action int

const (
	actionStatus action = iota
	actionUp
	actionDown
	actionSteps
	actionForce
)

type options struct {
	action     action
	steps      int
	force      int
	dir        string
	configFile string
	anyBackend bool
}

// schemaMigrator is the part of database.Migrator the command drives.
type schemaMigrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Status(ctx context.Context) (database.SchemaStatus, error)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseOptions(args, os.Stderr)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFile(opts.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := checkBackend(cfg.Catalog, opts.anyBackend); err != nil {
		return err
	}

	logCfg := cfg.Logging
	logCfg.Format = "console"
	logger := observability.NewLogger(logCfg, observability.ProcessMigrate)

	dir := opts.dir
	if dir == "" {
		dir = cfg.Database.MigrationPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to catalog database: %w", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, dir, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close catalog migrator")
		}
	}()

	return execute(ctx, migrator, opts, logger)
}

// parseOptions reads the command line. Exactly one of -up, -down, -steps,
// -force and -version must be given.
func parseOptions(args []string, usage io.Writer) (options, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(usage)

	up := fs.Bool("up", false, "apply all pending catalog migrations")
	down := fs.Bool("down", false, "revert all catalog migrations (drops researchers and projects)")
	steps := fs.Int("steps", 0, "apply N migrations, or revert N when negative")
	force := fs.Int("force", -1, "record version V as applied without running it")
	version := fs.Bool("version", false, "report the schema version and catalog table sizes")

	opts := options{}
	fs.StringVar(&opts.dir, "path", "", "migrations directory (default: database.migration_path)")
	fs.StringVar(&opts.configFile, "config", "", "config file (default: ./config.yaml search)")
	fs.BoolVar(&opts.anyBackend, "any-backend", false, "run even when catalog.backend is not postgres")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	chosen := 0
	pick := func(set bool, a action) {
		if set {
			chosen++
			opts.action = a
		}
	}
	pick(*version, actionStatus)
	pick(*up, actionUp)
	pick(*down, actionDown)
	pick(*steps != 0, actionSteps)
	pick(*force >= 0, actionForce)

	switch chosen {
	case 0:
		fs.Usage()
		return options{}, errors.New("specify one of -up, -down, -steps N, -force V or -version")
	case 1:
	default:
		return options{}, errors.New("specify only one action at a time")
	}

	opts.steps = *steps
	opts.force = *force
	return opts, nil
}

// checkBackend refuses to touch postgres when the service reads profiles
// from the JSON exports, unless the caller insists.
func checkBackend(cfg config.CatalogConfig, anyBackend bool) error {
	if cfg.Backend == config.CatalogBackendPostgres || anyBackend {
		return nil
	}
	return fmt.Errorf("catalog.backend is %q, not %q: pass -any-backend to prepare postgres anyway",
		cfg.Backend, config.CatalogBackendPostgres)
}

// execute runs the selected action, then logs where the catalog schema stands.
func execute(ctx context.Context, m schemaMigrator, opts options, logger zerolog.Logger) error {
	var err error
	switch opts.action {
	case actionUp:
		err = m.Up()
	case actionDown:
		logger.Warn().Msg("reverting every catalog migration")
		err = m.Down()
	case actionSteps:
		err = m.Steps(opts.steps)
	case actionForce:
		err = m.Force(opts.force)
	}
	if err != nil {
		return err
	}

	status, err := m.Status(ctx)
	if err != nil {
		return err
	}
	report(logger, status)
	return nil
}

func report(logger zerolog.Logger, status database.SchemaStatus) {
	if !status.Applied {
		logger.Info().Msg("no catalog migration applied")
	} else {
		logger.Info().
			Uint("version", status.Version).
			Bool("dirty", status.Dirty).
			Msg("catalog schema version")
	}

	for _, table := range status.Tables {
		if !table.Exists {
			logger.Warn().Str("table", table.Name).Msg("catalog table missing")
			continue
		}
		logger.Info().
			Str("table", table.Name).
			Int64("rows", table.Rows).
			Msg("catalog table")
	}
}
