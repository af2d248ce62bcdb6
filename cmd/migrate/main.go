// Command migrate applies the export job schema migrations.
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/datapadi/web/internal/infrastructure/config"
	"github.com/datapadi/web/internal/infrastructure/logger"
	"github.com/datapadi/web/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// options are the global flags
type options struct {
	path     string
	logLevel string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(argv []string, stdout io.Writer) int {
	flags := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flags.SetOutput(stdout)
	var opts options
	flags.StringVarP(&opts.path, "path", "p", "", "migrations directory (default: bundled for the configured driver)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	flags.Usage = func() { printUsage(stdout, flags) }

	if err := flags.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	args := flags.Args()
	if len(args) == 0 {
		printUsage(stdout, flags)
		return 2
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stdout, "unknown command %q\n\n", args[0])
		printUsage(stdout, flags)
		return 2
	}
	if len(args)-1 < cmd.minArgs {
		fmt.Fprintf(stdout, "usage: migrate %s %s\n", args[0], cmd.args)
		return 2
	}

	log, err := logger.New(logger.Config{
		Level:      opts.logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	e := &env{opts: opts, args: args[1:], out: stdout, log: log.With(zap.String("command", args[0]))}
	if err := cmd.run(e); err != nil {
		e.log.Error("migration command failed", zap.Error(err))
		return 1
	}
	return 0
}

// env is what a command runs against. The database and the migration
// source are opened lazily since create and list never touch the database.
type env struct {
	opts options
	args []string
	out  io.Writer
	log  *zap.Logger
	cfg  *config.Config
}

func (e *env) config() (*config.Config, error) {
	if e.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		e.cfg = cfg
	}
	return e.cfg, nil
}

func (e *env) source() (fs.FS, error) {
	if e.opts.path != "" {
		if _, err := os.Stat(e.opts.path); err != nil {
			return nil, err
		}
		return os.DirFS(e.opts.path), nil
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	return migration.BundledSource(cfg.Database.Driver)
}

// migrator opens the configured database. The caller closes the migrator,
// which closes the database with it.
func (e *env) migrator() (*migration.Migrator, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	src, err := e.source()
	if err != nil {
		return nil, err
	}

	sqlDriver := "postgres"
	if cfg.Database.Driver == "sqlite" {
		sqlDriver = "sqlite3"
	}
	db, err := sql.Open(sqlDriver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.NewFromFS(db, cfg.Database.Driver, src, e.log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	e.log.Debug("database opened", zap.String("driver", cfg.Database.Driver))
	return m, nil
}
