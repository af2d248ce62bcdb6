package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/datapadi/web/internal/infrastructure/migration"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type command struct {
	args    string
	minArgs int
	help    string
	run     func(*env) error
}

var commands = map[string]command{
	"up":      {help: "apply all pending migrations", run: withMigrator((*migration.Migrator).Up)},
	"down":    {help: "roll back every migration", run: withMigrator((*migration.Migrator).Down)},
	"step":    {args: "<n>", minArgs: 1, help: "apply n migrations, negative n rolls back", run: stepCmd},
	"goto":    {args: "<version>", minArgs: 1, help: "migrate up or down to version", run: gotoCmd},
	"force":   {args: "<version>", minArgs: 1, help: "set the version without running migrations", run: forceCmd},
	"version": {help: "print the applied version", run: versionCmd},
	"list":    {help: "list the available migrations", run: listCmd},
	"create":  {args: "<name> [description]", minArgs: 1, help: "write an empty migration pair, needs --path", run: createCmd},
}

func withMigrator(fn func(*migration.Migrator) error) func(*env) error {
	return func(e *env) error {
		m, err := e.migrator()
		if err != nil {
			return err
		}
		defer m.Close()
		return fn(m)
	}
}

func stepCmd(e *env) error {
	n, err := strconv.Atoi(e.args[0])
	if err != nil || n == 0 {
		return fmt.Errorf("step count must be a non-zero integer, got %q", e.args[0])
	}
	return withMigrator(func(m *migration.Migrator) error { return m.Steps(n) })(e)
}

func gotoCmd(e *env) error {
	v, err := strconv.ParseUint(e.args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("version must be a non-negative integer, got %q", e.args[0])
	}
	return withMigrator(func(m *migration.Migrator) error { return m.GoTo(uint(v)) })(e)
}

func forceCmd(e *env) error {
	// -1 clears the version table entry
	v, err := strconv.Atoi(e.args[0])
	if err != nil || v < -1 {
		return fmt.Errorf("version must be -1 or greater, got %q", e.args[0])
	}
	return withMigrator(func(m *migration.Migrator) error { return m.Force(v) })(e)
}

func versionCmd(e *env) error {
	return withMigrator(func(m *migration.Migrator) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		state := ""
		if dirty {
			state = " (dirty)"
		}
		fmt.Fprintf(e.out, "%d%s\n", v, state)
		return nil
	})(e)
}

func listCmd(e *env) error {
	src, err := e.source()
	if err != nil {
		return err
	}
	entries, err := migration.ListMigrations(src)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(e.out, "no migrations")
		return nil
	}
	for _, entry := range entries {
		fmt.Fprintln(e.out, entry)
	}
	return nil
}

func createCmd(e *env) error {
	if e.opts.path == "" {
		return fmt.Errorf("create needs --path")
	}
	mf, err := migration.CreateMigration(e.opts.path, e.args[0], strings.Join(e.args[1:], " "))
	if err != nil {
		return err
	}
	e.log.Info("migration created",
		zap.String("version", mf.Version),
		zap.String("up", mf.UpPath),
		zap.String("down", mf.DownPath))
	return nil
}

func printUsage(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprint(w, "Export job database migrations\n\nUsage:\n  migrate [flags] <command> [arguments]\n\nCommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(w, "  %-28s %s\n", strings.TrimSpace(name+" "+cmd.args), cmd.help)
	}
	fmt.Fprintf(w, "\nFlags:\n%s\nThe database comes from config.toml or DATAPADI_DATABASE_* variables.\n", flags.FlagUsages())
}
