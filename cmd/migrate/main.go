package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ncpwheels/featured-payments/internal/adapters/postgres"
	"github.com/ncpwheels/featured-payments/internal/bootstrap"
)

func main() {
	flags := flag.NewFlagSet("migrate", flag.ExitOnError)
	flags.Usage = usage
	_ = flags.Parse(os.Args[1:])

	args := flags.Args()
	if len(args) < 1 {
		flags.Usage()
		os.Exit(2)
	}

	rt, err := bootstrap.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	defer rt.Zap.Sync()

	ctx := context.Background()
	pool, err := rt.OpenDatabase(ctx)
	if err != nil {
		rt.Zap.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, args[0], args[1:]...); err != nil {
		rt.Zap.Error("Migration failed", zap.String("command", args[0]), zap.Error(err))
		pool.Close()
		os.Exit(1)
	}
	rt.Zap.Info("Migration finished", zap.String("command", args[0]))
}

func usage() {
	fmt.Print(`Usage: migrate COMMAND

Database settings are read from FEATURED_DATABASE__* variables.

Commands:
    up                   Migrate the DB to the most recent version available
    up-by-one            Migrate the DB up by 1
    up-to VERSION        Migrate the DB to a specific VERSION
    down                 Roll back the version by 1
    down-to VERSION      Roll back to a specific VERSION
    redo                 Re-run the latest migration
    reset                Roll back all migrations
    status               Dump the migration status for the current DB
    version              Print the current version of the database
`)
}
