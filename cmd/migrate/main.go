package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"expensetracker/config"
	"expensetracker/database"
)

var runMigrations = database.RunMigrations

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to config file")
	down := fs.Bool("down", false, "Roll back one migration instead of applying all pending ones")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	version, err := runMigrations(cfg.Database, *down)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Database %s at migration version %d\n", cfg.Database.DBName, version)
	return nil
}
