package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"permitdesk.org/internal/config"
	"permitdesk.org/internal/migrate"
)

func main() {
	log.SetFlags(0)
	var (
		dsn     = pflag.String("dsn", "", "PostgreSQL DSN (defaults to DATABASE_URL or POSTGRES_*)")
		steps   = pflag.IntP("steps", "n", 0, "Number of migrations to apply or roll back; 0 means all")
		version = pflag.Int("version", -1, "Target version for force")
		table   = pflag.String("table", "", "Migrations bookkeeping table")
	)
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate [flags] up|down|version|force")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}

	if *dsn == "" {
		cfg := config.Config{
			PostgresDSN:      os.Getenv("DATABASE_URL"),
			PostgresHost:     os.Getenv("POSTGRES_HOST"),
			PostgresPort:     envOr("POSTGRES_PORT", "5432"),
			PostgresUser:     os.Getenv("POSTGRES_USER"),
			PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
			PostgresDB:       os.Getenv("POSTGRES_DB"),
			PostgresSSLMode:  envOr("POSTGRES_SSLMODE", "disable"),
		}
		built, err := cfg.BuildPostgresDSN()
		if err != nil {
			log.Fatalf("missing DSN: provide via --dsn or environment: %v", err)
		}
		*dsn = built
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mgr, err := migrate.Open(ctx, *dsn, migrate.WithMigrationsTable(*table))
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer mgr.Close()

	switch cmd := pflag.Arg(0); cmd {
	case "up":
		from, to, err := mgr.Up(*steps)
		if err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		fmt.Printf("migrated %d -> %d\n", from, to)
	case "down":
		if err := mgr.Down(*steps); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		v, _, err := mgr.Version()
		if err != nil {
			log.Fatalf("version: %v", err)
		}
		fmt.Printf("now at version %d\n", v)
	case "version":
		v, dirty, err := mgr.Version()
		if err != nil {
			log.Fatalf("version: %v", err)
		}
		fmt.Printf("version %d dirty=%t\n", v, dirty)
	case "force":
		if *version < 0 {
			log.Fatal("force requires --version")
		}
		if err := mgr.Force(*version); err != nil {
			log.Fatalf("force: %v", err)
		}
		fmt.Printf("forced version %d\n", *version)
	default:
		log.Fatalf("unknown command %q", cmd)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
