package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/config"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/logger"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "migration command: up | down | status | version | up-to | down-to | create | validate")
	dir := flag.String("dir", migrate.DefaultDir, "directory containing SQL migrations")
	name := flag.String("name", "", "migration name (required for create)")
	version := flag.String("version", "", "target version (required for up-to and down-to)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := context.Background()

	// create and validate work on the filesystem alone, no DB needed.
	switch *cmd {
	case "create":
		requireValue(logg, "name", *name)
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			logg.Error(ctx, "failed to create migration", err)
			os.Exit(1)
		}
		fmt.Println(path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			logg.Error(ctx, "migration directory is invalid", err)
			os.Exit(1)
		}
		logg.Info(ctx, "migration directory is valid")
		return
	}

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to connect to database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "failed to unwrap sql.DB", err)
		os.Exit(1)
	}

	switch *cmd {
	case "up", "down", "status", "version":
		err = migrate.Run(ctx, sqlDB, *dir, *cmd)
	case "up-to", "down-to":
		requireValue(logg, "version", *version)
		err = migrate.MigrateToVersion(ctx, sqlDB, *dir, *version)
	default:
		logg.Error(ctx, "unknown command", fmt.Errorf("unsupported -cmd %q", *cmd))
		os.Exit(1)
	}
	if err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}

	logg.Info(ctx, fmt.Sprintf("migration command %q completed", *cmd))
}

func requireValue(logg *logger.Logger, flagName, value string) {
	if value == "" {
		logg.Error(context.Background(), "missing required flag", fmt.Errorf("-%s is required", flagName))
		os.Exit(1)
	}
}
