package main

// Create the rule_tables schema:
//   go run ./cmd/migrate

import (
	"context"
	"log"

	"tool-advisor/internal/shared/config"
	"tool-advisor/internal/shared/storage/db"
	"tool-advisor/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.MigratePool().WithEnv())
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	telemetry.Info("db.migrate.done", nil)
}
