package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mishipay/shopify-bridge/internal/infrastructure/config"
	"github.com/mishipay/shopify-bridge/internal/infrastructure/logger"
	"github.com/mishipay/shopify-bridge/internal/infrastructure/persistence"
)

// Applies the schema for the webhook audit log and tenant configuration
// tables. Run once per deploy, before the server starts.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	log, err := logger.NewForEnvironment(cfg.App.Env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}
	log.Info("Migrations applied",
		zap.String("database", cfg.Database.DBName),
		zap.String("host", cfg.Database.Host))
}
