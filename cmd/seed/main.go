// Command seed inserts the properties listed in a YAML file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"property-maintenance-backend/config"
	"property-maintenance-backend/internal/db"
	"property-maintenance-backend/internal/logging"
	"property-maintenance-backend/internal/repository"
	"property-maintenance-backend/internal/store"
)

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "./config/config.yaml"), "service configuration file")
	seedPath := flag.String("file", "./config/seed.yaml", "YAML list of properties to insert")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", *configPath, err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	seeds, err := loadSeed(*seedPath)
	if err != nil {
		logger.Fatal("failed to read seed file", zap.String("path", *seedPath), zap.Error(err))
	}

	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close(gormDB)

	properties := repository.NewProperties(store.NewGormStore(gormDB, nil), nil, 1, nil, logger)
	added, err := seed(context.Background(), properties, seeds)
	if err != nil {
		logger.Error("seeding stopped", zap.Int("added", added), zap.Error(err))
		return
	}
	logger.Info("seeding complete", zap.Int("added", added))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
