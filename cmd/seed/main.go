// Package main provides a CLI tool for seeding the database with demo master data.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"challanbook/db"
	"challanbook/internal/app"
	corenumerator "challanbook/internal/core/numerator"
	"challanbook/internal/infrastructure/numerator"
	"challanbook/internal/infrastructure/storage/postgres"
	"challanbook/internal/infrastructure/storage/postgres/catalog_repo"
	"challanbook/pkg/logger"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	if cfg.RunMigrations {
		if _, err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalw("failed to migrate database", "error", err)
		}
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	counts, err := seedCatalogs(ctx, txManager, catalog_repo.NewMasterDataRepo(txManager), demoCatalogs())
	if err != nil {
		log.Fatalw("failed to seed master data", "error", err)
	}
	for kind, n := range counts {
		log.Infow("catalog seeded", "catalog", kind, "records", n)
	}

	// SEED_CHALLAN_COUNTER continues numbering from a previous book.
	if v := os.Getenv("SEED_CHALLAN_COUNTER"); v != "" {
		value, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Fatalw("invalid SEED_CHALLAN_COUNTER", "value", v, "error", err)
		}
		if err := numerator.New(txManager).Set(ctx, corenumerator.ChallanConfig(), value); err != nil {
			log.Fatalw("failed to set challan counter", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}
