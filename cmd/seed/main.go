package main

import (
	"context"
	"flag"

	"github.com/joho/godotenv"

	"github.com/oksasatya/dresscode/config"
	"github.com/oksasatya/dresscode/internal/infrastructure/localstore"
	"github.com/oksasatya/dresscode/internal/infrastructure/storage"
	"github.com/oksasatya/dresscode/pkg/helpers"
)

// seed writes the example users into the configured store. With -reset the
// stored collection is cleared first.
func main() {
	reset := flag.Bool("reset", false, "clear stored users before seeding")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	backend, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to open storage: %v", err)
	}
	defer backend.Close()

	repo, err := localstore.NewUserRepository(ctx, backend.Store,
		localstore.WithKey(cfg.StorageKey),
		localstore.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("failed to init user repository: %v", err)
	}

	if *reset {
		if err := repo.Clear(ctx); err != nil {
			logger.Fatalf("failed to clear users: %v", err)
		}
		logger.Info("stored users cleared")
	}

	n, err := repo.SeedExamples(ctx)
	if err != nil {
		logger.Fatalf("failed to seed users: %v", err)
	}
	if n == 0 {
		logger.Info("store already holds users; nothing seeded")
		return
	}
	logger.WithField("count", n).Infof("seeded example users (password %q)", localstore.ExamplePassword)
}
