package main

import (
	"context"
	"os"

	"taxiservice/config"
	"taxiservice/pkg/logger"
	"taxiservice/storage"
	"taxiservice/storage/postgres"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName+"-manage", cfg.LoggerLevel)
	defer func() { _ = log.Sync() }()

	deps := deps{
		cfg: cfg,
		log: log,
		migrate: func() error {
			return postgres.Migrate(cfg.PostgresURL(), log)
		},
		reset: func() error {
			return postgres.Reset(cfg.PostgresURL(), log)
		},
		truncate: func(ctx context.Context) error {
			pg, err := postgres.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer pg.Close()
			return pg.Truncate(ctx)
		},
		open: func(ctx context.Context) (storage.IStorage, error) {
			return postgres.New(ctx, cfg, log)
		},
	}

	if err := newRootCmd(deps).Execute(); err != nil {
		os.Exit(1)
	}
}
