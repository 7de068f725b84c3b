package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taxiservice/config"
	"taxiservice/pkg/admin"
	"taxiservice/pkg/api"
	"taxiservice/pkg/auth"
	"taxiservice/pkg/logger"
	"taxiservice/service"
	"taxiservice/storage"
	"taxiservice/storage/memory"
	"taxiservice/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", logger.Error(err))
		os.Exit(1)
	}
	if cfg.SessionSecret == config.DefaultSessionSecret {
		log.Warning("SESSION_SECRET is not set, session tokens are signed with a public default")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stg, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open storage", logger.Error(err))
		os.Exit(1)
	}
	defer stg.Close()

	svc := service.New(stg, auth.NewService(cfg.SessionSecret, cfg.SessionTTL), log)

	router, err := api.NewRouter(svc, admin.NewDefaultSite(svc), api.Options{
		SessionTTL:   cfg.SessionTTL,
		CookieSecure: cfg.SessionCookieSecure,
	}, log)
	if err != nil {
		log.Error("failed to build router", logger.Error(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http server is starting", logger.String("addr", srv.Addr), logger.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", logger.Error(err))
	}
}

func openStorage(ctx context.Context, cfg config.Config, log logger.ILogger) (storage.IStorage, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		log.Warning("using in-memory storage, data is lost on restart")
		return memory.New(), nil
	case config.StorageDriverPostgres:
		return postgres.New(ctx, cfg, log)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
