package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/sangkips/crm-backend/internal/app"
	"github.com/sangkips/crm-backend/internal/config"
	"github.com/sangkips/crm-backend/internal/infrastructure/jobs"
	"github.com/sangkips/crm-backend/internal/infrastructure/observability"
	"github.com/sangkips/crm-backend/internal/infrastructure/secrets"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := observability.NewLogger(&cfg.Observability, &cfg.App)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("worker exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := secrets.Load(ctx, cfg, logger); err != nil {
		logger.Warn("key vault unavailable, using environment values", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.Redis.Enabled() {
		return errors.New("worker needs REDIS_ADDR")
	}

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName+"-worker", logger)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   app.RedisOpt(&cfg.Redis),
		Logger:      logger,
		Metrics:     a.Metrics,
		PDF:         a.Services.Quotations,
		Housekeeper: a.Services.Maintenance,
	})
	if err != nil {
		return err
	}

	logger.Info("worker starting", zap.String("redis", cfg.Redis.Addr))
	return w.Run(ctx)
}
