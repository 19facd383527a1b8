package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/crm-backend/internal/app"
	"github.com/sangkips/crm-backend/internal/config"
	"github.com/sangkips/crm-backend/internal/infrastructure/jobs"
	"github.com/sangkips/crm-backend/internal/infrastructure/observability"
	"github.com/sangkips/crm-backend/internal/infrastructure/secrets"
	"github.com/sangkips/crm-backend/internal/presentation/http/handler"
	"github.com/sangkips/crm-backend/internal/presentation/http/routes"
	"go.uber.org/zap"
)

// localSweepInterval is how often the API runs the expiry and cleanup sweeps
// itself when no worker is available.
const localSweepInterval = time.Hour

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := observability.NewLogger(&cfg.Observability, &cfg.App)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("api exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := secrets.Load(ctx, cfg, logger); err != nil {
		logger.Warn("key vault unavailable, using environment values", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName, logger)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}()

	if a.Redis == nil {
		go jobs.RunLocal(ctx, a.Services.Maintenance, localSweepInterval, logger)
	}

	s := a.Services
	handlers := &routes.Handlers{
		Auth:      handler.NewAuthHandler(s.Auth),
		User:      handler.NewUserHandler(s.Users),
		Lead:      handler.NewLeadHandler(s.Leads, s.Reports),
		Quotation: handler.NewQuotationHandler(s.Quotations, s.Reports),
		Report:    handler.NewReportHandler(s.Reports),
		Settings:  handler.NewSettingsHandler(s.Company),
		Upload:    handler.NewUploadHandler(s.Uploads),
	}

	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      a.JWTManager,
		Cfg:             cfg,
		IdempotencyRepo: a.Repos.Idempotency,
		Logger:          logger,
		Metrics:         a.Metrics,
		Ping:            a.Ping,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("app", cfg.App.Name),
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Env),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown gracefully", zap.Error(err))
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}
