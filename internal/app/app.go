// Package app assembles the infrastructure and services shared by the API
// and worker processes.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sangkips/crm-backend/internal/application/service"
	"github.com/sangkips/crm-backend/internal/config"
	domainRepo "github.com/sangkips/crm-backend/internal/domain/repository"
	"github.com/sangkips/crm-backend/internal/infrastructure/cache"
	"github.com/sangkips/crm-backend/internal/infrastructure/database"
	"github.com/sangkips/crm-backend/internal/infrastructure/jobs"
	"github.com/sangkips/crm-backend/internal/infrastructure/observability"
	"github.com/sangkips/crm-backend/internal/infrastructure/pdf"
	"github.com/sangkips/crm-backend/internal/infrastructure/repository"
	"github.com/sangkips/crm-backend/internal/infrastructure/storage"
	"github.com/sangkips/crm-backend/pkg/email"
	"github.com/sangkips/crm-backend/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories groups the persistence adapters
type Repositories struct {
	Users          domainRepo.UserRepository
	Leads          domainRepo.LeadRepository
	Quotations     domainRepo.QuotationRepository
	Company        domainRepo.CompanyRepository
	Analytics      domainRepo.AnalyticsRepository
	PasswordResets domainRepo.PasswordResetTokenRepository
	Idempotency    domainRepo.IdempotencyRepository
}

// Services groups the application services
type Services struct {
	Auth        *service.AuthService
	Users       *service.UserService
	Leads       *service.LeadService
	Quotations  *service.QuotationService
	Company     *service.CompanyService
	Reports     *service.ReportService
	Uploads     *service.UploadService
	Maintenance *service.MaintenanceService
}

// App is the wired object graph. Close releases what New opened.
type App struct {
	Cfg        *config.Config
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	DB         *gorm.DB
	Redis      *redis.Client
	JWTManager *utils.JWTManager
	Repos      Repositories
	Services   Services
	// Dispatcher is asynq when Redis is configured, inline otherwise.
	Dispatcher jobs.Dispatcher

	closers []func() error
}

// New connects to the database and Redis and builds every service.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Logger: logger, Metrics: observability.NewMetrics()}

	db, err := database.NewDatabase(&cfg.Database, cfg.App.Debug, logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a.DB = db
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	if err := database.AutoMigrate(db, logger); err != nil {
		a.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := database.SeedDefaultData(db, &cfg.Admin, logger); err != nil {
		logger.Warn("failed to seed default data", zap.Error(err))
	}

	if cfg.Redis.Enabled() {
		client, err := cache.NewClient(ctx, &cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = client
		a.closers = append(a.closers, client.Close)
	} else {
		logger.Info("redis not configured, report cache and job queue disabled")
	}

	store, err := storage.NewStorage(ctx, &cfg.Storage, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}

	a.JWTManager = utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours, cfg.JWT.RefreshExpiryHours)

	a.Repos = Repositories{
		Users:          repository.NewUserRepository(db),
		Leads:          repository.NewLeadRepository(db),
		Quotations:     repository.NewQuotationRepository(db),
		Company:        repository.NewCompanyRepository(db),
		Analytics:      repository.NewAnalyticsRepository(db),
		PasswordResets: repository.NewPasswordResetTokenRepository(db),
		Idempotency:    repository.NewIdempotencyRepository(db),
	}

	emailService := email.NewEmailService(email.EmailConfig{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUsername: cfg.Email.SMTPUsername,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromName:     cfg.Email.FromName,
		FromEmail:    cfg.Email.FromEmail,
		FrontendURL:  cfg.App.FrontendURL,
		AppName:      cfg.App.Name,
	})

	reportCache := cache.NewReportCache(a.Redis, cfg.Redis.CacheTTL, a.Metrics, logger)

	var inline *jobs.InlineDispatcher
	if a.Redis != nil {
		d := jobs.NewAsynqDispatcher(RedisOpt(&cfg.Redis))
		a.Dispatcher = d
		a.closers = append(a.closers, d.Close)
	} else {
		inline = jobs.NewInlineDispatcher()
		a.Dispatcher = inline
	}

	r := a.Repos
	a.Services = Services{
		Auth:    service.NewAuthService(r.Users, r.PasswordResets, a.JWTManager, emailService, reportCache, logger),
		Users:   service.NewUserService(r.Users, store, reportCache, logger),
		Leads:   service.NewLeadService(r.Leads, r.Users, r.Company, reportCache, a.Metrics, logger),
		Company: service.NewCompanyService(r.Company, store, cfg.Storage.UploadMaxSize, a.Metrics, logger),
		Quotations: service.NewQuotationService(service.QuotationDeps{
			Quotations: r.Quotations,
			Leads:      r.Leads,
			Company:    r.Company,
			Storage:    store,
			Renderer:   pdf.NewRenderer(&cfg.PDF),
			Dispatcher: a.Dispatcher,
			Email:      emailService,
			Cache:      reportCache,
			Metrics:    a.Metrics,
			Logger:     logger,
		}),
		Reports:     service.NewReportService(r.Analytics, r.Users, reportCache, cfg.Report.SalesTarget, a.Metrics, logger),
		Uploads:     service.NewUploadService(store, cfg.Storage.UploadMaxSize, logger),
		Maintenance: service.NewMaintenanceService(r.Quotations, r.PasswordResets, r.Idempotency, reportCache, a.Metrics, logger),
	}
	if inline != nil {
		inline.Bind(a.Services.Quotations)
	}
	return a, nil
}

// Ping checks the database connection.
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// RedisOpt converts the Redis settings for asynq.
func RedisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}
