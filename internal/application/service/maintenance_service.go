package service

import (
	"context"
	"errors"
	"time"

	"github.com/sangkips/crm-backend/internal/domain/repository"
	"github.com/sangkips/crm-backend/internal/infrastructure/cache"
	"github.com/sangkips/crm-backend/internal/infrastructure/observability"
	"go.uber.org/zap"
)

// MaintenanceService runs the periodic sweeps scheduled by the worker
type MaintenanceService struct {
	quotationRepo     repository.QuotationRepository
	passwordResetRepo repository.PasswordResetTokenRepository
	idempotencyRepo   repository.IdempotencyRepository
	effects           effects
	now               func() time.Time
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(
	quotationRepo repository.QuotationRepository,
	passwordResetRepo repository.PasswordResetTokenRepository,
	idempotencyRepo repository.IdempotencyRepository,
	reportCache *cache.ReportCache,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *MaintenanceService {
	return &MaintenanceService{
		quotationRepo:     quotationRepo,
		passwordResetRepo: passwordResetRepo,
		idempotencyRepo:   idempotencyRepo,
		effects:           newEffects(logger, metrics, reportCache),
		now:               nowUTC,
	}
}

// ExpireQuotations moves draft and sent quotations past their validity to expired.
func (s *MaintenanceService) ExpireQuotations(ctx context.Context) (int64, error) {
	n, err := s.quotationRepo.ExpireBefore(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.effects.logger.Info("quotations expired", zap.Int64("count", n))
		s.effects.invalidateReports(ctx)
	}
	return n, nil
}

// Cleanup drops spent password reset tokens and expired idempotency keys.
// Both sweeps run even when the first fails.
func (s *MaintenanceService) Cleanup(ctx context.Context) error {
	tokens, tokenErr := s.passwordResetRepo.DeleteExpired(ctx)
	keys, keyErr := s.idempotencyRepo.DeleteExpired(ctx)
	if err := errors.Join(tokenErr, keyErr); err != nil {
		return err
	}
	s.effects.logger.Debug("cleanup finished",
		zap.Int64("reset_tokens", tokens),
		zap.Int64("idempotency_keys", keys),
	)
	return nil
}
