package service

import (
	"context"
	"time"

	"github.com/sangkips/crm-backend/internal/infrastructure/cache"
	"github.com/sangkips/crm-backend/internal/infrastructure/observability"
	"go.uber.org/zap"
)

// effects runs the non-fatal follow-ups of a committed write. Failures are
// logged and counted, never returned.
type effects struct {
	logger  *zap.Logger
	metrics *observability.Metrics
	cache   *cache.ReportCache
}

func newEffects(logger *zap.Logger, metrics *observability.Metrics, reportCache *cache.ReportCache) effects {
	if logger == nil {
		logger = zap.NewNop()
	}
	return effects{logger: logger, metrics: metrics, cache: reportCache}
}

// failed records a secondary failure for effect.
func (e effects) failed(effect string, err error, fields ...zap.Field) {
	if err == nil {
		return
	}
	e.metrics.SecondaryFailure(effect)
	e.logger.Warn("secondary effect failed",
		append([]zap.Field{zap.String("effect", effect), zap.Error(err)}, fields...)...)
}

// invalidateReports bumps the report cache version.
func (e effects) invalidateReports(ctx context.Context) {
	e.failed("report_cache", e.cache.Bump(ctx))
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
