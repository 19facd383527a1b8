package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sangkips/crm-backend/internal/infrastructure/observability"
	"go.uber.org/zap"
)

const versionKey = "crm:reports:version"

// ReportCache memoises report payloads in Redis under a global version.
// Any lead or quotation write bumps the version, orphaning older entries
// until their TTL runs out. A nil ReportCache, or one without a client,
// always calls the loader.
type ReportCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewReportCache(client *redis.Client, ttl time.Duration, metrics *observability.Metrics, logger *zap.Logger) *ReportCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportCache{client: client, ttl: ttl, metrics: metrics, logger: logger}
}

func (c *ReportCache) enabled() bool {
	return c != nil && c.client != nil
}

// Version returns the current cache version, initialising it when missing.
func (c *ReportCache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		// SetNX so two first readers agree on the initial version.
		if err := c.client.SetNX(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, versionKey).Int64()
	}
	return ver, err
}

// BuildKey joins parts and appends the current version.
func (c *ReportCache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := "crm:reports:" + strings.Join(parts, ":")
	if !c.enabled() {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// FetchJSON decodes the cached value for the report into dest, or runs
// loader and stores its result. Redis failures degrade to calling loader.
func (c *ReportCache) FetchJSON(ctx context.Context, report string, dest interface{}, loader func(context.Context) (interface{}, error), parts ...string) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if !c.enabled() {
		return load(ctx, dest, loader)
	}

	key, err := c.BuildKey(ctx, append([]string{report}, parts...)...)
	if err != nil {
		c.degrade(report, err)
		return load(ctx, dest, loader)
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(payload, dest); jsonErr == nil {
			c.metrics.CacheHit(report)
			return nil
		}
	case !errors.Is(err, redis.Nil):
		c.degrade(report, err)
		return load(ctx, dest, loader)
	}
	c.metrics.CacheMiss(report)

	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.degrade(report, err)
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates every cached report.
func (c *ReportCache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Incr(ctx, versionKey).Err()
}

func (c *ReportCache) degrade(report string, err error) {
	c.metrics.SecondaryFailure("report_cache")
	c.logger.Warn("report cache unavailable", zap.String("report", report), zap.Error(err))
}

func load(ctx context.Context, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
