package cache

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/diallo-dev/coffrefort-backend/pkg/logger"
	"github.com/diallo-dev/coffrefort-backend/pkg/metrics"
	pkgredis "github.com/diallo-dev/coffrefort-backend/pkg/redis"
)

// Redis is the shared-tier Store. All process instances see the same
// entries, so a write on one instance invalidates for every instance.
// Backend outages degrade to direct computation and are logged, never
// surfaced to callers.
type Redis struct {
	client  *pkgredis.Client
	logg    *logger.Logger
	flight  singleflight.Group
	metrics *metrics.CacheMetrics
}

// NewRedis wraps a connected Redis client. logg and cacheMetrics may be nil.
func NewRedis(client *pkgredis.Client, logg *logger.Logger, cacheMetrics *metrics.CacheMetrics) *Redis {
	return &Redis{client: client, logg: logg, metrics: cacheMetrics}
}

func (r *Redis) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	namespaced := r.client.CacheKey(key)

	stored, err := r.client.Get(ctx, namespaced)
	switch {
	case err == nil:
		r.metrics.IncHit(key)
		return []byte(stored), nil
	case err == goredis.Nil:
		// fall through to compute
	default:
		// Degraded mode: the backend is unreachable, compute directly.
		r.warn(ctx, "cache backend read failed, computing directly", err)
		return compute(ctx)
	}

	r.metrics.IncMiss(key)
	result, err, _ := r.flight.Do(key, func() (any, error) {
		start := time.Now()
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		r.metrics.ObserveCompute(key, time.Since(start))

		if setErr := r.client.Set(ctx, namespaced, string(value), ttl); setErr != nil {
			r.warn(ctx, "cache backend write failed, serving uncached result", setErr)
		}
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (r *Redis) Invalidate(ctx context.Context, key string) error {
	r.metrics.IncInvalidation(key)
	return r.client.Del(ctx, r.client.CacheKey(key))
}

func (r *Redis) InvalidatePattern(ctx context.Context, prefix string) error {
	r.metrics.IncInvalidation(prefix)
	return r.client.DelPattern(ctx, r.client.CacheKey(prefix))
}

func (r *Redis) warn(ctx context.Context, msg string, err error) {
	if r.logg == nil {
		return
	}
	ctx = r.logg.WithField(ctx, "cache_error", err.Error())
	r.logg.Warn(ctx, msg)
}
