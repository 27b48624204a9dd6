package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/moodapi/internal/config"
	"github.com/vyrodovalexey/moodapi/internal/observability"
)

// cacheTracerName is the OTEL tracer used for cache operations.
const cacheTracerName = "moodapi/cache"

// clearScanCount bounds how many keys one SCAN iteration returns during
// ClearAll, so a large namespace never blocks the remote store.
const clearScanCount = 100

// RemoteBackedCache fronts Redis with a local fallback mirror. Every
// write is mirrored locally so that a remote outage degrades reads to
// last-known values. A circuit breaker gates remote calls so a dead
// store is not hammered on every request.
type RemoteBackedCache struct {
	logger       observability.Logger
	client       *redis.Client
	breaker      *gobreaker.CircuitBreaker
	store        *fallbackStore
	metrics      *Metrics
	keyPrefix    string
	defaultTTL   time.Duration
	probeTimeout time.Duration

	fallbackMode atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

// isInfraError reports whether the error indicates the remote store is
// unreachable. Cache misses and caller cancellation are not infra
// failures and must not trip the breaker.
func isInfraError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// newRedisClient builds a Redis client from configuration. Retries with
// exponential backoff are performed by the client itself, not by the
// cache.
func newRedisClient(cfg *config.CacheConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.New("invalid redis URL: " + err.Error())
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.ConnectTimeout > 0 {
		opts.DialTimeout = cfg.ConnectTimeout.Duration()
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout.Duration()
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout.Duration()
	}
	opts.MaxRetries = cfg.MaxRetries
	if !cfg.RetryOnTimeout {
		opts.MaxRetries = -1
	}
	opts.MinRetryBackoff = 100 * time.Millisecond
	opts.MaxRetryBackoff = 2 * time.Second

	return redis.NewClient(opts), nil
}

// newCacheBreaker builds the circuit breaker that gates remote calls.
func newCacheBreaker(logger observability.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cache-remote",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return !isInfraError(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("cache circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()))
		},
	})
}

// newRemoteBackedCache connects to Redis and probes it with a bounded
// ping. A failed probe is returned as an error so the caller can fall
// back to a memory-only cache.
func newRemoteBackedCache(cfg *config.CacheConfig, logger observability.Logger) (*RemoteBackedCache, error) {
	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	probeTimeout := cfg.ConnectTimeout.Duration()
	if probeTimeout <= 0 {
		probeTimeout = config.DefaultCacheConnectTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	c := &RemoteBackedCache{
		logger:       logger,
		client:       client,
		breaker:      newCacheBreaker(logger),
		store:        newFallbackStore(),
		metrics:      &Metrics{},
		keyPrefix:    cfg.KeyPrefix,
		defaultTTL:   cfg.DefaultTTL.Duration(),
		probeTimeout: probeTimeout,
	}

	logger.Info("remote cache initialized",
		observability.String("keyPrefix", c.keyPrefix),
		observability.Duration("defaultTTL", c.defaultTTL),
		observability.Int("poolSize", cfg.PoolSize))

	return c, nil
}

// Get retrieves a value from the remote store, degrading to the
// fallback mirror when the remote is unreachable. A remote miss is
// authoritative: a stale mirror entry is not consulted.
func (c *RemoteBackedCache) Get(ctx context.Context, key string) (any, error) {
	ctx, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cache.backend", "remote"),
			attribute.String("cache.key", key),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		GetCacheMetrics().operationDuration.WithLabelValues(
			"remote", "get",
		).Observe(time.Since(start).Seconds())
	}()

	sk := storageKey(c.keyPrefix, key)

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, sk).Bytes()
	})

	if err == nil {
		c.fallbackMode.Store(false)
		data, _ := res.([]byte)
		value, derr := deserialize(data)
		if derr != nil {
			c.metrics.errors.Add(1)
			GetCacheMetrics().errorsTotal.WithLabelValues("remote", "get").Inc()
			span.SetStatus(codes.Error, derr.Error())
			span.RecordError(derr)
			return nil, derr
		}
		c.metrics.hits.Add(1)
		GetCacheMetrics().hitsTotal.WithLabelValues("remote").Inc()
		span.SetAttributes(
			attribute.Bool("cache.hit", true),
			attribute.Int("cache.value_size", len(data)),
		)
		return value, nil
	}

	if errors.Is(err, redis.Nil) {
		c.fallbackMode.Store(false)
		c.metrics.misses.Add(1)
		GetCacheMetrics().missesTotal.WithLabelValues("remote").Inc()
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, ErrCacheMiss
	}

	// Remote unreachable, serve the last-known value from the mirror.
	c.metrics.errors.Add(1)
	GetCacheMetrics().errorsTotal.WithLabelValues("remote", "get").Inc()
	c.fallbackMode.Store(true)
	span.RecordError(err)
	c.logger.Warn("remote get failed, trying fallback store",
		observability.String("key", key),
		observability.Error(err))

	if data, ok := c.store.get(sk); ok {
		value, derr := deserialize(data)
		if derr != nil {
			c.metrics.errors.Add(1)
			GetCacheMetrics().errorsTotal.WithLabelValues("fallback", "get").Inc()
			return nil, derr
		}
		c.metrics.fallbackOps.Add(1)
		GetCacheMetrics().fallbackOpsTotal.Inc()
		GetCacheMetrics().hitsTotal.WithLabelValues("fallback").Inc()
		span.SetAttributes(attribute.Bool("cache.fallback_hit", true))
		return value, nil
	}

	span.SetAttributes(attribute.Bool("cache.hit", false))
	return nil, ErrCacheMiss
}

// Set writes a value to the remote store and mirrors it locally. A
// serialization failure is a hard error; a remote failure degrades
// silently to the mirror and returns nil.
func (c *RemoteBackedCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	ctx, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Set",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cache.backend", "remote"),
			attribute.String("cache.key", key),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		GetCacheMetrics().operationDuration.WithLabelValues(
			"remote", "set",
		).Observe(time.Since(start).Seconds())
	}()

	data, err := serialize(value)
	if err != nil {
		c.metrics.errors.Add(1)
		GetCacheMetrics().errorsTotal.WithLabelValues("remote", "set").Inc()
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return err
	}

	if ttl == 0 {
		ttl = c.defaultTTL
	}

	sk := storageKey(c.keyPrefix, key)

	_, rerr := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, sk, data, ttl).Err()
	})

	if rerr == nil {
		c.fallbackMode.Store(false)
		c.metrics.sets.Add(1)
		c.store.set(sk, data)
		GetCacheMetrics().fallbackSizeGauge.Set(float64(c.store.size()))
		span.SetAttributes(attribute.Int("cache.value_size", len(data)))
		return nil
	}

	c.metrics.errors.Add(1)
	GetCacheMetrics().errorsTotal.WithLabelValues("remote", "set").Inc()
	c.fallbackMode.Store(true)
	span.RecordError(rerr)
	c.logger.Warn("remote set failed, writing to fallback store",
		observability.String("key", key),
		observability.Error(rerr))

	c.store.set(sk, data)
	c.metrics.fallbackOps.Add(1)
	GetCacheMetrics().fallbackOpsTotal.Inc()
	GetCacheMetrics().fallbackSizeGauge.Set(float64(c.store.size()))
	return nil
}

// Delete removes a key from both stores. Reports whether either store
// had the key. A remote failure does not prevent success when the
// mirror removal succeeded.
func (c *RemoteBackedCache) Delete(ctx context.Context, key string) bool {
	ctx, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Delete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cache.backend", "remote"),
			attribute.String("cache.key", key),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		GetCacheMetrics().operationDuration.WithLabelValues(
			"remote", "delete",
		).Observe(time.Since(start).Seconds())
	}()

	sk := storageKey(c.keyPrefix, key)
	removed := c.store.delete(sk)

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Del(ctx, sk).Result()
	})

	if err == nil {
		c.fallbackMode.Store(false)
		if n, _ := res.(int64); n > 0 {
			removed = true
		}
	} else {
		c.metrics.errors.Add(1)
		GetCacheMetrics().errorsTotal.WithLabelValues("remote", "delete").Inc()
		c.fallbackMode.Store(true)
		span.RecordError(err)
		c.logger.Warn("remote delete failed",
			observability.String("key", key),
			observability.Error(err))
	}

	if removed {
		c.metrics.deletes.Add(1)
	}
	GetCacheMetrics().fallbackSizeGauge.Set(float64(c.store.size()))
	span.SetAttributes(attribute.Bool("cache.deleted", removed))
	return removed
}

// ClearAll clears the mirror unconditionally, then removes every remote
// key under the namespace prefix using cursor-based iteration.
func (c *RemoteBackedCache) ClearAll(ctx context.Context) bool {
	ctx, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.ClearAll",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("cache.backend", "remote")),
	)
	defer span.End()

	dropped := c.store.clear()
	GetCacheMetrics().fallbackSizeGauge.Set(0)

	var deleted int64
	_, err := c.breaker.Execute(func() (interface{}, error) {
		pattern := c.keyPrefix + "*"
		var cursor uint64
		for {
			keys, next, serr := c.client.Scan(ctx, cursor, pattern, clearScanCount).Result()
			if serr != nil {
				return nil, serr
			}
			if len(keys) > 0 {
				n, derr := c.client.Del(ctx, keys...).Result()
				if derr != nil {
					return nil, derr
				}
				deleted += n
			}
			if next == 0 {
				return nil, nil
			}
			cursor = next
		}
	})

	if err != nil {
		c.metrics.errors.Add(1)
		GetCacheMetrics().errorsTotal.WithLabelValues("remote", "clear").Inc()
		c.fallbackMode.Store(true)
		span.RecordError(err)
		c.logger.Warn("remote clear failed",
			observability.Error(err))
		return false
	}

	c.fallbackMode.Store(false)
	c.logger.Info("cache cleared",
		observability.Int("fallbackEntries", dropped),
		observability.Int64("remoteKeys", deleted))
	span.SetAttributes(attribute.Int64("cache.keys_deleted", deleted))
	return true
}

// Ping probes remote store liveness with a firm timeout. Never returns
// an error; a failed probe flips the cache into fallback mode.
func (c *RemoteBackedCache) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		GetCacheMetrics().operationDuration.WithLabelValues(
			"remote", "ping",
		).Observe(time.Since(start).Seconds())
	}()

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Ping(ctx).Err()
	})
	if err != nil {
		c.metrics.errors.Add(1)
		GetCacheMetrics().errorsTotal.WithLabelValues("remote", "ping").Inc()
		c.fallbackMode.Store(true)
		return false
	}

	c.fallbackMode.Store(false)
	return true
}

// Stats returns a snapshot of cache state, including remote memory
// usage when the remote store is reachable.
func (c *RemoteBackedCache) Stats(ctx context.Context) Stats {
	s := Stats{
		Metrics:           c.metrics.Snapshot(),
		FallbackMode:      c.fallbackMode.Load(),
		FallbackStoreSize: c.store.size(),
	}
	s.RemoteAvailable = !s.FallbackMode

	if s.RemoteAvailable {
		ictx, cancel := context.WithTimeout(ctx, c.probeTimeout)
		defer cancel()
		if info, err := c.client.Info(ictx, "memory").Result(); err == nil {
			s.RemoteMemory = parseUsedMemory(info)
		}
	}

	return s
}

// parseUsedMemory extracts the human-readable memory figure from a
// Redis INFO memory response.
func parseUsedMemory(info string) string {
	for _, line := range strings.Split(info, "\n") {
		if v, ok := strings.CutPrefix(line, "used_memory_human:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// FallbackMode reports whether the cache currently serves from the
// local mirror.
func (c *RemoteBackedCache) FallbackMode() bool {
	return c.fallbackMode.Load()
}

// Close closes the Redis connection. Safe to call more than once.
func (c *RemoteBackedCache) Close() error {
	c.closeOnce.Do(func() {
		c.logger.Info("remote cache closing")
		c.closeErr = c.client.Close()
	})
	return c.closeErr
}
