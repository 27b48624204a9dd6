package cache

import (
	"context"
	"time"

	"github.com/vyrodovalexey/moodapi/internal/config"
	"github.com/vyrodovalexey/moodapi/internal/observability"
)

// FallbackOnlyCache serves exclusively from the local fallback store.
// It is used when fallback mode is forced or when the remote store is
// unreachable at construction time.
type FallbackOnlyCache struct {
	logger     observability.Logger
	store      *fallbackStore
	metrics    *Metrics
	keyPrefix  string
	defaultTTL time.Duration
}

func newFallbackOnlyCache(cfg *config.CacheConfig, logger observability.Logger) *FallbackOnlyCache {
	return &FallbackOnlyCache{
		logger:     logger,
		store:      newFallbackStore(),
		metrics:    &Metrics{},
		keyPrefix:  cfg.KeyPrefix,
		defaultTTL: cfg.DefaultTTL.Duration(),
	}
}

// Get retrieves a value from the fallback store.
func (c *FallbackOnlyCache) Get(_ context.Context, key string) (any, error) {
	start := time.Now()
	defer func() {
		GetCacheMetrics().operationDuration.WithLabelValues(
			"fallback", "get",
		).Observe(time.Since(start).Seconds())
	}()

	data, ok := c.store.get(storageKey(c.keyPrefix, key))
	if !ok {
		c.metrics.misses.Add(1)
		GetCacheMetrics().missesTotal.WithLabelValues("fallback").Inc()
		return nil, ErrCacheMiss
	}

	value, err := deserialize(data)
	if err != nil {
		c.metrics.errors.Add(1)
		GetCacheMetrics().errorsTotal.WithLabelValues("fallback", "get").Inc()
		return nil, err
	}

	c.metrics.hits.Add(1)
	GetCacheMetrics().hitsTotal.WithLabelValues("fallback").Inc()
	return value, nil
}

// Set stores a value in the fallback store. The TTL is accepted for
// interface compatibility; fallback entries live until evicted.
func (c *FallbackOnlyCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	start := time.Now()
	defer func() {
		GetCacheMetrics().operationDuration.WithLabelValues(
			"fallback", "set",
		).Observe(time.Since(start).Seconds())
	}()

	data, err := serialize(value)
	if err != nil {
		c.metrics.errors.Add(1)
		GetCacheMetrics().errorsTotal.WithLabelValues("fallback", "set").Inc()
		return err
	}

	c.store.set(storageKey(c.keyPrefix, key), data)
	c.metrics.sets.Add(1)
	c.metrics.fallbackOps.Add(1)
	GetCacheMetrics().fallbackOpsTotal.Inc()
	GetCacheMetrics().fallbackSizeGauge.Set(float64(c.store.size()))
	return nil
}

// Delete removes a value from the fallback store.
func (c *FallbackOnlyCache) Delete(_ context.Context, key string) bool {
	removed := c.store.delete(storageKey(c.keyPrefix, key))
	if removed {
		c.metrics.deletes.Add(1)
	}
	GetCacheMetrics().fallbackSizeGauge.Set(float64(c.store.size()))
	return removed
}

// ClearAll removes every entry from the fallback store.
func (c *FallbackOnlyCache) ClearAll(_ context.Context) bool {
	n := c.store.clear()
	GetCacheMetrics().fallbackSizeGauge.Set(0)
	c.logger.Info("fallback store cleared",
		observability.Int("entries", n))
	return true
}

// Ping always reports false since there is no remote store.
func (c *FallbackOnlyCache) Ping(_ context.Context) bool {
	return false
}

// Stats returns a snapshot of cache state.
func (c *FallbackOnlyCache) Stats(_ context.Context) Stats {
	return Stats{
		Metrics:           c.metrics.Snapshot(),
		FallbackMode:      true,
		FallbackStoreSize: c.store.size(),
		RemoteAvailable:   false,
	}
}

// FallbackMode always reports true.
func (c *FallbackOnlyCache) FallbackMode() bool {
	return true
}

// Close is a no-op since there is no remote connection.
func (c *FallbackOnlyCache) Close() error {
	return nil
}
