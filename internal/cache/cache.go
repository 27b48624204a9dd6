package cache

import (
	"context"
	"errors"
	"time"

	"github.com/vyrodovalexey/moodapi/internal/config"
	"github.com/vyrodovalexey/moodapi/internal/observability"
)

// Common cache errors.
var (
	// ErrCacheMiss indicates that the key was not found in the cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrSerialization indicates that a value could not be serialized.
	ErrSerialization = errors.New("cache serialization failed")

	// ErrDeserialization indicates that cached bytes could not be decoded.
	ErrDeserialization = errors.New("cache deserialization failed")

	// ErrConnectionFailed indicates that the remote store connection failed.
	ErrConnectionFailed = errors.New("cache connection failed")
)

// Service is the main interface for the resilient cache.
type Service interface {
	// Get retrieves a value by its application-level key.
	// Returns ErrCacheMiss if the key is not found. Remote store
	// failures are absorbed by the fallback path and never returned;
	// a deserialization failure is returned as a hard error.
	Get(ctx context.Context, key string) (any, error)

	// Set stores a value with the given TTL. A TTL of 0 applies the
	// configured default. A serialization failure is returned to the
	// caller; remote store failures degrade silently to the fallback
	// store and return nil.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes a value from both stores. Reports whether either
	// store had the key.
	Delete(ctx context.Context, key string) bool

	// ClearAll removes every entry under the cache's namespace prefix.
	// Reports whether the operation fully completed.
	ClearAll(ctx context.Context) bool

	// Ping probes remote store liveness. Always false in fallback mode.
	Ping(ctx context.Context) bool

	// Stats returns a point-in-time snapshot of cache state.
	Stats(ctx context.Context) Stats

	// FallbackMode reports whether the cache currently serves from
	// local memory only.
	FallbackMode() bool

	// Close releases the remote store connection.
	Close() error
}

// Stats contains a point-in-time snapshot of cache state.
type Stats struct {
	// Metrics is a snapshot of the operation counters.
	Metrics MetricsSnapshot `json:"metrics"`

	// FallbackMode reports whether the cache serves from local memory.
	FallbackMode bool `json:"fallbackMode"`

	// FallbackStoreSize is the current number of fallback entries.
	FallbackStoreSize int `json:"fallbackStoreSize"`

	// RemoteAvailable reports whether the remote store answered the
	// last liveness probe.
	RemoteAvailable bool `json:"remoteAvailable"`

	// RemoteMemory is the remote store's reported memory usage, empty
	// when unavailable.
	RemoteMemory string `json:"remoteMemory,omitempty"`
}

// New creates a cache service based on the configuration.
//
// When the remote store cannot be reached at construction time the
// returned service is fallback-only rather than an error. Startup never
// hard-fails due to cache unavailability.
func New(cfg *config.CacheConfig, logger observability.Logger) (Service, error) {
	if cfg == nil {
		cfg = config.DefaultCacheConfig()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	if cfg.ForceFallback {
		logger.Info("cache starting in forced fallback mode")
		return newFallbackOnlyCache(cfg, logger), nil
	}

	remote, err := newRemoteBackedCache(cfg, logger)
	if err != nil {
		logger.Warn("remote cache unavailable, starting in fallback mode",
			observability.Error(err))
		return newFallbackOnlyCache(cfg, logger), nil
	}

	return remote, nil
}
