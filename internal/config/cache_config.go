package config

import (
	"fmt"
	"strings"
	"time"
)

// Default cache configuration constants.
const (
	// DefaultCacheURL is the default Redis connection URL.
	DefaultCacheURL = "redis://localhost:6379/0"

	// DefaultCachePoolSize is the default connection pool size.
	DefaultCachePoolSize = 20

	// DefaultCacheConnectTimeout is the default dial timeout.
	DefaultCacheConnectTimeout = 5 * time.Second

	// DefaultCacheSocketTimeout is the default read/write timeout.
	DefaultCacheSocketTimeout = 5 * time.Second

	// DefaultCacheMaxRetries is the default number of client-level retries.
	DefaultCacheMaxRetries = 3

	// DefaultCacheHealthCheckInterval is the default liveness probe interval.
	DefaultCacheHealthCheckInterval = 30 * time.Second

	// DefaultCacheTTL is the default time-to-live for cached entries.
	DefaultCacheTTL = time.Hour

	// DefaultCacheKeyPrefix is the namespace prefix for all storage keys.
	DefaultCacheKeyPrefix = "moodapi:"
)

// CacheConfig contains configuration for the resilient cache.
type CacheConfig struct {
	// URL is the Redis connection URL.
	// Format: redis://[user:password@]host:port[/db]
	URL string `yaml:"url" json:"url"`

	// PoolSize is the maximum number of connections in the pool.
	PoolSize int `yaml:"poolSize,omitempty" json:"poolSize,omitempty"`

	// ConnectTimeout is the timeout for establishing connections.
	ConnectTimeout Duration `yaml:"connectTimeout,omitempty" json:"connectTimeout,omitempty"`

	// ReadTimeout is the timeout for read operations.
	ReadTimeout Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`

	// WriteTimeout is the timeout for write operations.
	WriteTimeout Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`

	// MaxRetries is the number of retries performed by the Redis client
	// itself, with exponential backoff between attempts.
	MaxRetries int `yaml:"maxRetries,omitempty" json:"maxRetries,omitempty"`

	// RetryOnTimeout retries commands that failed with a timeout.
	RetryOnTimeout bool `yaml:"retryOnTimeout,omitempty" json:"retryOnTimeout,omitempty"`

	// HealthCheckInterval is how often the periodic liveness probe runs.
	HealthCheckInterval Duration `yaml:"healthCheckInterval,omitempty" json:"healthCheckInterval,omitempty"`

	// DefaultTTL is applied to Set calls that do not specify a TTL.
	DefaultTTL Duration `yaml:"defaultTTL,omitempty" json:"defaultTTL,omitempty"`

	// KeyPrefix namespaces every storage key.
	KeyPrefix string `yaml:"keyPrefix,omitempty" json:"keyPrefix,omitempty"`

	// ForceFallback skips the remote store entirely and serves from
	// local memory only. Used by tests and degraded-mode operation.
	ForceFallback bool `yaml:"forceFallback,omitempty" json:"forceFallback,omitempty"`
}

// DefaultCacheConfig returns the default cache configuration.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		URL:                 DefaultCacheURL,
		PoolSize:            DefaultCachePoolSize,
		ConnectTimeout:      Duration(DefaultCacheConnectTimeout),
		ReadTimeout:         Duration(DefaultCacheSocketTimeout),
		WriteTimeout:        Duration(DefaultCacheSocketTimeout),
		MaxRetries:          DefaultCacheMaxRetries,
		RetryOnTimeout:      true,
		HealthCheckInterval: Duration(DefaultCacheHealthCheckInterval),
		DefaultTTL:          Duration(DefaultCacheTTL),
		KeyPrefix:           DefaultCacheKeyPrefix,
	}
}

func (c *CacheConfig) applyDefaults() {
	def := DefaultCacheConfig()

	if c.URL == "" {
		c.URL = def.URL
	}
	if c.PoolSize == 0 {
		c.PoolSize = def.PoolSize
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.HealthCheckInterval == 0 {
		c.HealthCheckInterval = def.HealthCheckInterval
	}
	if c.DefaultTTL == 0 {
		c.DefaultTTL = def.DefaultTTL
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = def.KeyPrefix
	}
}

// Validate checks the cache configuration for errors.
func (c *CacheConfig) Validate() error {
	if c == nil {
		return nil
	}
	if !strings.HasPrefix(c.URL, "redis://") && !strings.HasPrefix(c.URL, "rediss://") {
		return fmt.Errorf("%w: cache URL must start with redis:// or rediss://", ErrInvalidConfig)
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("%w: poolSize must not be negative", ErrInvalidConfig)
	}
	if c.DefaultTTL < 0 {
		return fmt.Errorf("%w: defaultTTL must not be negative", ErrInvalidConfig)
	}
	return nil
}
