package config

import (
	"errors"
	"fmt"
	"time"
)

// Default server configuration constants.
const (
	DefaultServerHost            = "0.0.0.0"
	DefaultServerPort            = 8000
	DefaultServerReadTimeout     = 30 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Second
	DefaultServerShutdownTimeout = 10 * time.Second
)

// Config is the root configuration for the service.
type Config struct {
	// App contains application metadata.
	App AppConfig `yaml:"app" json:"app"`

	// Log contains logging configuration.
	Log LogConfig `yaml:"log" json:"log"`

	// Server contains HTTP server configuration.
	Server ServerConfig `yaml:"server" json:"server"`

	// Cache contains resilient cache configuration.
	Cache *CacheConfig `yaml:"cache,omitempty" json:"cache,omitempty"`

	// RateLimit contains rate limiter configuration.
	RateLimit *RateLimitConfig `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty"`
}

// AppConfig contains application metadata.
type AppConfig struct {
	// Name is the application name.
	Name string `yaml:"name" json:"name"`

	// Version is the application version.
	Version string `yaml:"version" json:"version"`

	// Environment is one of "development", "staging", or "production".
	Environment string `yaml:"environment" json:"environment"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level" json:"level"`

	// Format is the log output format: "json" or "console".
	Format string `yaml:"format" json:"format"`

	// Output is the log destination: "stdout" or "stderr".
	Output string `yaml:"output" json:"output"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Host is the listen address.
	Host string `yaml:"host" json:"host"`

	// Port is the listen port.
	Port int `yaml:"port" json:"port"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`

	// ShutdownTimeout bounds graceful shutdown at process exit.
	ShutdownTimeout Duration `yaml:"shutdownTimeout,omitempty" json:"shutdownTimeout,omitempty"`
}

// Default returns the full default configuration.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:        "moodapi",
			Version:     "dev",
			Environment: "development",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Server: ServerConfig{
			Host:            DefaultServerHost,
			Port:            DefaultServerPort,
			ReadTimeout:     Duration(DefaultServerReadTimeout),
			WriteTimeout:    Duration(DefaultServerWriteTimeout),
			ShutdownTimeout: Duration(DefaultServerShutdownTimeout),
		},
		Cache:     DefaultCacheConfig(),
		RateLimit: DefaultRateLimitConfig(),
	}
}

// applyDefaults fills zero-valued fields with defaults.
func (c *Config) applyDefaults() {
	def := Default()

	if c.App.Name == "" {
		c.App.Name = def.App.Name
	}
	if c.App.Version == "" {
		c.App.Version = def.App.Version
	}
	if c.App.Environment == "" {
		c.App.Environment = def.App.Environment
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Log.Output == "" {
		c.Log.Output = def.Log.Output
	}
	if c.Server.Host == "" {
		c.Server.Host = def.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = def.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = def.Server.WriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if c.Cache == nil {
		c.Cache = def.Cache
	} else {
		c.Cache.applyDefaults()
	}
	if c.RateLimit == nil {
		c.RateLimit = def.RateLimit
	} else {
		c.RateLimit.applyDefaults()
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("unknown environment %q", c.App.Environment)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rateLimit: %w", err)
	}
	return nil
}

// ErrInvalidConfig indicates a structurally invalid configuration.
var ErrInvalidConfig = errors.New("invalid configuration")
