// Package main is the entry point for the moodapi service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vyrodovalexey/moodapi/internal/cache"
	"github.com/vyrodovalexey/moodapi/internal/config"
	"github.com/vyrodovalexey/moodapi/internal/health"
	"github.com/vyrodovalexey/moodapi/internal/middleware"
	"github.com/vyrodovalexey/moodapi/internal/observability"
	"github.com/vyrodovalexey/moodapi/internal/ratelimit"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	cfg := loadConfig(flags.configPath, logger)

	run(cfg, flags.configPath, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("MOODAPI_CONFIG_PATH", "configs/moodapi.yaml"),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("MOODAPI_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("MOODAPI_LOG_FORMAT", "json"),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("moodapi version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes the logger.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// loadConfig loads and validates the configuration, falling back to
// defaults when the file does not exist.
func loadConfig(configPath string, logger observability.Logger) *config.Config {
	logger.Info("starting moodapi",
		observability.String("version", version),
		observability.String("config", configPath))

	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("config file not found, using defaults",
				observability.String("path", configPath))
			return config.Default()
		}
		logger.Fatal("failed to load configuration", observability.Error(err))
	}
	return cfg
}

// run wires the components together and serves until shutdown.
func run(cfg *config.Config, configPath string, logger observability.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cacheSvc := cache.GetService(cfg.Cache, logger)
	defer cache.ResetService()

	limiter := ratelimit.New(cfg.RateLimit, ratelimit.WithLogger(logger))
	defer limiter.Close()

	registry := prometheus.NewRegistry()
	cache.GetCacheMetrics().MustRegister(registry)
	cache.GetCacheMetrics().Init()
	ratelimit.GetRateLimitMetrics().MustRegister(registry)
	ratelimit.GetRateLimitMetrics().Init()

	checker := health.NewChecker(version)
	checker.RegisterCheck("cache", health.CacheCheck(cacheSvc))
	checker.RegisterCheck("ratelimit", health.RateLimiterCheck(limiter))

	engine := buildEngine(cfg, logger, cacheSvc, limiter, checker, registry)

	watcher := startConfigWatcher(configPath, limiter, logger)
	if watcher != nil {
		defer func() { _ = watcher.Stop() }()
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
	}

	go func() {
		logger.Info("http server listening",
			observability.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", observability.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", observability.Error(err))
	}
	logger.Info("moodapi stopped")
}

// buildEngine assembles the gin engine with the middleware chain and
// routes. Rate limiting runs before any cache or handler work; health
// and metrics endpoints are exempt.
func buildEngine(
	cfg *config.Config,
	logger observability.Logger,
	cacheSvc cache.Service,
	limiter *ratelimit.Limiter,
	checker *health.Checker,
	registry *prometheus.Registry,
) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(logger))

	skipPaths := []string{"/health", "/health/live", "/health/ready", "/metrics"}
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		engine.Use(middleware.BurstGuard(float64(cfg.RateLimit.RequestsPerMinute)/60.0, cfg.RateLimit.BurstSize))
	}
	engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Limiter:   limiter,
		Logger:    logger,
		SkipPaths: skipPaths,
	}))

	engine.GET("/health", checker.HealthHandler)
	engine.GET("/health/live", checker.LivenessHandler)
	engine.GET("/health/ready", checker.ReadinessHandler)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	admin := engine.Group("/admin")
	{
		admin.GET("/cache/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, cacheSvc.Stats(c.Request.Context()))
		})
		admin.POST("/cache/clear", func(c *gin.Context) {
			ok := cacheSvc.ClearAll(c.Request.Context())
			c.JSON(http.StatusOK, gin.H{"cleared": ok})
		})
		admin.GET("/ratelimit/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, limiter.Stats())
		})
		admin.POST("/ratelimit/clear", func(c *gin.Context) {
			limiter.ClearAll()
			c.JSON(http.StatusOK, gin.H{"cleared": true})
		})
	}

	return engine
}

// startConfigWatcher hot-reloads rate limiter settings on config file
// changes. A missing config file disables watching.
func startConfigWatcher(configPath string, limiter *ratelimit.Limiter, logger observability.Logger) *config.Watcher {
	if _, err := os.Stat(configPath); err != nil {
		return nil
	}

	watcher, err := config.NewWatcher(configPath, func(newCfg *config.Config) {
		if newCfg.RateLimit == nil {
			return
		}
		limiter.SetEnabled(newCfg.RateLimit.Enabled)
		limiter.UpdateLimits(newCfg.RateLimit.RequestsPerMinute, newCfg.RateLimit.RequestsPerHour)
		logger.Info("rate limiter settings reloaded",
			observability.Int("requestsPerMinute", newCfg.RateLimit.RequestsPerMinute),
			observability.Int("requestsPerHour", newCfg.RateLimit.RequestsPerHour),
			observability.Bool("enabled", newCfg.RateLimit.Enabled))
	}, config.WithWatcherLogger(logger))
	if err != nil {
		logger.Warn("config watcher unavailable", observability.Error(err))
		return nil
	}

	if err := watcher.Start(context.Background()); err != nil {
		logger.Warn("config watcher failed to start", observability.Error(err))
		return nil
	}
	return watcher
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
