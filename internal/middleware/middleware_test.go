package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/moodapi/internal/config"
	"github.com/vyrodovalexey/moodapi/internal/observability"
	"github.com/vyrodovalexey/moodapi/internal/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRateLimitedEngine(t *testing.T, cfg *config.RateLimitConfig, skipPaths ...string) *gin.Engine {
	t.Helper()

	limiter := ratelimit.New(cfg)
	t.Cleanup(limiter.Close)

	engine := gin.New()
	engine.Use(RateLimit(RateLimitConfig{
		Limiter:   limiter,
		Logger:    observability.NopLogger(),
		SkipPaths: skipPaths,
	}))
	engine.GET("/mood", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return engine
}

func doRequest(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", path, nil)
	r.RemoteAddr = "192.0.2.1:55000"
	engine.ServeHTTP(w, r)
	return w
}

func TestRateLimit_AllowsWithinQuota(t *testing.T) {
	engine := newRateLimitedEngine(t, &config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 5,
		RequestsPerHour:   50,
	})

	w := doRequest(engine, "/mood")
	assert.Equal(t, http.StatusOK, w.Code)

	// Informational headers ride along on the success path too. The
	// remaining count reserves room for the request being evaluated,
	// so the first response already reports one slot consumed.
	assert.Equal(t, "5", w.Header().Get(ratelimit.HeaderLimitMinute))
	assert.Equal(t, "4", w.Header().Get(ratelimit.HeaderRemainingMinute))
	assert.NotEmpty(t, w.Header().Get(ratelimit.HeaderResetMinute))

	w = doRequest(engine, "/mood")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", w.Header().Get(ratelimit.HeaderRemainingMinute))
}

func TestRateLimit_DeniesOverQuota(t *testing.T) {
	engine := newRateLimitedEngine(t, &config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 2,
		RequestsPerHour:   50,
	})

	require.Equal(t, http.StatusOK, doRequest(engine, "/mood").Code)
	require.Equal(t, http.StatusOK, doRequest(engine, "/mood").Code)

	w := doRequest(engine, "/mood")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "minute", w.Header().Get(ratelimit.HeaderExceeded))
	assert.Equal(t, "60", w.Header().Get(ratelimit.HeaderRetryAfter))
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")
}

func TestRateLimit_SkipPaths(t *testing.T) {
	engine := newRateLimitedEngine(t, &config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		RequestsPerHour:   10,
	}, "/health")

	for i := 0; i < 10; i++ {
		w := doRequest(engine, "/health")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get(ratelimit.HeaderLimitMinute))
	}
}

func TestRateLimit_DisabledLimiter(t *testing.T) {
	engine := newRateLimitedEngine(t, &config.RateLimitConfig{
		Enabled:           false,
		RequestsPerMinute: 1,
		RequestsPerHour:   1,
	})

	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, doRequest(engine, "/mood").Code)
	}
}

func TestBurstGuard(t *testing.T) {
	engine := gin.New()
	// Zero refill rate: only the initial bucket is available.
	engine.Use(BurstGuard(0, 3))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	var ok, rejected int
	for i := 0; i < 6; i++ {
		w := doRequest(engine, "/")
		if w.Code == http.StatusOK {
			ok++
		} else {
			rejected = w.Code
		}
	}
	assert.Equal(t, 3, ok)
	assert.Equal(t, http.StatusTooManyRequests, rejected)
}

func TestBurstGuard_DisabledWhenNonPositive(t *testing.T) {
	engine := gin.New()
	engine.Use(BurstGuard(0, 0))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, doRequest(engine, "/").Code)
	}
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())

	var seen string
	engine.GET("/", func(c *gin.Context) {
		seen = observability.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := doRequest(engine, "/")
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.Equal(t, w.Header().Get(HeaderRequestID), seen)
}

func TestRequestID_ReusesIncoming(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderRequestID, "fixed-id")
	engine.ServeHTTP(w, r)

	assert.Equal(t, "fixed-id", w.Header().Get(HeaderRequestID))
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestLogger(observability.NopLogger()))
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := doRequest(engine, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}
