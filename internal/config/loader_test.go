package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoad_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  name: moodapi
  environment: production
server:
  port: 9000
cache:
  url: redis://redis.internal:6379/1
  keyPrefix: "app:"
rateLimit:
  enabled: true
  requestsPerMinute: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "moodapi", cfg.App.Name)
	assert.Equal(t, "production", cfg.App.Environment)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "redis://redis.internal:6379/1", cfg.Cache.URL)
	assert.Equal(t, "app:", cfg.Cache.KeyPrefix)
	assert.Equal(t, 50, cfg.RateLimit.RequestsPerMinute)

	// Unset fields fall back to defaults.
	assert.Equal(t, DefaultCachePoolSize, cfg.Cache.PoolSize)
	assert.Equal(t, DefaultRequestsPerHour, cfg.RateLimit.RequestsPerHour)
	assert.Equal(t, time.Hour, cfg.Cache.DefaultTTL.Duration())
}

func TestLoadFromReader_EmptyUsesDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultCacheURL, cfg.Cache.URL)
	assert.Equal(t, DefaultCacheKeyPrefix, cfg.Cache.KeyPrefix)
	assert.Equal(t, DefaultRequestsPerMinute, cfg.RateLimit.RequestsPerMinute)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadFromReader_InvalidYAML(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("server: [not a map"))
	assert.Error(t, err)
}

func TestLoadFromReader_ValidationFailure(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "port out of range",
			content: "server:\n  port: 70000\n",
		},
		{
			name:    "unknown environment",
			content: "app:\n  environment: chaos\n",
		},
		{
			name:    "bad cache url scheme",
			content: "cache:\n  url: http://localhost:6379\n",
		},
		{
			name:    "hour quota below minute quota",
			content: "rateLimit:\n  enabled: true\n  requestsPerMinute: 500\n  requestsPerHour: 100\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromReader(strings.NewReader(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("MOODAPI_TEST_URL", "redis://env-host:6379/0")

	cfg, err := LoadFromReader(strings.NewReader("cache:\n  url: ${MOODAPI_TEST_URL}\n"))
	require.NoError(t, err)
	assert.Equal(t, "redis://env-host:6379/0", cfg.Cache.URL)
}

func TestSubstituteEnvVars_Default(t *testing.T) {
	content := substituteEnvVars("url: ${MOODAPI_UNSET_VAR:-redis://fallback:6379}")
	assert.Equal(t, "url: redis://fallback:6379", content)
}

func TestSubstituteEnvVars_EscapedDollar(t *testing.T) {
	content := substituteEnvVars("password: $${literal}")
	assert.Equal(t, "password: ${literal}", content)
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader("cache:\n  defaultTTL: 90m\n  connectTimeout: 2500ms\n"))
	require.NoError(t, err)

	assert.Equal(t, 90*time.Minute, cfg.Cache.DefaultTTL.Duration())
	assert.Equal(t, 2500*time.Millisecond, cfg.Cache.ConnectTimeout.Duration())
}

func TestDuration_BareSeconds(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader("cache:\n  defaultTTL: 3600\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Cache.DefaultTTL.Duration())
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
}
