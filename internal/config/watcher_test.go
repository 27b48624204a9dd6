package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestWatcher_StartLoadsInitialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, "server:\n  port: 9100\n")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer func() { require.NoError(t, w.Stop()) }()

	cfg := w.LastConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestWatcher_StartFailsOnMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	assert.Error(t, w.Start(context.Background()))
}

func TestWatcher_ReloadOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, "server:\n  port: 9100\n")

	var reloaded atomic.Int32
	var gotPort atomic.Int32
	w, err := NewWatcher(path, func(cfg *Config) {
		gotPort.Store(int32(cfg.Server.Port))
		reloaded.Add(1)
	}, WithDebounceDelay(20*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer func() { require.NoError(t, w.Stop()) }()

	writeConfigFile(t, path, "server:\n  port: 9200\n")

	require.Eventually(t, func() bool {
		return reloaded.Load() > 0
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(9200), gotPort.Load())
	assert.Equal(t, 9200, w.LastConfig().Server.Port)
}

func TestWatcher_InvalidReloadKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, "server:\n  port: 9100\n")

	var failures atomic.Int32
	w, err := NewWatcher(path, func(*Config) {
		t.Error("callback must not fire for invalid config")
	},
		WithDebounceDelay(20*time.Millisecond),
		WithErrorCallback(func(error) { failures.Add(1) }),
	)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer func() { require.NoError(t, w.Stop()) }()

	writeConfigFile(t, path, "server:\n  port: 99999\n")

	require.Eventually(t, func() bool {
		return failures.Load() > 0
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, 9100, w.LastConfig().Server.Port)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, "server:\n  port: 9100\n")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
