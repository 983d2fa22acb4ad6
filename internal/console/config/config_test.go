package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 这些测试修改环境变量，不能并行
func TestNew_Defaults(t *testing.T) {
	t.Setenv("CONSOLE_CONFIG", "")
	t.Setenv("CONSOLE_BACKEND_URL", "http://backend:8000/api")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:7780", cfg.Address)
	assert.Equal(t, 5*time.Minute, cfg.Backend.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Sync.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.Sync.HeartbeatInterval)
	assert.Equal(t, 5, cfg.Sync.MaxReconnectAttempts)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL.Flavors)
	assert.Equal(t, 200, cfg.NotificationCapacity)
	assert.Equal(t, "console.db", filepath.Base(cfg.DatabasePath()))
}

func TestNew_RequiresBackend(t *testing.T) {
	t.Setenv("CONSOLE_CONFIG", "")
	t.Setenv("CONSOLE_BACKEND_URL", "")

	_, err := New()
	assert.Error(t, err)
}

func TestNew_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yaml")
	content := `
address: 127.0.0.1:9000
backend:
  url: http://from-file
  timeout: 2m
sync:
  push_url: ws://push/ws
  poll_interval: 10s
  max_reconnect_attempts: 8
cache_ttl:
  images: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONSOLE_CONFIG", path)
	t.Setenv("CONSOLE_BACKEND_URL", "")
	t.Setenv("CONSOLE_POLL_INTERVAL", "3s")
	t.Setenv("CONSOLE_NATS_URL", "nats://127.0.0.1:4222")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Address)
	assert.Equal(t, "http://from-file", cfg.Backend.URL)
	assert.Equal(t, 2*time.Minute, cfg.Backend.Timeout)
	assert.Equal(t, "ws://push/ws", cfg.Sync.PushURL)
	assert.Equal(t, 3*time.Second, cfg.Sync.PollInterval, "env overrides file")
	assert.Equal(t, 8, cfg.Sync.MaxReconnectAttempts)
	assert.Equal(t, time.Minute, cfg.CacheTTL.Images)
	// 文件中没有出现的字段保持默认
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL.Flavors)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATSURL)
}

func TestNew_InvalidValues(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"bad duration", map[string]string{"CONSOLE_POLL_INTERVAL": "soon"}},
		{"bad attempts", map[string]string{"CONSOLE_MAX_RECONNECT_ATTEMPTS": "many"}},
		{"zero poll", map[string]string{"CONSOLE_POLL_INTERVAL": "0s"}},
		{"missing file", map[string]string{"CONSOLE_CONFIG": "/nonexistent/console.yaml"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("CONSOLE_CONFIG", "")
			t.Setenv("CONSOLE_BACKEND_URL", "http://backend")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := New()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONSOLE_BACKEND_URL", "http://backend")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://backend", cfg.Backend.URL)
}
