package console

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jimyag/cloudconsole/internal/console/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, backendURL string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Address = "127.0.0.1:0"
	cfg.DataDir = t.TempDir()
	cfg.Backend.URL = backendURL
	return cfg
}

func TestNew(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(backend.Close)

	cfg := testConfig(t, backend.URL)
	server, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "Console Server", server.Name())
	assert.FileExists(t, filepath.Join(cfg.DataDir, "console.db"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))
	// 重复关闭不会再次释放资源
	require.NoError(t, server.Shutdown(ctx))
}

func TestNew_InvalidConfig(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(cfg *config.Config)
	}{
		{
			name:   "invalid log level",
			modify: func(cfg *config.Config) { cfg.LogLevel = "loud" },
		},
		{
			name:   "missing backend url",
			modify: func(cfg *config.Config) { cfg.Backend.URL = "" },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t, "http://127.0.0.1:1")
			tc.modify(cfg)
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}
