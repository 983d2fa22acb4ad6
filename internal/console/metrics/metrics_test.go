package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCommand("start", "ok", 0.1)
		m.LockRejected("stop")
		m.CacheFallback("flavors")
		m.CacheFetched("flavors", false)
		m.PushReconnect()
		m.PushConnected(true)
		m.SyncRefreshed("poll", true)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveCommand("stop", "ok", 0.2)
	m.ObserveCommand("stop", "ok", 0.3)
	m.ObserveCommand("start", "conflict", 0.1)
	m.LockRejected("stop")
	m.CacheFallback("images")
	m.PushConnected(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commandsTotal.WithLabelValues("stop", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commandsTotal.WithLabelValues("start", "conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lockRejections.WithLabelValues("stop")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheFallbacks.WithLabelValues("images")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pushConnected))
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := New()
	m.LockRejected("delete")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `console_lock_rejections_total{operation="delete"} 1`)
}
