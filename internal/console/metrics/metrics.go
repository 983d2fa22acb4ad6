// Package metrics 定义控制台的 Prometheus 指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 控制台指标集合，所有方法对 nil 接收者安全
type Metrics struct {
	registry *prometheus.Registry

	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	lockRejections  *prometheus.CounterVec
	cacheFallbacks  *prometheus.CounterVec
	cacheFetches    *prometheus.CounterVec
	pushReconnects  prometheus.Counter
	pushConnected   prometheus.Gauge
	syncRefreshes   *prometheus.CounterVec
}

// New 在独立的 registry 上创建指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		commandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_commands_total",
				Help: "Total number of VM commands by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		commandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_command_duration_seconds",
				Help:    "Duration of VM commands sent to the backend",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		lockRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_lock_rejections_total",
				Help: "Commands rejected locally because another operation was in progress",
			},
			[]string{"operation"},
		),
		cacheFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_cache_fallbacks_total",
				Help: "Catalog fetch failures served from a previously cached entry",
			},
			[]string{"kind"},
		),
		cacheFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_cache_fetches_total",
				Help: "Catalog fetches sent to the backend",
			},
			[]string{"kind", "result"},
		),
		pushReconnects: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "console_push_reconnects_total",
				Help: "Reconnect attempts on the push channel",
			},
		),
		pushConnected: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "console_push_connected",
				Help: "1 while the push channel is connected",
			},
		),
		syncRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_sync_refreshes_total",
				Help: "VM overview refreshes by trigger and result",
			},
			[]string{"trigger", "result"},
		),
	}
}

// Handler 返回 /metrics 的 HTTP handler
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回底层 registry，测试中用于读取指标
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveCommand(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(operation, outcome).Inc()
	m.commandDuration.WithLabelValues(operation).Observe(seconds)
}

func (m *Metrics) LockRejected(operation string) {
	if m == nil {
		return
	}
	m.lockRejections.WithLabelValues(operation).Inc()
}

func (m *Metrics) CacheFetched(kind string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.cacheFetches.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) CacheFallback(kind string) {
	if m == nil {
		return
	}
	m.cacheFallbacks.WithLabelValues(kind).Inc()
}

func (m *Metrics) PushReconnect() {
	if m == nil {
		return
	}
	m.pushReconnects.Inc()
}

func (m *Metrics) PushConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.pushConnected.Set(1)
	} else {
		m.pushConnected.Set(0)
	}
}

func (m *Metrics) SyncRefreshed(trigger string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.syncRefreshes.WithLabelValues(trigger, result).Inc()
}
