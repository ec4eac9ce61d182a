// Package telemetry exposes Prometheus metrics for the proxy.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modularwp/media-import/pkg/sources/types"
)

const namespace = "media_import"

type Metrics struct {
	registry *prometheus.Registry

	APIRequestsTotal     *prometheus.CounterVec
	APIRequestDuration   *prometheus.HistogramVec
	APIActiveConnections prometheus.Gauge
	SearchesTotal        *prometheus.CounterVec
	SearchDuration       *prometheus.HistogramVec
	UpstreamStatusCode   *prometheus.CounterVec
	DownloadedBytes      prometheus.Counter
}

// NewMetrics creates the metrics on a private registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		APIRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "endpoint", "status"}),
		APIRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method, route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint", "status"}),
		APIActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "active_connections",
			Help:      "Requests currently being served.",
		}),
		SearchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "total",
			Help:      "Source searches by outcome.",
		}, []string{"source", "outcome"}),
		SearchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Source search latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		UpstreamStatusCode: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "status_code",
			Help:      "Responses from third-party APIs by host, method and status.",
		}, []string{"host", "method", "code"}),
		DownloadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "download",
			Name:      "bytes_total",
			Help:      "Bytes written by imports.",
		}),
	}

	m.registry.MustRegister(m.Collectors()...)
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Collectors returns all prometheus metrics as collectors for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.APIRequestsTotal,
		m.APIRequestDuration,
		m.APIActiveConnections,
		m.SearchesTotal,
		m.SearchDuration,
		m.UpstreamStatusCode,
		m.DownloadedBytes,
	}
}

// ObserveSearch records one dispatched search. The outcome is "ok" or the error class.
func (m *Metrics) ObserveSearch(sourceID string, err error, elapsed time.Duration) {
	m.SearchesTotal.WithLabelValues(sourceID, types.Kind(err)).Inc()
	m.SearchDuration.WithLabelValues(sourceID).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveDownload(size int64) {
	m.DownloadedBytes.Add(float64(size))
}

// Handler exposes metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
