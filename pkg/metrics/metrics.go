// Package metrics defines the Prometheus collectors for the type-ahead
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	SearchesTotal     *prometheus.CounterVec
	SearchLatency     *prometheus.HistogramVec
	SearchResultCount prometheus.Histogram

	RebuildsTotal      *prometheus.CounterVec
	BuildDuration      prometheus.Histogram
	IndexNodes         prometheus.Gauge
	IndexTerminals     prometheus.Gauge
	RecordsSkipped     prometheus.Gauge
	InvalidationsTotal *prometheus.CounterVec

	ResultCacheHits   prometheus.Counter
	ResultCacheMisses prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "typeahead_searches_total",
				Help: "Total type-ahead searches by outcome (ok, empty, short_prefix, error).",
			},
			[]string{"outcome"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "typeahead_search_latency_seconds",
				Help:    "Type-ahead search latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
			[]string{"cache_status"},
		),
		SearchResultCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "typeahead_search_results",
				Help:    "Number of results returned per search.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		RebuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "typeahead_index_rebuilds_total",
				Help: "Total index rebuilds by status (ok, failed, degraded).",
			},
			[]string{"status"},
		),
		BuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "typeahead_index_build_duration_seconds",
				Help:    "Wall-clock duration of index builds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		IndexNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "typeahead_index_nodes",
				Help: "Trie node count of the current snapshot.",
			},
		),
		IndexTerminals: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "typeahead_index_terminals",
				Help: "Terminal node count of the current snapshot.",
			},
		),
		RecordsSkipped: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "typeahead_index_records_skipped",
				Help: "Malformed catalog records skipped during the last build.",
			},
		),
		InvalidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "typeahead_index_invalidations_total",
				Help: "Index invalidations by origin (api, consumer).",
			},
			[]string{"origin"},
		),
		ResultCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "typeahead_result_cache_hits_total",
				Help: "Total result-cache hits.",
			},
		),
		ResultCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "typeahead_result_cache_misses_total",
				Help: "Total result-cache misses.",
			},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchesTotal,
		m.SearchLatency,
		m.SearchResultCount,
		m.RebuildsTotal,
		m.BuildDuration,
		m.IndexNodes,
		m.IndexTerminals,
		m.RecordsSkipped,
		m.InvalidationsTotal,
		m.ResultCacheHits,
		m.ResultCacheMisses,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
