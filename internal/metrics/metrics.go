// Package metrics exposes Prometheus collectors for the collector service.
// Per-keyword collection metrics are owned by the progress Prometheus sink;
// this package carries the run, analyzer and HTTP server collectors.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	collectorRunsTotal         *prometheus.CounterVec
	collectorRunInProgress     prometheus.Gauge
	analyzerPostsScannedTotal  prometheus.Counter
	analyzerDurationSeconds    prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		collectorRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collector_runs_total",
				Help: "Total number of collection runs, labeled by status.",
			},
			[]string{"status"},
		)

		collectorRunInProgress = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "collector_run_in_progress",
				Help: "Whether a collection run is currently executing.",
			},
		)

		analyzerPostsScannedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "analyzer_posts_scanned_total",
				Help: "Total number of posts read by analysis passes.",
			},
		)

		analyzerDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "analyzer_duration_seconds",
				Help:    "Histogram of full analysis pass durations.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRun increments the run counter for the given status.
func ObserveRun(status string) {
	collectorRunsTotal.WithLabelValues(status).Inc()
}

// RunStarted flags a run as in progress.
func RunStarted() {
	collectorRunInProgress.Set(1)
}

// RunFinished clears the in-progress flag.
func RunFinished() {
	collectorRunInProgress.Set(0)
}

// ObserveAnalysis records one analysis pass.
func ObserveAnalysis(posts int, duration time.Duration) {
	analyzerPostsScannedTotal.Add(float64(posts))
	analyzerDurationSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
