package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reviewpipe/domain/runs"
)

// Metrics holds the Prometheus collectors exposed by the ops API. HTTP
// request metrics are recorded by middleware; run metrics are recorded when
// a run record reaches a terminal status.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	runsTotal    *prometheus.CounterVec
	runDuration  prometheus.Histogram
	rowsTotal    *prometheus.CounterVec
	droppedTotal *prometheus.CounterVec
}

// NewMetrics builds a fresh registry with all pipeline collectors registered.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewpipe_http_requests_total",
			Help: "HTTP requests served by the ops API.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reviewpipe_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewpipe_runs_total",
			Help: "Pipeline runs by terminal status.",
		}, []string{"status"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "reviewpipe_run_duration_seconds",
			Help:    "Wall-clock duration of finished pipeline runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		rowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewpipe_rows_total",
			Help: "Rows written per output stage.",
		}, []string{"stage"}),
		droppedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewpipe_rows_dropped_total",
			Help: "Rows dropped per input stage.",
		}, []string{"stage"}),
	}
}

// ObserveRun records a finished run. In-flight records are ignored.
func (m *Metrics) ObserveRun(record runs.Record) {
	if !record.Finished() {
		return
	}
	m.runsTotal.WithLabelValues(string(record.Status)).Inc()
	m.runDuration.Observe(record.Duration().Seconds())
	m.rowsTotal.WithLabelValues("reviews").Add(float64(record.Stats.ReviewsOut))
	m.rowsTotal.WithLabelValues("metadata").Add(float64(record.Stats.MetadataOut))
	m.rowsTotal.WithLabelValues("aggregate").Add(float64(record.Stats.AggregateRows))
	m.droppedTotal.WithLabelValues("reviews").Add(float64(record.Stats.ReviewsDropped))
	m.droppedTotal.WithLabelValues("metadata").Add(float64(record.Stats.MetadataDropped))
	m.droppedTotal.WithLabelValues("malformed").Add(float64(record.Stats.MalformedLines))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
