package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/corey/featdex/internal/domain/index"
)

// Metrics holds the Prometheus collectors for the daemon. Each Metrics owns
// its registry so several servers can live in one process (tests).
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        prometheus.Histogram
	SearchResultsCount   prometheus.Histogram
	CorpusFeatures       prometheus.Gauge
	CorpusReloadsTotal   *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "featdex_http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "featdex_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "featdex_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "featdex_search_queries_total",
				Help: "Total search queries by result status (ok, empty, invalid).",
			},
			[]string{"status"},
		),
		SearchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "featdex_search_latency_seconds",
				Help:    "Search latency in seconds, scoring and highlighting included.",
				Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
			},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "featdex_search_results_count",
				Help:    "Number of features above the score threshold per query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500},
			},
		),
		CorpusFeatures: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "featdex_corpus_features",
				Help: "Number of features in the loaded corpus.",
			},
		),
		CorpusReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "featdex_corpus_reloads_total",
				Help: "Corpus reloads from the data directory by outcome.",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.CorpusFeatures,
		m.CorpusReloadsTotal,
	)
	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveSearch has the index.SearchObserver signature; register it with
// SearchEngine.SetObserver.
func (m *Metrics) ObserveSearch(_ string, result *index.SearchResult, elapsed time.Duration) {
	m.SearchQueriesTotal.WithLabelValues(string(result.Status)).Inc()
	m.SearchLatency.Observe(elapsed.Seconds())
	if result.Status != index.StatusInvalid {
		m.SearchResultsCount.Observe(float64(result.Total))
	}
}

// ObserveReload records one reload attempt and the resulting corpus size.
func (m *Metrics) ObserveReload(features int, err error) {
	if err != nil {
		m.CorpusReloadsTotal.WithLabelValues("error").Inc()
		return
	}
	m.CorpusReloadsTotal.WithLabelValues("ok").Inc()
	m.CorpusFeatures.Set(float64(features))
}

// instrument records request count, latency, and the in-flight gauge.
// Routes are labelled by their mux pattern, not the raw path.
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.wroteHeader = true
	}
	return sw.ResponseWriter.Write(b)
}
