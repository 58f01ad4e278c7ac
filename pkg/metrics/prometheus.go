// Package metrics provides Prometheus metrics for survey processing and the API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the survey processing metrics.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	surveysProcessed   prometheus.Counter
	surveyErrors       *prometheus.CounterVec
	pointsIngested     prometheus.Counter
	skipsDetected      prometheus.Counter
	runsEmitted        prometheus.Counter
	processingDuration prometheus.Histogram

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics

// Custom registry keeps the Go runtime collectors out of /metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "surveyline",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.surveysProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "surveys_processed_total",
		Help:      "Total number of surveys segmented and projected",
	})
	m.surveyErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "survey_errors_total",
		Help:      "Total number of surveys rejected, by stage",
	}, []string{"stage"})
	m.pointsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "points_ingested_total",
		Help:      "Total number of survey points processed",
	})
	m.skipsDetected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "skips_detected_total",
		Help:      "Total number of path breaks recorded",
	})
	m.runsEmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "runs_emitted_total",
		Help:      "Total number of path runs emitted",
	})
	m.processingDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "processing_duration_milliseconds",
		Help:      "Survey processing duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordSurvey records one successfully processed survey.
func (m *Manager) RecordSurvey(points, runs, skips int, elapsed time.Duration) {
	m.surveysProcessed.Inc()
	m.pointsIngested.Add(float64(points))
	m.runsEmitted.Add(float64(runs))
	m.skipsDetected.Add(float64(skips))
	m.processingDuration.Observe(float64(elapsed.Microseconds()) / 1000)
}

// RecordSurveyError records a survey rejected at the given stage.
func (m *Manager) RecordSurveyError(stage string) {
	m.surveyErrors.WithLabelValues(stage).Inc()
}

// RecordHTTPRequest records an HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(float64(elapsed.Microseconds()) / 1000)
}

// Default returns the process-wide manager registered on GetRegistry.
func Default() *Manager {
	return globalManager
}

// GetRegistry returns the custom Prometheus registry used by the default manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the given gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
