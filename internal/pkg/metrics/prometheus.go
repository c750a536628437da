package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "amiaudit",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "amiaudit",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// Audit run metrics
	auditRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "amiaudit",
			Subsystem: "audit",
			Name:      "runs_total",
			Help:      "Total number of audit runs by final status",
		},
		[]string{"status"},
	)

	auditRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "amiaudit",
			Subsystem: "audit",
			Name:      "run_duration_seconds",
			Help:      "Duration of audit runs in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// alert on staleness: time() - amiaudit_audit_last_run_timestamp_seconds{status="completed"}
	lastRunTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "amiaudit",
			Subsystem: "audit",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the last audit run with each status finished",
		},
		[]string{"status"},
	)

	resourcesListed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "amiaudit",
			Subsystem: "audit",
			Name:      "resources_listed",
			Help:      "Number of resources listed by the last run",
		},
	)

	extractionErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "amiaudit",
			Subsystem: "audit",
			Name:      "extraction_errors_total",
			Help:      "Total number of resources skipped because required fields were missing",
		},
	)

	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "amiaudit",
			Subsystem: "rule",
			Name:      "evaluations_total",
			Help:      "Total number of rule evaluations by compliance status",
		},
		[]string{"rule", "compliance"},
	)

	evaluationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "amiaudit",
			Subsystem: "rule",
			Name:      "evaluation_errors_total",
			Help:      "Total number of failed rule evaluations",
		},
		[]string{"rule"},
	)

	// Finding sink metrics
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "amiaudit",
			Subsystem: "sink",
			Name:      "submissions_total",
			Help:      "Total number of finding submissions by outcome",
		},
		[]string{"outcome"},
	)

	batchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "amiaudit",
			Subsystem: "sink",
			Name:      "batch_duration_seconds",
			Help:      "Duration of batch imports in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "amiaudit",
			Subsystem: "sink",
			Name:      "queue_depth",
			Help:      "Number of findings waiting for submission",
		},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}

		status := strconv.Itoa(wrapped.statusCode)
		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAuditRun records a finished audit run
func RecordAuditRun(status string, duration time.Duration) {
	auditRunsTotal.WithLabelValues(status).Inc()
	auditRunDuration.Observe(duration.Seconds())
	lastRunTimestamp.WithLabelValues(status).SetToCurrentTime()
}

// SetResourcesListed sets the gauge for listed resources
func SetResourcesListed(count int) {
	resourcesListed.Set(float64(count))
}

// RecordExtractionError records a skipped resource
func RecordExtractionError() {
	extractionErrorsTotal.Inc()
}

// RecordEvaluation records a rule verdict
func RecordEvaluation(rule, compliance string) {
	evaluationsTotal.WithLabelValues(rule, compliance).Inc()
}

// RecordEvaluationError records a failed evaluation
func RecordEvaluationError(rule string) {
	evaluationErrorsTotal.WithLabelValues(rule).Inc()
}

// RecordSubmissions records n submissions with the given outcome
func RecordSubmissions(outcome string, n int) {
	if n > 0 {
		submissionsTotal.WithLabelValues(outcome).Add(float64(n))
	}
}

// RecordBatch records the duration of a batch import
func RecordBatch(duration time.Duration) {
	batchDuration.Observe(duration.Seconds())
}

// SetQueueDepth sets the gauge for queued findings
func SetQueueDepth(depth int) {
	queueDepth.Set(float64(depth))
}
