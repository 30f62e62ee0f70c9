// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "msisgo_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "msisgo_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	evaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "msisgo_evaluations_total",
			Help: "Total number of atmosphere model evaluations.",
		},
		[]string{"model"},
	)

	evaluationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "msisgo_evaluation_duration_seconds",
			Help:    "Atmosphere model evaluation duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
		[]string{"model"},
	)

	spaceWeatherAgeSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "msisgo_spaceweather_dataset_age_seconds",
		Help: "Age of the loaded space weather dataset in seconds.",
	})

	spaceWeatherRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "msisgo_spaceweather_dataset_records",
		Help: "Number of daily records in the loaded space weather dataset.",
	})

	spaceWeatherFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "msisgo_spaceweather_fetches_total",
			Help: "Space weather fetch attempts by result.",
		},
		[]string{"result"},
	)

	dragSamplesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "msisgo_drag_samples_total",
		Help: "Drag profile samples computed.",
	})

	dragErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "msisgo_drag_sample_errors_total",
		Help: "Drag profile samples that failed.",
	})

	dragProfileDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "msisgo_drag_profile_duration_seconds",
		Help:    "Drag profile computation duration in seconds.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		evaluationsTotal,
		evaluationDurationSeconds,
		spaceWeatherAgeSeconds,
		spaceWeatherRecords,
		spaceWeatherFetchesTotal,
		dragSamplesTotal,
		dragErrorsTotal,
		dragProfileDurationSeconds,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveEvaluation records one model evaluation.
func ObserveEvaluation(model string, d time.Duration) {
	evaluationsTotal.WithLabelValues(model).Inc()
	evaluationDurationSeconds.WithLabelValues(model).Observe(d.Seconds())
}

// SetSpaceWeatherAge sets the dataset age gauge.
func SetSpaceWeatherAge(seconds float64) {
	spaceWeatherAgeSeconds.Set(seconds)
}

// SetSpaceWeatherRecords sets the dataset size gauge.
func SetSpaceWeatherRecords(n int) {
	spaceWeatherRecords.Set(float64(n))
}

// IncSpaceWeatherFetch counts a fetch attempt; result is "ok" or "error".
func IncSpaceWeatherFetch(result string) {
	spaceWeatherFetchesTotal.WithLabelValues(result).Inc()
}

// RecordDragProfile records one profile run.
func RecordDragProfile(d time.Duration, samples, errors int) {
	dragSamplesTotal.Add(float64(samples))
	dragErrorsTotal.Add(float64(errors))
	dragProfileDurationSeconds.Observe(d.Seconds())
}

// knownRoutes are the paths served by the API; anything else is "other"
// so scanners cannot blow up label cardinality.
var knownRoutes = map[string]bool{
	"/":                             true,
	"/healthz":                      true,
	"/readyz":                       true,
	"/metrics":                      true,
	"/api/v1/atmosphere":            true,
	"/api/v1/atmosphere/at":         true,
	"/api/v1/drag":                  true,
	"/api/v1/spaceweather/metadata": true,
	"/api/v1/spaceweather/fetch":    true,
}

func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		path := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, r.Method).Observe(duration)
	})
}
