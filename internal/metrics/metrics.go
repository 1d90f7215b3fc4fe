package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchdash_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "launchdash_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	datasetRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "launchdash_dataset_records",
			Help: "Number of launch records in the loaded dataset.",
		},
	)

	datasetSites = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "launchdash_dataset_sites",
			Help: "Number of distinct launch sites in the loaded dataset.",
		},
	)

	bindingInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchdash_binding_invocations_total",
			Help: "Total number of reactive binding recomputations by output component.",
		},
		[]string{"output"},
	)

	chartRendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchdash_chart_renders_total",
			Help: "Total number of rendered charts by kind and format.",
		},
		[]string{"kind", "format"},
	)

	filterMatchedRecords = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "launchdash_filter_matched_records",
			Help:    "Number of records matched by a scatter chart filter.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(datasetRecords)
	prometheus.MustRegister(datasetSites)
	prometheus.MustRegister(bindingInvocationsTotal)
	prometheus.MustRegister(chartRendersTotal)
	prometheus.MustRegister(filterMatchedRecords)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetDataset records the size of the loaded dataset.
func SetDataset(records, sites int) {
	datasetRecords.Set(float64(records))
	datasetSites.Set(float64(sites))
}

// IncBindingInvocations counts one recomputation of the given output component.
func IncBindingInvocations(output string) {
	bindingInvocationsTotal.WithLabelValues(output).Inc()
}

// IncChartRenders counts one rendered chart.
func IncChartRenders(kind, format string) {
	chartRendersTotal.WithLabelValues(kind, format).Inc()
}

// ObserveFilterMatches records how many records a filter matched.
func ObserveFilterMatches(n int) {
	filterMatchedRecords.Observe(float64(n))
}

// knownRoutes are reported as-is; everything else collapses into a bounded label set.
var knownRoutes = map[string]bool{
	"/":                        true,
	"/healthz":                 true,
	"/readyz":                  true,
	"/metrics":                 true,
	"/index.html":              true,
	"/app.js":                  true,
	"/styles.css":              true,
	"/api/v1/layout":           true,
	"/api/v1/update":           true,
	"/api/v1/dataset/metadata": true,
}

// normalizeRoute maps a request path to a low-cardinality metric label.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasPrefix(path, "/api/v1/charts/") && !strings.Contains(strings.TrimPrefix(path, "/api/v1/charts/"), "/") {
		return "/api/v1/charts/{component}"
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
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
