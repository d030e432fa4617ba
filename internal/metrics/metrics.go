// Package metrics provides Prometheus metrics for the fakehub server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fakehub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fakehub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Content transfer metrics
	contentBytesServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fakehub_content_bytes_served_total",
			Help: "Total bytes served from resolve endpoints",
		},
	)

	contentDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fakehub_content_downloads_total",
			Help: "Total number of content downloads",
		},
		[]string{"status"},
	)

	// Range header outcomes
	rangeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fakehub_range_requests_total",
			Help: "Total Range requests by parse outcome",
		},
		[]string{"outcome"},
	)

	// Hash cache metrics
	hashCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fakehub_hash_cache_lookups_total",
			Help: "Total hash cache lookups",
		},
		[]string{"result"},
	)

	// Sidecar trust metrics
	sidecarDigestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fakehub_sidecar_digests_total",
			Help: "Sidecar digest reuse vs recompute decisions",
		},
		[]string{"result"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordContentDownload records a content download.
func RecordContentDownload(bytes int64, success bool) {
	contentBytesServed.Add(float64(bytes))
	status := "success"
	if !success {
		status = "error"
	}
	contentDownloadsTotal.WithLabelValues(status).Inc()
}

// RecordRangeRequest records a Range header parse outcome
// ("valid", "unsatisfiable" or "malformed").
func RecordRangeRequest(outcome string) {
	rangeRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordHashCacheLookup records a hash cache hit or miss.
func RecordHashCacheLookup(hit bool) {
	result := "hit"
	if !hit {
		result = "miss"
	}
	hashCacheLookups.WithLabelValues(result).Inc()
}

// RecordSidecarDigest records whether a precomputed sidecar digest was
// trusted or the digest was recomputed.
func RecordSidecarDigest(trusted bool) {
	result := "trusted"
	if !trusted {
		result = "recomputed"
	}
	sidecarDigestsTotal.WithLabelValues(result).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}
