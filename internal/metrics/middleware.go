package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "audiodex",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status", "collection"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "audiodex",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status", "collection"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
}

// Collection label values for requests outside a configured collection.
const (
	collectionNone  = ""
	collectionOther = "other"
)

// Middleware records HTTP request duration and count per route pattern. Requests
// under a {collection} route carry the collection as a label when known accepts it;
// any other value is recorded as "other" so arbitrary path segments cannot grow
// the label set. A nil known labels every collection "other".
func Middleware(known func(collection string) bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(ww.status)

			rctx := chi.RouteContext(r.Context())
			var pattern, collection string
			if rctx != nil {
				pattern = rctx.RoutePattern()
				collection = collectionLabel(rctx.URLParam("collection"), known)
			}
			path := normalizePath(pattern)

			httpRequestDuration.WithLabelValues(r.Method, path, status, collection).Observe(duration)
			httpRequestsTotal.WithLabelValues(r.Method, path, status, collection).Inc()
		})
	}
}

// normalizePath keeps unrouted requests under one label.
func normalizePath(pattern string) string {
	if pattern == "" {
		return "unmatched"
	}
	return pattern
}

func collectionLabel(name string, known func(string) bool) string {
	if name == "" {
		return collectionNone
	}
	if known != nil && known(name) {
		return name
	}
	return collectionOther
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}
