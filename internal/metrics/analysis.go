package metrics

import "github.com/prometheus/client_golang/prometheus"

// Analysis service and descriptor store Prometheus metrics.
var (
	AnalysisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "audiodex",
			Name:      "analysis_requests_total",
			Help:      "Total number of descriptor computation requests",
		},
		[]string{"status"},
	)

	AnalysisRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "audiodex",
			Name:      "analysis_request_duration_seconds",
			Help:      "Descriptor computation request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"status"},
	)

	AnalysisCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "audiodex",
			Name:      "analysis_cache_total",
			Help:      "Analysis cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	StoreExecuteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "audiodex",
			Name:      "store_execute_duration_seconds",
			Help:      "Descriptor store pipeline execution duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"driver"},
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "audiodex",
			Name:      "search_results",
			Help:      "Number of rows returned per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)
)

var domainMetricsRegistered bool

// RegisterDomainMetrics registers analysis, store and search metrics. Must be called once from main.
func RegisterDomainMetrics() {
	if domainMetricsRegistered {
		return
	}
	prometheus.MustRegister(AnalysisRequestsTotal)
	prometheus.MustRegister(AnalysisRequestDuration)
	prometheus.MustRegister(AnalysisCacheTotal)
	prometheus.MustRegister(StoreExecuteDuration)
	prometheus.MustRegister(SearchResults)
	domainMetricsRegistered = true
}
