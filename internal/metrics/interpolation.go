package metrics

import "github.com/prometheus/client_golang/prometheus"

// Interpolation Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "obsoper",
			Name:      "search_requests_total",
			Help:      "Total number of cell searches",
		},
		[]string{"algorithm", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "obsoper",
			Name:      "search_duration_seconds",
			Help:      "Cell search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"algorithm"},
	)

	ObservationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "obsoper",
			Name:      "observations_total",
			Help:      "Observations seen by the interpolator",
		},
		[]string{"result"}, // "included" / "excluded"
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "obsoper",
			Name:      "search_cache_total",
			Help:      "Built search cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var interpMetricsRegistered bool

// RegisterInterpolationMetrics registers Prometheus interpolation metrics. Must be called once from main.
func RegisterInterpolationMetrics() {
	if interpMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(ObservationsTotal)
	prometheus.MustRegister(SearchCacheTotal)
	interpMetricsRegistered = true
}
