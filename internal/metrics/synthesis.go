package metrics

import "github.com/prometheus/client_golang/prometheus"

// Synthesis Prometheus metrics.
var (
	SynthesisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iracify",
			Name:      "synthesis_requests_total",
			Help:      "Total number of synthesis requests",
		},
		[]string{"model", "kind", "status"},
	)

	SynthesisRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "iracify",
			Name:      "synthesis_request_duration_seconds",
			Help:      "Synthesis request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"model", "kind"},
	)

	SynthesisTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iracify",
			Name:      "synthesis_tokens_total",
			Help:      "Total synthesis tokens consumed",
		},
		[]string{"model", "type"},
	)

	SynthesisErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iracify",
			Name:      "synthesis_errors_total",
			Help:      "Total synthesis errors",
		},
		[]string{"model", "kind", "error_type"},
	)

	SummaryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iracify",
			Name:      "summary_cache_total",
			Help:      "Summary cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var synthMetricsRegistered bool

// RegisterSynthesisMetrics registers Prometheus synthesis metrics. Must be called once from main.
func RegisterSynthesisMetrics() {
	if synthMetricsRegistered {
		return
	}
	prometheus.MustRegister(SynthesisRequestsTotal)
	prometheus.MustRegister(SynthesisRequestDuration)
	prometheus.MustRegister(SynthesisTokensTotal)
	prometheus.MustRegister(SynthesisErrorsTotal)
	prometheus.MustRegister(SummaryCacheTotal)
	synthMetricsRegistered = true
}
