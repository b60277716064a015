package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector pipeline Prometheus metrics.
var (
	SearchAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ghcount",
			Name:      "search_attempts_total",
			Help:      "Total number of code search attempts by outcome",
		},
		[]string{"outcome"},
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ghcount",
			Name:      "search_duration_seconds",
			Help:      "Code search call duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	RateLimitWaitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ghcount",
			Name:      "rate_limit_waits_total",
			Help:      "Total number of suspensions until the search quota reset",
		},
	)

	RateLimitWaitSeconds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ghcount",
			Name:      "rate_limit_wait_seconds_total",
			Help:      "Total time spent waiting for the search quota reset",
		},
	)

	RetryExhaustedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ghcount",
			Name:      "retry_exhausted_total",
			Help:      "Fragments that used the whole retry budget without a count",
		},
		[]string{"fragment"},
	)

	RecordsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ghcount",
			Name:      "records_written_total",
			Help:      "Total records appended to the output stream",
		},
		[]string{"fragment"},
	)

	FragmentCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ghcount",
			Name:      "fragment_count",
			Help:      "Last total_count recorded for a fragment",
		},
		[]string{"fragment"},
	)

	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ghcount",
			Name:      "runs_total",
			Help:      "Total collection runs by status",
		},
		[]string{"status"}, // "success" / "failure"
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ghcount",
			Name:      "run_duration_seconds",
			Help:      "Collection run duration in seconds, including rate limit waits",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	LastSuccessTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ghcount",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last fully successful run",
		},
	)
)

// Search attempt outcomes besides the domain failure kinds.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// RegisterCollectorMetrics registers collector metrics with reg.
// Registering into the same registry twice is a no-op.
func RegisterCollectorMetrics(reg prometheus.Registerer) {
	mustRegister(reg,
		SearchAttemptsTotal,
		SearchDuration,
		RateLimitWaitsTotal,
		RateLimitWaitSeconds,
		RetryExhaustedTotal,
		RecordsWrittenTotal,
		FragmentCount,
		RunsTotal,
		RunDuration,
		LastSuccessTimestamp,
	)
}

func mustRegister(reg prometheus.Registerer, cs ...prometheus.Collector) {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}
