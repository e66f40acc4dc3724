package poller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donation_indexer_poller_cycles_total",
			Help: "Total number of polling cycles by outcome",
		},
		[]string{"outcome"},
	)

	consecutiveFailures = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "donation_indexer_poller_consecutive_failures",
			Help: "Number of consecutive failed polling cycles",
		},
	)

	rangeShrinks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "donation_indexer_poller_range_shrinks_total",
			Help: "Total number of log queries retried with a smaller block range",
		},
	)

	suspiciousDonations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "donation_indexer_poller_suspicious_donations_total",
			Help: "Total number of stored donations flagged as unusually large",
		},
	)
)

func cycleInc(outcome string) {
	cycles.WithLabelValues(outcome).Inc()
}

func consecutiveFailuresSet(n int) {
	consecutiveFailures.Set(float64(n))
}

func rangeShrinkInc() {
	rangeShrinks.Inc()
}

func suspiciousInc() {
	suspiciousDonations.Inc()
}
