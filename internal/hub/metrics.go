package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "donation_indexer_hub_subscribers",
		Help: "Number of active live subscribers",
	})

	messages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donation_indexer_hub_messages_total",
		Help: "Broadcast deliveries by outcome (sent, dropped)",
	}, []string{"outcome"})
)

func subscribersSet(n int) {
	subscribers.Set(float64(n))
}

func messagesInc(outcome string) {
	messages.WithLabelValues(outcome).Inc()
}
