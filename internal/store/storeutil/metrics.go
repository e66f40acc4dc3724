package storeutil

import (
	"time"

	"github.com/goran-ethernal/DonationIndexor/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	inserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donation_indexer_store_inserts_total",
			Help: "Total number of InsertIfAbsent calls by outcome",
		},
		[]string{"driver", "result"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "donation_indexer_store_operation_duration_seconds",
			Help:    "Duration of store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "operation"},
	)

	operationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donation_indexer_store_errors_total",
			Help: "Total number of failed store operations",
		},
		[]string{"driver", "operation"},
	)

	rollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donation_indexer_store_rollback_deleted_events_total",
			Help: "Total number of events deleted by re-org rollbacks",
		},
		[]string{"driver"},
	)
)

func InsertResultInc(driver string, result store.InsertResult) {
	inserts.WithLabelValues(driver, result.String()).Inc()
}

// Observe records the duration and the outcome of one operation. Use it with defer.
func Observe(driver, operation string, start time.Time, err *error) {
	operationDuration.WithLabelValues(driver, operation).Observe(time.Since(start).Seconds())
	if err != nil && *err != nil {
		operationErrors.WithLabelValues(driver, operation).Inc()
	}
}

func RollbackDeletedAdd(driver string, n int64) {
	rollbacks.WithLabelValues(driver).Add(float64(n))
}
