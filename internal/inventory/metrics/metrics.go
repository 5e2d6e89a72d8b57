// Package metrics holds Prometheus series specific to inventory fulfillment.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for fulfillment attempts.
const (
	OutcomeFulfilled   = "fulfilled"
	OutcomePartial     = "partial"
	OutcomeUnfulfilled = "unfulfilled"
)

type Metrics struct {
	Fulfillments         *prometheus.CounterVec
	VolumeDispensedML    prometheus.Counter
	FulfillmentDuration  prometheus.Histogram
	EmergencyAllocations prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Fulfillments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodbank_fulfillments_total",
			Help: "Fulfillment attempts by outcome",
		}, []string{"outcome"}),
		VolumeDispensedML: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodbank_volume_dispensed_ml_total",
			Help: "Total blood volume drawn from inventory in milliliters",
		}),
		FulfillmentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloodbank_fulfillment_duration_seconds",
			Help:    "Latency of fulfillment attempts",
			Buckets: prometheus.DefBuckets,
		}),
		EmergencyAllocations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodbank_emergency_allocations_total",
			Help: "Completed emergency donor allocations",
		}),
	}
}
