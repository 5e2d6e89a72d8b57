package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds platform-wide Prometheus counters. The inventory module
// carries its own metrics package for fulfillment-specific series.
type Metrics struct {
	DonorsRegistered  prometheus.Counter
	DonationsRecorded prometheus.Counter
	DonationsRejected prometheus.Counter
	RequestsCreated   prometheus.Counter
}

// New creates and registers all platform metrics.
func New() *Metrics {
	return &Metrics{
		DonorsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodbank_donors_registered_total",
			Help: "Total number of donors registered",
		}),
		DonationsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodbank_donations_recorded_total",
			Help: "Total number of donations recorded and approved",
		}),
		DonationsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodbank_donations_rejected_total",
			Help: "Total number of donations rejected by the 56-day deferral rule",
		}),
		RequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodbank_requests_created_total",
			Help: "Total number of blood requests created",
		}),
	}
}
