// Package events carries domain events out of the core. Notification layers
// (email, PDF reporting) subscribe to these instead of being called directly,
// keeping the core free of delivery mechanics.
package events

import (
	"time"

	id "github.com/yazedalasad/bloodbank/pkg/domain"
)

// Action names a domain event.
type Action string

const (
	// Donor lifecycle
	ActionDonorRegistered Action = "donor_registered"

	// Donation lifecycle
	ActionDonationRecorded Action = "donation_recorded"
	// ActionDonationRejected fires when a donation is persisted not-approved
	// because it fell inside the donor's 56-day deferral window. The record
	// is kept for audit but never counts toward inventory.
	ActionDonationRejected Action = "donation_rejected"

	// Request lifecycle
	ActionRequestCreated   Action = "request_created"
	ActionRequestFulfilled Action = "request_fulfilled"
	// ActionRequestPartial fires when a fulfillment attempt drained what it
	// could but left a shortfall. The consumed inventory stays consumed.
	ActionRequestPartial Action = "request_partial"

	// Emergency path
	ActionEmergencyRequestOpened Action = "emergency_request_opened"
	ActionEmergencyAllocated     Action = "emergency_allocated"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time     `json:"timestamp"`
	Action    Action        `json:"action"`
	DonorID   id.DonorID    `json:"donor_id,omitempty"`
	RequestID id.RequestID  `json:"request_id,omitempty"`
	BloodType id.BloodType  `json:"blood_type,omitempty"`
	VolumeML  int           `json:"volume_ml,omitempty"`
	Units     int           `json:"units,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	ActorID   string        `json:"actor_id,omitempty"`
	// CorrelationID carries the originating HTTP request ID for tracing.
	CorrelationID string `json:"correlation_id,omitempty"`
}
