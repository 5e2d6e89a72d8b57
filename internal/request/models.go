// Package request holds the blood request lifecycle: authenticated requests
// fulfilled against the inventory ledger, and anonymous emergency requests
// that expire on their own.
package request

import (
	"time"

	"github.com/yazedalasad/bloodbank/internal/donation"
	id "github.com/yazedalasad/bloodbank/pkg/domain"
	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
)

// Priority orders requests for staff triage. It never changes fulfillment
// mechanics.
type Priority string

const (
	PriorityNormal   Priority = "normal"
	PriorityUrgent   Priority = "urgent"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityNormal, PriorityUrgent, PriorityCritical:
		return true
	}
	return false
}

const (
	// MinUnits and MaxUnits bound a regular blood request.
	MinUnits = 1
	MaxUnits = 10

	// EmergencyMaxUnits caps an anonymous emergency request.
	EmergencyMaxUnits = 20

	// OverdueAfter is how long an unfulfilled request may sit before it is
	// reported overdue.
	OverdueAfter = 7 * 24 * time.Hour
)

// BloodRequest is an authenticated request for blood on behalf of a patient.
//
// Invariants:
//   - Units is between 1 and 10
//   - Emergency requests carry BloodType O- and Priority critical; both are
//     forced at save time, whatever the caller sent
//   - Fulfilled transitions false->true exactly once; FulfilledAt is stamped
//     with that transition and never cleared
type BloodRequest struct {
	ID          id.RequestID `json:"id"`
	RequesterID string       `json:"requester_id"`
	PatientName string       `json:"patient_name"`
	BloodType   id.BloodType `json:"blood_type"`
	Units       int          `json:"units"`
	Priority    Priority     `json:"priority"`
	Emergency   bool         `json:"emergency"`
	Fulfilled   bool         `json:"fulfilled"`
	FulfilledAt *time.Time   `json:"fulfilled_at,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	RequestedAt time.Time    `json:"requested_at"`
}

// VolumeNeededML converts the request's units to milliliters for the engine.
func (r *BloodRequest) VolumeNeededML() int {
	return r.Units * donation.UnitVolumeML
}

// IsOverdue reports whether an unfulfilled request has waited longer than the
// overdue window.
func (r *BloodRequest) IsOverdue(now time.Time) bool {
	return !r.Fulfilled && now.Sub(r.RequestedAt) > OverdueAfter
}

// normalize applies the save-time emergency override.
func (r *BloodRequest) normalize() {
	if r.Priority == "" {
		r.Priority = PriorityNormal
	}
	if r.Emergency {
		r.BloodType = id.ONeg
		r.Priority = PriorityCritical
	}
}

func (r *BloodRequest) validate() error {
	if r.PatientName == "" {
		return dErrors.New(dErrors.CodeValidation, "patient name is required")
	}
	if r.Units < MinUnits || r.Units > MaxUnits {
		return dErrors.New(dErrors.CodeValidation, "units must be between 1 and 10")
	}
	if !r.BloodType.Valid() {
		return dErrors.New(dErrors.CodeValidation, "malformed blood type: "+string(r.BloodType))
	}
	if !r.Priority.Valid() {
		return dErrors.New(dErrors.CodeValidation, "malformed priority: "+string(r.Priority))
	}
	return nil
}

// EmergencyRequest is an anonymous call for O- blood. No authentication,
// only a contact. It is never fulfilled through the lifecycle above; staff
// act on it directly (typically via the emergency allocator) while it is
// active.
type EmergencyRequest struct {
	ID           id.RequestID `json:"id"`
	ContactName  string       `json:"contact_name"`
	ContactPhone string       `json:"contact_phone"`
	Units        int          `json:"units"`
	Notes        string       `json:"notes,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ActiveWindow is how long an emergency request stays actionable.
const ActiveWindow = 24 * time.Hour

// IsActive reports whether the request is still inside its 24-hour window.
// Expiry is passive: nothing flips a flag at the 24-hour mark, readers just
// stop seeing the request.
func (e *EmergencyRequest) IsActive(now time.Time) bool {
	return now.Sub(e.CreatedAt) < ActiveWindow
}

func (e *EmergencyRequest) validate() error {
	if e.ContactName == "" {
		return dErrors.New(dErrors.CodeValidation, "contact name is required")
	}
	if e.ContactPhone == "" {
		return dErrors.New(dErrors.CodeValidation, "contact phone is required")
	}
	if e.Units < MinUnits || e.Units > EmergencyMaxUnits {
		return dErrors.New(dErrors.CodeValidation, "units must be between 1 and 20")
	}
	return nil
}
