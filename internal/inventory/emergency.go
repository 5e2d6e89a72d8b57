package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/yazedalasad/bloodbank/internal/donation"
	"github.com/yazedalasad/bloodbank/internal/donor"
	"github.com/yazedalasad/bloodbank/internal/inventory/metrics"
	id "github.com/yazedalasad/bloodbank/pkg/domain"
	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
	"github.com/yazedalasad/bloodbank/pkg/platform/events"
	"github.com/yazedalasad/bloodbank/pkg/requestcontext"
)

// DonorSource lists registered donors by blood type.
type DonorSource interface {
	ListByBloodTypes(ctx context.Context, types []id.BloodType) ([]*donor.Donor, error)
}

// AllocationStore is the slice of the donation store the allocator writes
// through.
type AllocationStore interface {
	Create(ctx context.Context, d *donation.Donation) error
	TotalVolumeByDonor(ctx context.Context) (map[id.DonorID]int, error)
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher emits allocation events.
type EventPublisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Assignment is one donor called in during an emergency allocation.
type Assignment struct {
	DonorID    id.DonorID    `json:"donor_id"`
	DonorName  string        `json:"donor_name"`
	DonationID id.DonationID `json:"donation_id"`
	VolumeML   int           `json:"volume_ml"`
}

// Allocation is the outcome of a completed emergency allocation.
type Allocation struct {
	Units       int          `json:"units"`
	VolumeML    int          `json:"volume_ml"`
	Assignments []Assignment `json:"assignments"`
}

// Allocator sources emergency blood directly from registered O- donors,
// bypassing the stored ledger.
//
// Allocation is all-or-nothing: either every requested unit gets a distinct
// donor or nothing is written. Each selected donor contributes exactly one
// standard unit, recorded as a new pre-approved donation dated at allocation
// time. Donors are drafted lightest first, by ascending total recorded
// volume, to spread the load.
//
// Selection, the capacity check, and the writes all run under one mutex and
// one store transaction, so two concurrent allocations never draft donors
// against stale volume totals.
type Allocator struct {
	mu        sync.Mutex
	donors    DonorSource
	store     AllocationStore
	logger    *slog.Logger
	publisher EventPublisher
	metrics   *metrics.Metrics
}

type AllocatorOption func(a *Allocator)

func WithAllocatorLogger(logger *slog.Logger) AllocatorOption {
	return func(a *Allocator) { a.logger = logger }
}

func WithAllocatorPublisher(publisher EventPublisher) AllocatorOption {
	return func(a *Allocator) { a.publisher = publisher }
}

func WithAllocatorMetrics(m *metrics.Metrics) AllocatorOption {
	return func(a *Allocator) { a.metrics = m }
}

func NewAllocator(donors DonorSource, store AllocationStore, opts ...AllocatorOption) *Allocator {
	a := &Allocator{donors: donors, store: store}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate drafts one O- donor per requested unit.
func (a *Allocator) Allocate(ctx context.Context, units int) (*Allocation, error) {
	if units <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "units must be positive")
	}

	now := requestcontext.Now(ctx)
	allocation := &Allocation{Units: units}

	a.mu.Lock()
	err := a.store.RunInTx(ctx, func(ctx context.Context) error {
		candidates, err := a.donors.ListByBloodTypes(ctx, []id.BloodType{id.ONeg})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donors")
		}
		if len(candidates) < units {
			return dErrors.New(dErrors.CodeConflict,
				fmt.Sprintf("need %d O- donors, only %d registered", units, len(candidates)))
		}

		totals, err := a.store.TotalVolumeByDonor(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor totals")
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return totals[candidates[i].ID] < totals[candidates[j].ID]
		})

		for _, d := range candidates[:units] {
			rec := &donation.Donation{
				ID:           id.NewDonationID(),
				DonorID:      d.ID,
				BloodType:    d.BloodType,
				DonationDate: donation.CalendarDay(now),
				VolumeML:     donation.UnitVolumeML,
				Approved:     true,
				Notes:        "emergency allocation",
				CreatedAt:    now,
			}
			if err := a.store.Create(ctx, rec); err != nil {
				return fmt.Errorf("record emergency donation for donor %s: %w", d.ID, err)
			}
			allocation.Assignments = append(allocation.Assignments, Assignment{
				DonorID:    d.ID,
				DonorName:  d.FullName(),
				DonationID: rec.ID,
				VolumeML:   rec.VolumeML,
			})
			allocation.VolumeML += rec.VolumeML
		}
		return nil
	})
	a.mu.Unlock()
	if err != nil {
		// Capacity shortfalls are the caller's problem, not an internal fault.
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "emergency allocation failed")
	}

	if a.logger != nil {
		a.logger.InfoContext(ctx, "emergency allocation completed",
			"units", units,
			"volume_ml", allocation.VolumeML,
			"donors", len(allocation.Assignments),
			"log_type", "audit",
			"event", string(events.ActionEmergencyAllocated),
		)
	}
	if a.publisher != nil {
		for _, assignment := range allocation.Assignments {
			_ = a.publisher.Emit(ctx, events.Event{
				Action:    events.ActionEmergencyAllocated,
				DonorID:   assignment.DonorID,
				BloodType: id.ONeg,
				VolumeML:  assignment.VolumeML,
				Units:     1,
			})
		}
	}
	if a.metrics != nil {
		a.metrics.EmergencyAllocations.Inc()
	}
	return allocation, nil
}
