package donation

import (
	"context"
	"time"

	id "github.com/yazedalasad/bloodbank/pkg/domain"
)

// Store persists donation records and exposes the inventory ledger view.
// Implementations return sentinel errors; services translate them.
//
// The ledger is not a separate table: it is the filtered, ordered view of
// approved, undepleted donations that ListApprovedByBloodTypes returns.
type Store interface {
	Create(ctx context.Context, donation *Donation) error
	FindByID(ctx context.Context, donationID id.DonationID) (*Donation, error)

	// ListByDonor returns a donor's donations, most recent donation date
	// first.
	ListByDonor(ctx context.Context, donorID id.DonorID) ([]*Donation, error)

	// ListApprovedByBloodTypes returns the inventory ledger restricted to
	// the given donor blood types, oldest donation date first (FIFO).
	ListApprovedByBloodTypes(ctx context.Context, types []id.BloodType) ([]*Donation, error)

	// UpdateVolume persists a partial draw against a record.
	UpdateVolume(ctx context.Context, donationID id.DonationID, volumeML int) error

	// Delete removes a fully consumed record.
	Delete(ctx context.Context, donationID id.DonationID) error

	// LastApproved returns the donor's most recent approved donation by
	// donation date, or sentinel.ErrNotFound when the donor never had one.
	LastApproved(ctx context.Context, donorID id.DonorID) (*Donation, error)

	// LastApprovedBefore returns the donor's latest approved donation dated
	// strictly before the given date. Used by the creation-time deferral
	// check, which compares against the immediately preceding donation by
	// date (donations may be backdated), not the most recently created row.
	LastApprovedBefore(ctx context.Context, donorID id.DonorID, before time.Time) (*Donation, error)

	// LastApprovedDonationDates maps each donor with at least one approved
	// donation to its most recent approved donation date.
	LastApprovedDonationDates(ctx context.Context) (map[id.DonorID]time.Time, error)

	// TotalVolumeByDonor sums current record volumes per donor across all
	// donations. The emergency allocator orders O- donors by this total,
	// ascending, to spread load onto the lightest donors.
	TotalVolumeByDonor(ctx context.Context) (map[id.DonorID]int, error)

	// TotalApprovedVolumeByBloodType sums ledger volume per blood type for
	// the stock report.
	TotalApprovedVolumeByBloodType(ctx context.Context) (map[id.BloodType]int, error)

	// RunInTx executes fn atomically. The postgres store opens a SQL
	// transaction and carries it through the context; the in-memory store
	// relies on the fulfillment engine's mutex for serialization and runs
	// fn directly.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
