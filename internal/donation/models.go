package donation

import (
	"time"

	id "github.com/yazedalasad/bloodbank/pkg/domain"
	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
)

const (
	// MinVolumeML and MaxVolumeML bound a single donation.
	MinVolumeML = 350
	MaxVolumeML = 500

	// UnitVolumeML is the standard donation-equivalent used for emergency
	// accounting: 1 unit = 450 ml.
	UnitVolumeML = 450

	// DeferralDays is the minimum gap between two approved donations by the
	// same donor.
	DeferralDays = 56
)

// Donation is one blood donation record. Approved records with volume > 0
// form the inventory ledger; the fulfillment engine decrements their volume
// and deletes them once empty. Rejected records persist for audit but never
// count toward stock.
//
// BloodType is denormalized from the owning donor at record time so ledger
// selection does not join through the donor registry on every fulfillment.
type Donation struct {
	ID        id.DonationID `json:"id"`
	DonorID   id.DonorID    `json:"donor_id"`
	BloodType id.BloodType  `json:"blood_type"`
	// DonationDate is day-granular; backdated entries are allowed.
	DonationDate time.Time `json:"donation_date"`
	VolumeML     int       `json:"volume_ml"`
	Approved     bool      `json:"approved"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// UnitsFor converts a volume in ml to standard donation units, rounded to
// one decimal place.
func UnitsFor(volumeML int) float64 {
	return float64(int(float64(volumeML)/UnitVolumeML*10+0.5)) / 10
}

// Units converts the record's volume to standard donation units.
func (d *Donation) Units() float64 {
	return UnitsFor(d.VolumeML)
}

// validateVolume rejects out-of-range volumes before anything is persisted.
func validateVolume(volumeML int) error {
	if volumeML < MinVolumeML || volumeML > MaxVolumeML {
		return dErrors.New(dErrors.CodeValidation, "volume must be between 350 and 500 ml")
	}
	return nil
}

// RecordParams carries input for recording a donation.
type RecordParams struct {
	DonorID id.DonorID `json:"donor_id"`
	// DonationDate defaults to the request-scoped date when zero.
	DonationDate time.Time `json:"donation_date"`
	// VolumeML defaults to UnitVolumeML when zero.
	VolumeML int    `json:"volume_ml"`
	Notes    string `json:"notes"`
}
