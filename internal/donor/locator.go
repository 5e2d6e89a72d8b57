package donor

import (
	"context"
	"sort"
	"time"

	id "github.com/yazedalasad/bloodbank/pkg/domain"
	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
	"github.com/yazedalasad/bloodbank/pkg/requestcontext"
)

// HistoryReader exposes the slice of donation history the locator needs.
// Implemented by the donation service; declared here so donor does not
// import donation.
type HistoryReader interface {
	// LastApprovedDonationDates maps donor ID to the date of that donor's
	// most recent approved donation. Donors who never donated are absent.
	LastApprovedDonationDates(ctx context.Context) (map[id.DonorID]time.Time, error)
}

// AvailableDonor is a locator hit: a compatible donor ranked by how promptly
// they could give blood.
type AvailableDonor struct {
	Donor             *Donor     `json:"donor"`
	Score             int        `json:"score"`
	LastDonation      *time.Time `json:"last_donation,omitempty"`
	DaysUntilEligible int        `json:"days_until_eligible"`
	CanDonateNow      bool       `json:"can_donate_now"`
}

// LocateForRequest lists donors whose blood type is compatible with the
// needed type and who are currently inside or near their eligibility window,
// sorted by availability score descending. Used when stock cannot cover a
// request and staff need to call donors in.
func (s *Service) LocateForRequest(ctx context.Context, bloodTypeNeeded id.BloodType, history HistoryReader) ([]AvailableDonor, error) {
	if !bloodTypeNeeded.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "malformed blood type: "+string(bloodTypeNeeded))
	}

	compatible := id.CompatibleDonors(bloodTypeNeeded)
	donors, err := s.store.ListByBloodTypes(ctx, compatible)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list compatible donors")
	}

	lastDates, err := history.LastApprovedDonationDates(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation history")
	}

	now := requestcontext.Now(ctx)
	hits := make([]AvailableDonor, 0, len(donors))
	for _, d := range donors {
		var last *time.Time
		if date, ok := lastDates[d.ID]; ok {
			cp := date
			last = &cp
		}

		daysUntil := 0
		if last != nil {
			passed := int(now.Sub(*last).Hours() / 24)
			if passed < 56 {
				daysUntil = 56 - passed
			}
		}

		hits = append(hits, AvailableDonor{
			Donor:             d,
			Score:             AvailabilityScore(d, last, now),
			LastDonation:      last,
			DaysUntilEligible: daysUntil,
			CanDonateNow:      daysUntil == 0,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}
