package inventory

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/yazedalasad/bloodbank/internal/donation"
	id "github.com/yazedalasad/bloodbank/pkg/domain"
	"github.com/yazedalasad/bloodbank/pkg/testutil"
)

// Volume is conserved across any fulfillment: what the engine reports drawn
// plus what remains on the ledger equals what was there before.
func TestFulfillConservesVolume(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	genRecipient := gen.OneConstOf(
		id.ONeg, id.OPos, id.ANeg, id.APos, id.BNeg, id.BPos, id.ABNeg, id.ABPos,
	)

	properties.Property("fulfilled + remaining == initial", prop.ForAll(
		func(volumes []int, recipient id.BloodType, requested int, emergency bool) bool {
			ctx := testutil.ContextAt(testutil.Day(2026, time.June, 1))
			store := donation.NewInMemoryStore()

			initial := 0
			for i, volume := range volumes {
				bloodType := id.BloodTypes[i%len(id.BloodTypes)]
				if err := store.Create(ctx, &donation.Donation{
					ID:           id.NewDonationID(),
					DonorID:      id.NewDonorID(),
					BloodType:    bloodType,
					DonationDate: testutil.Day(2026, time.January, 1+i%28),
					VolumeML:     volume,
					Approved:     true,
					CreatedAt:    testutil.Day(2026, time.January, 1+i%28),
				}); err != nil {
					return false
				}
				initial += volume
			}

			result, err := NewEngine(store).Fulfill(ctx, recipient, requested, emergency)
			if err != nil {
				return false
			}
			if result.FulfilledML+result.RemainingML != requested {
				return false
			}

			remaining := 0
			records, err := store.ListApprovedByBloodTypes(ctx, id.BloodTypes)
			if err != nil {
				return false
			}
			for _, rec := range records {
				if rec.VolumeML <= 0 {
					return false
				}
				remaining += rec.VolumeML
			}
			return result.FulfilledML+remaining == initial
		},
		gen.SliceOf(gen.IntRange(donation.MinVolumeML, donation.MaxVolumeML)),
		genRecipient,
		gen.IntRange(1, 5000),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
