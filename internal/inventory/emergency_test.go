package inventory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/yazedalasad/bloodbank/internal/donation"
	"github.com/yazedalasad/bloodbank/internal/donor"
	id "github.com/yazedalasad/bloodbank/pkg/domain"
	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
	"github.com/yazedalasad/bloodbank/pkg/testutil"
)

type AllocatorSuite struct {
	suite.Suite
	ctx       context.Context
	donors    *donor.InMemoryStore
	donations *donation.InMemoryStore
	allocator *Allocator
	seq       int
}

func TestAllocatorSuite(t *testing.T) {
	suite.Run(t, new(AllocatorSuite))
}

func (s *AllocatorSuite) SetupTest() {
	s.ctx = testutil.ContextAt(testutil.Day(2026, time.June, 1))
	s.donors = donor.NewInMemoryStore()
	s.donations = donation.NewInMemoryStore()
	s.allocator = NewAllocator(s.donors, s.donations)
}

func (s *AllocatorSuite) addDonor(bloodType id.BloodType, priorVolumeML int) *donor.Donor {
	s.seq++
	d := &donor.Donor{
		ID:         id.NewDonorID(),
		NationalID: fmt.Sprintf("%09d", s.seq),
		FirstName:  "Test",
		LastName:   fmt.Sprintf("Donor%d", s.seq),
		BloodType:  bloodType,
	}
	s.Require().NoError(s.donors.Create(s.ctx, d))
	if priorVolumeML > 0 {
		s.Require().NoError(s.donations.Create(s.ctx, &donation.Donation{
			ID:           id.NewDonationID(),
			DonorID:      d.ID,
			BloodType:    bloodType,
			DonationDate: testutil.Day(2026, time.January, 1),
			VolumeML:     priorVolumeML,
			Approved:     true,
			CreatedAt:    testutil.Day(2026, time.January, 1),
		}))
	}
	return d
}

func (s *AllocatorSuite) TestAllocatesLightestDonorsFirst() {
	heavy := s.addDonor(id.ONeg, 900)
	light := s.addDonor(id.ONeg, 100)
	medium := s.addDonor(id.ONeg, 450)

	allocation, err := s.allocator.Allocate(s.ctx, 2)
	s.Require().NoError(err)

	s.Equal(2, allocation.Units)
	s.Equal(2*donation.UnitVolumeML, allocation.VolumeML)
	s.Require().Len(allocation.Assignments, 2)
	s.Equal(light.ID, allocation.Assignments[0].DonorID)
	s.Equal(medium.ID, allocation.Assignments[1].DonorID)

	// The heavy donor was spared.
	history, err := s.donations.ListByDonor(s.ctx, heavy.ID)
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *AllocatorSuite) TestSynthesizesApprovedDonations() {
	d := s.addDonor(id.ONeg, 0)

	allocation, err := s.allocator.Allocate(s.ctx, 1)
	s.Require().NoError(err)

	rec, err := s.donations.FindByID(s.ctx, allocation.Assignments[0].DonationID)
	s.Require().NoError(err)
	s.Equal(d.ID, rec.DonorID)
	s.Equal(id.ONeg, rec.BloodType)
	s.Equal(donation.UnitVolumeML, rec.VolumeML)
	s.True(rec.Approved)
	s.Equal(testutil.Day(2026, time.June, 1), rec.DonationDate)
}

func (s *AllocatorSuite) TestAllOrNothing() {
	s.addDonor(id.ONeg, 0)
	s.addDonor(id.ONeg, 450)

	_, err := s.allocator.Allocate(s.ctx, 3)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	// Nothing was written.
	totals, err := s.donations.TotalVolumeByDonor(s.ctx)
	s.Require().NoError(err)
	for donorID, total := range totals {
		if total != 450 {
			s.Failf("unexpected donation", "donor %s has %dml", donorID, total)
		}
	}
}

func (s *AllocatorSuite) TestConcurrentAllocationsSpreadDonors() {
	a := s.addDonor(id.ONeg, 0)
	b := s.addDonor(id.ONeg, 0)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := s.allocator.Allocate(s.ctx, 1)
			errs <- err
		}()
	}
	s.NoError(<-errs)
	s.NoError(<-errs)

	// The second allocation must see the first one's donation in the totals
	// and draft the other donor: one unit each, never two from one donor.
	totals, err := s.donations.TotalVolumeByDonor(s.ctx)
	s.Require().NoError(err)
	s.Equal(donation.UnitVolumeML, totals[a.ID])
	s.Equal(donation.UnitVolumeML, totals[b.ID])
}

func (s *AllocatorSuite) TestIgnoresOtherBloodTypes() {
	s.addDonor(id.OPos, 0)
	s.addDonor(id.APos, 0)

	_, err := s.allocator.Allocate(s.ctx, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *AllocatorSuite) TestRejectsNonPositiveUnits() {
	_, err := s.allocator.Allocate(s.ctx, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
