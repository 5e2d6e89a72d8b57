//go:build integration

package donation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/yazedalasad/bloodbank/internal/donation"
	"github.com/yazedalasad/bloodbank/internal/donor"
	id "github.com/yazedalasad/bloodbank/pkg/domain"
	"github.com/yazedalasad/bloodbank/pkg/platform/sentinel"
	"github.com/yazedalasad/bloodbank/pkg/testutil"
	"github.com/yazedalasad/bloodbank/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	donors   *donor.PostgresStore
	store    *donation.PostgresStore
	donorID  id.DonorID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.donors = donor.NewPostgresStore(s.postgres.DB)
	s.store = donation.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "donations", "donors"))

	s.donorID = id.NewDonorID()
	now := testutil.Day(2026, time.June, 1)
	s.Require().NoError(s.donors.Create(ctx, &donor.Donor{
		ID:            s.donorID,
		NationalID:    "123456789",
		FirstName:     "Dana",
		LastName:      "Levi",
		DateOfBirth:   testutil.Day(1992, time.March, 15),
		BloodType:     id.ONeg,
		HealthStatus:  donor.HealthGood,
		SmokingStatus: donor.SmokingNever,
		AlcoholUse:    donor.AlcoholNever,
		CreatedAt:     now,
		UpdatedAt:     now,
	}))
}

func (s *PostgresStoreSuite) record(date time.Time, volumeML int, approved bool) *donation.Donation {
	rec := &donation.Donation{
		ID:           id.NewDonationID(),
		DonorID:      s.donorID,
		BloodType:    id.ONeg,
		DonationDate: date,
		VolumeML:     volumeML,
		Approved:     approved,
		CreatedAt:    date,
	}
	s.Require().NoError(s.store.Create(context.Background(), rec))
	return rec
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	rec := s.record(testutil.Day(2026, time.January, 1), 450, true)

	got, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec.ID, got.ID)
	s.Equal(450, got.VolumeML)
	s.True(got.Approved)

	_, err = s.store.FindByID(ctx, id.NewDonationID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestLedgerOrderAndFiltering() {
	ctx := context.Background()
	newer := s.record(testutil.Day(2026, time.March, 1), 450, true)
	older := s.record(testutil.Day(2026, time.January, 1), 450, true)
	s.record(testutil.Day(2025, time.December, 1), 450, false)

	ledger, err := s.store.ListApprovedByBloodTypes(ctx, []id.BloodType{id.ONeg})
	s.Require().NoError(err)
	s.Require().Len(ledger, 2)
	s.Equal(older.ID, ledger[0].ID)
	s.Equal(newer.ID, ledger[1].ID)
}

func (s *PostgresStoreSuite) TestUpdateVolumeAndDelete() {
	ctx := context.Background()
	rec := s.record(testutil.Day(2026, time.January, 1), 450, true)

	s.Require().NoError(s.store.UpdateVolume(ctx, rec.ID, 200))
	got, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(200, got.VolumeML)

	s.Require().NoError(s.store.Delete(ctx, rec.ID))
	_, err = s.store.FindByID(ctx, rec.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Delete(ctx, rec.ID), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestLastApprovedBefore() {
	ctx := context.Background()
	s.record(testutil.Day(2026, time.January, 1), 450, true)
	s.record(testutil.Day(2026, time.April, 1), 450, true)

	got, err := s.store.LastApprovedBefore(ctx, s.donorID, testutil.Day(2026, time.February, 1))
	s.Require().NoError(err)
	s.Equal(testutil.Day(2026, time.January, 1), got.DonationDate.UTC())

	_, err = s.store.LastApprovedBefore(ctx, s.donorID, testutil.Day(2026, time.January, 1))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestRunInTxRollsBack() {
	ctx := context.Background()
	rec := s.record(testutil.Day(2026, time.January, 1), 450, true)

	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateVolume(ctx, rec.ID, 100); err != nil {
			return err
		}
		return context.Canceled
	})
	s.Require().Error(err)

	got, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(450, got.VolumeML)
}

func (s *PostgresStoreSuite) TestAggregates() {
	ctx := context.Background()
	s.record(testutil.Day(2026, time.January, 1), 450, true)
	s.record(testutil.Day(2026, time.April, 1), 300, true)
	s.record(testutil.Day(2026, time.May, 1), 450, false)

	dates, err := s.store.LastApprovedDonationDates(ctx)
	s.Require().NoError(err)
	s.Equal(testutil.Day(2026, time.April, 1), dates[s.donorID].UTC())

	totals, err := s.store.TotalVolumeByDonor(ctx)
	s.Require().NoError(err)
	s.Equal(1200, totals[s.donorID])

	byType, err := s.store.TotalApprovedVolumeByBloodType(ctx)
	s.Require().NoError(err)
	s.Equal(750, byType[id.ONeg])
}
