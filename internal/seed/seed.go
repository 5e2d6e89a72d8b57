// Package seed populates stores with demo data for local development.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/yazedalasad/bloodbank/internal/donation"
	"github.com/yazedalasad/bloodbank/internal/donor"
	id "github.com/yazedalasad/bloodbank/pkg/domain"
)

type demoDonor struct {
	nationalID string
	firstName  string
	lastName   string
	bloodType  id.BloodType
	birthYear  int
	health     donor.HealthStatus
	// donationsAgo lists approved donations as days before now.
	donationsAgo []int
}

var demoDonors = []demoDonor{
	{"200000001", "Dana", "Levi", id.ONeg, 1992, donor.HealthExcellent, []int{200, 120}},
	{"200000002", "Amir", "Cohen", id.ONeg, 1988, donor.HealthGood, []int{90}},
	{"200000003", "Noa", "Mizrahi", id.OPos, 1995, donor.HealthExcellent, []int{70}},
	{"200000004", "Yael", "Peretz", id.APos, 1983, donor.HealthGood, []int{400, 300, 100}},
	{"200000005", "Eitan", "Biton", id.ANeg, 1999, donor.HealthFair, nil},
	{"200000006", "Maya", "Azulay", id.BPos, 1990, donor.HealthGood, []int{60}},
	{"200000007", "Omer", "Katz", id.ABPos, 1986, donor.HealthExcellent, []int{150}},
	{"200000008", "Shira", "Friedman", id.ONeg, 1997, donor.HealthGood, nil},
}

// Demo loads a small roster of donors and their donation history. Meant for
// the in-memory stores in dev mode; it assumes empty stores and fails on the
// first conflict.
func Demo(ctx context.Context, donors donor.Store, donations donation.Store, now time.Time) error {
	for _, demo := range demoDonors {
		d := &donor.Donor{
			ID:          id.NewDonorID(),
			NationalID:  demo.nationalID,
			FirstName:   demo.firstName,
			LastName:    demo.lastName,
			DateOfBirth: time.Date(demo.birthYear, time.March, 15, 0, 0, 0, 0, time.UTC),
			BloodType:   demo.bloodType,
			PhoneNumber: "0521234567",

			HealthStatus:  demo.health,
			SmokingStatus: donor.SmokingNever,
			AlcoholUse:    donor.AlcoholSocial,

			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := donors.Create(ctx, d); err != nil {
			return fmt.Errorf("seed donor %s: %w", demo.nationalID, err)
		}
		for _, daysAgo := range demo.donationsAgo {
			date := now.AddDate(0, 0, -daysAgo)
			rec := &donation.Donation{
				ID:           id.NewDonationID(),
				DonorID:      d.ID,
				BloodType:    d.BloodType,
				DonationDate: date,
				VolumeML:     donation.UnitVolumeML,
				Approved:     true,
				Notes:        "seeded demo donation",
				CreatedAt:    date,
			}
			if err := donations.Create(ctx, rec); err != nil {
				return fmt.Errorf("seed donation for %s: %w", demo.nationalID, err)
			}
		}
	}
	return nil
}
