package donor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "github.com/yazedalasad/bloodbank/pkg/domain"
	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
	"github.com/yazedalasad/bloodbank/pkg/testutil"
)

func validParams() RegisterParams {
	return RegisterParams{
		NationalID:  "123456789",
		FirstName:   "Dana",
		LastName:    "Levi",
		DateOfBirth: testutil.Day(1992, time.March, 15),
		BloodType:   id.APos,
		PhoneNumber: "0521234567",
	}
}

func TestNewDonor(t *testing.T) {
	now := testutil.Day(2026, time.June, 1)

	t.Run("valid", func(t *testing.T) {
		d, err := NewDonor(id.NewDonorID(), validParams(), now)
		require.NoError(t, err)
		assert.Equal(t, 34, d.Age(now))
		assert.Equal(t, "Dana Levi", d.FullName())
		assert.Equal(t, HealthGood, d.HealthStatus)
		assert.Equal(t, SmokingNever, d.SmokingStatus)
	})

	invalid := []struct {
		name   string
		mutate func(p *RegisterParams)
	}{
		{"short national id", func(p *RegisterParams) { p.NationalID = "12345" }},
		{"national id with letters", func(p *RegisterParams) { p.NationalID = "12345678a" }},
		{"missing name", func(p *RegisterParams) { p.FirstName = "" }},
		{"bad blood type", func(p *RegisterParams) { p.BloodType = "Z+" }},
		{"too young", func(p *RegisterParams) { p.DateOfBirth = now.AddDate(-18, 0, 1) }},
		{"too old", func(p *RegisterParams) { p.DateOfBirth = now.AddDate(-66, 0, 0) }},
		{"bad phone", func(p *RegisterParams) { p.PhoneNumber = "12345" }},
		{"chronic illness without details", func(p *RegisterParams) { p.HasChronicIllness = true }},
		{"future medical exam", func(p *RegisterParams) {
			future := now.AddDate(0, 1, 0)
			p.LastMedicalExam = &future
		}},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(&params)
			_, err := NewDonor(id.NewDonorID(), params, now)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		})
	}

	t.Run("age boundaries", func(t *testing.T) {
		params := validParams()
		params.DateOfBirth = now.AddDate(-18, 0, 0)
		_, err := NewDonor(id.NewDonorID(), params, now)
		assert.NoError(t, err, "18th birthday today is old enough")

		params.DateOfBirth = now.AddDate(-65, 0, 0)
		_, err = NewDonor(id.NewDonorID(), params, now)
		assert.NoError(t, err, "65 is still allowed")
	})

	t.Run("phone formats", func(t *testing.T) {
		for _, phone := range []string{"0521234567", "052-1234567", "+972521234567"} {
			params := validParams()
			params.PhoneNumber = phone
			_, err := NewDonor(id.NewDonorID(), params, now)
			assert.NoError(t, err, phone)
		}
	})
}

func TestAvailabilityScore(t *testing.T) {
	asOf := testutil.Day(2026, time.June, 1)

	base := &Donor{HealthStatus: HealthFair, SmokingStatus: SmokingNever, AlcoholUse: AlcoholNever}

	t.Run("never donated", func(t *testing.T) {
		assert.Equal(t, 100, AvailabilityScore(base, nil, asOf))
	})

	t.Run("deep inside the window", func(t *testing.T) {
		last := asOf.AddDate(0, 0, -10)
		// 46 days remaining, 2 points each.
		assert.Equal(t, 100-92, AvailabilityScore(base, &last, asOf))
	})

	t.Run("window just cleared", func(t *testing.T) {
		last := asOf.AddDate(0, 0, -56)
		assert.Equal(t, 100, AvailabilityScore(base, &last, asOf))
	})

	t.Run("health bonuses", func(t *testing.T) {
		excellent := &Donor{HealthStatus: HealthExcellent, SmokingStatus: SmokingNever, AlcoholUse: AlcoholNever}
		good := &Donor{HealthStatus: HealthGood, SmokingStatus: SmokingNever, AlcoholUse: AlcoholNever}
		assert.Equal(t, 120, AvailabilityScore(excellent, nil, asOf))
		assert.Equal(t, 110, AvailabilityScore(good, nil, asOf))
	})

	t.Run("lifestyle penalties", func(t *testing.T) {
		smoker := &Donor{HealthStatus: HealthFair, SmokingStatus: SmokingHeavy, AlcoholUse: AlcoholDaily}
		assert.Equal(t, 85, AvailabilityScore(smoker, nil, asOf))
	})

	t.Run("floored at zero", func(t *testing.T) {
		last := asOf.AddDate(0, 0, -1)
		poor := &Donor{HealthStatus: HealthPoor, SmokingStatus: SmokingHeavy, AlcoholUse: AlcoholDaily}
		assert.Equal(t, 0, AvailabilityScore(poor, &last, asOf))
	})
}
