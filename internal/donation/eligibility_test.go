package donation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestCanDonate(t *testing.T) {
	last := day(2026, time.January, 1)

	t.Run("never donated", func(t *testing.T) {
		assert.True(t, CanDonate(nil, day(2026, time.March, 1)))
	})

	t.Run("window boundary", func(t *testing.T) {
		// 56 days after Jan 1 is Feb 26.
		assert.False(t, CanDonate(&last, last.AddDate(0, 0, DeferralDays-1)))
		assert.True(t, CanDonate(&last, last.AddDate(0, 0, DeferralDays)))
		assert.True(t, CanDonate(&last, last.AddDate(0, 0, DeferralDays+1)))
	})

	t.Run("same day", func(t *testing.T) {
		assert.False(t, CanDonate(&last, last))
	})

	t.Run("time of day ignored", func(t *testing.T) {
		afternoon := time.Date(2026, time.January, 1, 15, 4, 0, 0, time.UTC)
		morning := time.Date(2026, time.February, 26, 9, 0, 0, 0, time.UTC)
		assert.True(t, CanDonate(&afternoon, morning))
		assert.Equal(t, 0, DaysUntilEligible(&afternoon, morning))
	})
}

func TestDaysUntilEligible(t *testing.T) {
	last := day(2026, time.January, 1)

	assert.Equal(t, 0, DaysUntilEligible(nil, day(2026, time.January, 1)))
	assert.Equal(t, DeferralDays, DaysUntilEligible(&last, last))
	assert.Equal(t, 1, DaysUntilEligible(&last, last.AddDate(0, 0, DeferralDays-1)))
	assert.Equal(t, 0, DaysUntilEligible(&last, last.AddDate(0, 0, DeferralDays)))
	assert.Equal(t, 0, DaysUntilEligible(&last, last.AddDate(0, 0, 300)))
}

func TestEligibilityConsistency(t *testing.T) {
	// CanDonate and DaysUntilEligible must agree everywhere in the window.
	last := day(2026, time.June, 15)
	for offset := 0; offset <= DeferralDays+10; offset++ {
		asOf := last.AddDate(0, 0, offset)
		assert.Equal(t, DaysUntilEligible(&last, asOf) == 0, CanDonate(&last, asOf),
			"offset %d", offset)
	}
}

func TestDonationUnits(t *testing.T) {
	tests := []struct {
		volumeML int
		units    float64
	}{
		{450, 1.0},
		{900, 2.0},
		{350, 0.8},
		{500, 1.1},
		{225, 0.5},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.units, UnitsFor(tc.volumeML), "volume %d", tc.volumeML)
		d := &Donation{VolumeML: tc.volumeML}
		assert.Equal(t, tc.units, d.Units(), "volume %d", tc.volumeML)
	}
}
