package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yazedalasad/bloodbank/internal/donation"
	id "github.com/yazedalasad/bloodbank/pkg/domain"
	"github.com/yazedalasad/bloodbank/pkg/testutil"
)

func TestReport(t *testing.T) {
	ctx := testutil.ContextAt(testutil.Day(2026, time.June, 1))
	store := donation.NewInMemoryStore()

	seed := func(bloodType id.BloodType, volumeML int, approved bool) {
		require.NoError(t, store.Create(ctx, &donation.Donation{
			ID:           id.NewDonationID(),
			DonorID:      id.NewDonorID(),
			BloodType:    bloodType,
			DonationDate: testutil.Day(2026, time.May, 1),
			VolumeML:     volumeML,
			Approved:     approved,
			CreatedAt:    testutil.Day(2026, time.May, 1),
		}))
	}
	seed(id.ONeg, 450, true)
	seed(id.ONeg, 450, true)
	seed(id.APos, 2700, true)
	seed(id.BPos, 450, false)

	report, err := Report(ctx, store)
	require.NoError(t, err)

	assert.Equal(t, testutil.Day(2026, time.June, 1), report.GeneratedAt)
	assert.Equal(t, 3600, report.TotalVolumeML)
	assert.Equal(t, 8.0, report.TotalUnits)
	require.Len(t, report.Levels, len(id.BloodTypes))

	byType := make(map[id.BloodType]StockLevel)
	for _, level := range report.Levels {
		byType[level.BloodType] = level
	}

	assert.Equal(t, 900, byType[id.ONeg].VolumeML)
	assert.Equal(t, 2.0, byType[id.ONeg].Units)
	assert.True(t, byType[id.ONeg].Critical)
	assert.InDelta(t, 0.25, byType[id.ONeg].Share, 1e-9)

	assert.Equal(t, 2700, byType[id.APos].VolumeML)
	assert.False(t, byType[id.APos].Critical)

	// The rejected B+ donation never counts.
	assert.Equal(t, 0, byType[id.BPos].VolumeML)
	assert.True(t, byType[id.BPos].Critical)
	assert.Zero(t, byType[id.BPos].Share)
}

func TestReportEmptyBank(t *testing.T) {
	ctx := testutil.ContextAt(testutil.Day(2026, time.June, 1))

	report, err := Report(ctx, donation.NewInMemoryStore())
	require.NoError(t, err)

	assert.Zero(t, report.TotalVolumeML)
	require.Len(t, report.Levels, len(id.BloodTypes))
	for _, level := range report.Levels {
		assert.Zero(t, level.VolumeML)
		assert.Zero(t, level.Share)
		assert.True(t, level.Critical)
	}
}
