package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
)

// TestCompatibility_Table pins the full transfusion compatibility table.
// Any change to these sets is a medical rule change and must be deliberate.
func TestCompatibility_Table(t *testing.T) {
	expected := map[BloodType][]BloodType{
		ONeg:  {ONeg},
		OPos:  {ONeg, OPos},
		ANeg:  {ONeg, ANeg},
		APos:  {ONeg, OPos, ANeg, APos},
		BNeg:  {ONeg, BNeg},
		BPos:  {ONeg, OPos, BNeg, BPos},
		ABNeg: {ONeg, ANeg, BNeg, ABNeg},
		ABPos: {ONeg, OPos, ANeg, APos, BNeg, BPos, ABNeg, ABPos},
	}
	for recipient, donors := range expected {
		assert.Equal(t, donors, CompatibleDonors(recipient), "recipient %s", recipient)
	}
}

func TestCompatibility_UniversalDonor(t *testing.T) {
	// O- must be acceptable for every recipient type.
	for _, recipient := range BloodTypes {
		assert.True(t, recipient.CanReceiveFrom(ONeg), "recipient %s must accept O-", recipient)
	}
	// O- recipients accept nothing but O-.
	for _, donor := range BloodTypes {
		if donor == ONeg {
			continue
		}
		assert.False(t, ONeg.CanReceiveFrom(donor), "O- must reject donor %s", donor)
	}
}

func TestParseBloodType(t *testing.T) {
	t.Run("accepts all eight types", func(t *testing.T) {
		for _, bt := range BloodTypes {
			parsed, err := ParseBloodType(string(bt))
			require.NoError(t, err)
			assert.Equal(t, bt, parsed)
		}
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, raw := range []string{"", "o-", "A", "AB", "C+", "O -"} {
			_, err := ParseBloodType(raw)
			require.Error(t, err, "input %q", raw)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		}
	})
}

func TestParseDonorID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseDonorID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseDonorID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseDonorID("00000000-0000-0000-0000-000000000000")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		id := NewDonorID()
		parsed, err := ParseDonorID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})
}
