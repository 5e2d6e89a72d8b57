package domain

import (
	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
)

// BloodType is one of the eight ABO/Rh blood types.
type BloodType string

const (
	ONeg  BloodType = "O-"
	OPos  BloodType = "O+"
	ANeg  BloodType = "A-"
	APos  BloodType = "A+"
	BNeg  BloodType = "B-"
	BPos  BloodType = "B+"
	ABNeg BloodType = "AB-"
	ABPos BloodType = "AB+"
)

// BloodTypes lists all valid blood types in display order.
var BloodTypes = []BloodType{APos, ANeg, BPos, BNeg, ABPos, ABNeg, OPos, ONeg}

func (b BloodType) String() string { return string(b) }

// Valid reports whether b is one of the eight ABO/Rh types.
func (b BloodType) Valid() bool {
	switch b {
	case ONeg, OPos, ANeg, APos, BNeg, BPos, ABNeg, ABPos:
		return true
	}
	return false
}

// ParseBloodType validates a raw blood type string at a trust boundary.
func ParseBloodType(raw string) (BloodType, error) {
	b := BloodType(raw)
	if !b.Valid() {
		return "", dErrors.New(dErrors.CodeValidation, "malformed blood type: "+raw)
	}
	return b, nil
}

// compatibility maps a recipient blood type to the donor types that may
// satisfy it under standard ABO/Rh transfusion rules. Order matters: the
// fulfillment engine walks candidate types in this order when building its
// ledger query, universal donor first.
var compatibility = map[BloodType][]BloodType{
	ONeg:  {ONeg},
	OPos:  {ONeg, OPos},
	ANeg:  {ONeg, ANeg},
	APos:  {ONeg, OPos, ANeg, APos},
	BNeg:  {ONeg, BNeg},
	BPos:  {ONeg, OPos, BNeg, BPos},
	ABNeg: {ONeg, ANeg, BNeg, ABNeg},
	ABPos: {ONeg, OPos, ANeg, APos, BNeg, BPos, ABNeg, ABPos},
}

// CompatibleDonors returns the donor blood types acceptable for a recipient
// of the given type. The returned slice is a copy; callers may reorder it.
//
// Emergency requests never consult this table: they restrict to O- only,
// modelling universal-donor transfusion when type-and-screen is not feasible.
func CompatibleDonors(recipient BloodType) []BloodType {
	donors, ok := compatibility[recipient]
	if !ok {
		return nil
	}
	out := make([]BloodType, len(donors))
	copy(out, donors)
	return out
}

// CanReceiveFrom reports whether a recipient of type r may receive blood of
// donor type d.
func (b BloodType) CanReceiveFrom(d BloodType) bool {
	for _, t := range compatibility[b] {
		if t == d {
			return true
		}
	}
	return false
}
