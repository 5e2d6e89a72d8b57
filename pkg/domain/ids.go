// Package domain holds shared domain primitives: typed identifiers and the
// ABO/Rh blood type vocabulary with its transfusion compatibility table.
package domain

import (
	"github.com/google/uuid"

	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
)

// Typed UUIDs prevent cross-entity ID mixups at compile time. A DonorID can
// never be passed where a RequestID is expected.
type (
	DonorID    uuid.UUID
	DonationID uuid.UUID
	RequestID  uuid.UUID
)

func (id DonorID) String() string    { return uuid.UUID(id).String() }
func (id DonationID) String() string { return uuid.UUID(id).String() }
func (id RequestID) String() string  { return uuid.UUID(id).String() }

func (id DonorID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id DonationID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }

// IDs travel as canonical UUID strings in JSON and every other text encoding.
func (id DonorID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id DonationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id RequestID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *DonorID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = DonorID(parsed)
	return nil
}

func (id *DonationID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = DonationID(parsed)
	return nil
}

func (id *RequestID) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = RequestID(parsed)
	return nil
}

// NewDonorID generates a fresh donor identifier.
func NewDonorID() DonorID { return DonorID(uuid.New()) }

// NewDonationID generates a fresh donation identifier.
func NewDonationID() DonationID { return DonationID(uuid.New()) }

// NewRequestID generates a fresh blood request identifier.
func NewRequestID() RequestID { return RequestID(uuid.New()) }

// parseUUID enforces the trust-boundary invariant: IDs must be valid,
// non-empty, non-nil UUIDs.
func parseUUID(raw, entity string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, entity+" id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, entity+" id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, entity+" id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseDonorID validates and converts a raw string into a DonorID.
func ParseDonorID(raw string) (DonorID, error) {
	parsed, err := parseUUID(raw, "donor")
	return DonorID(parsed), err
}

// ParseDonationID validates and converts a raw string into a DonationID.
func ParseDonationID(raw string) (DonationID, error) {
	parsed, err := parseUUID(raw, "donation")
	return DonationID(parsed), err
}

// ParseRequestID validates and converts a raw string into a RequestID.
func ParseRequestID(raw string) (RequestID, error) {
	parsed, err := parseUUID(raw, "request")
	return RequestID(parsed), err
}
