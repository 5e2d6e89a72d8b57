package donor

import (
	"context"

	id "github.com/yazedalasad/bloodbank/pkg/domain"
)

// Store persists donor aggregates. Implementations return sentinel errors
// (sentinel.ErrNotFound, sentinel.ErrConflict); the service translates them.
type Store interface {
	// Create fails with sentinel.ErrConflict when the national ID is taken.
	Create(ctx context.Context, donor *Donor) error
	FindByID(ctx context.Context, donorID id.DonorID) (*Donor, error)
	FindByNationalID(ctx context.Context, nationalID string) (*Donor, error)
	Update(ctx context.Context, donor *Donor) error
	List(ctx context.Context) ([]*Donor, error)
	// ListByBloodTypes returns donors whose blood type is in the given set.
	ListByBloodTypes(ctx context.Context, types []id.BloodType) ([]*Donor, error)
}
