package donor

import (
	"context"
	"sort"
	"sync"

	id "github.com/yazedalasad/bloodbank/pkg/domain"
	"github.com/yazedalasad/bloodbank/pkg/platform/sentinel"
)

// InMemoryStore keeps donors in memory behind a RWMutex. Used in dev mode
// and as the test double for the postgres store.
type InMemoryStore struct {
	mu     sync.RWMutex
	donors map[id.DonorID]*Donor
	// byNationalID enforces national ID uniqueness.
	byNationalID map[string]id.DonorID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		donors:       make(map[id.DonorID]*Donor),
		byNationalID: make(map[string]id.DonorID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, d *Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byNationalID[d.NationalID]; taken {
		return sentinel.ErrConflict
	}
	cp := *d
	s.donors[d.ID] = &cp
	s.byNationalID[d.NationalID] = d.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, donorID id.DonorID) (*Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.donors[donorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *InMemoryStore) FindByNationalID(_ context.Context, nationalID string) (*Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	donorID, ok := s.byNationalID[nationalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.donors[donorID]
	return &cp, nil
}

func (s *InMemoryStore) Update(_ context.Context, d *Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.donors[d.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if existing.NationalID != d.NationalID {
		if owner, taken := s.byNationalID[d.NationalID]; taken && owner != d.ID {
			return sentinel.ErrConflict
		}
		delete(s.byNationalID, existing.NationalID)
		s.byNationalID[d.NationalID] = d.ID
	}
	cp := *d
	s.donors[d.ID] = &cp
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Donor, 0, len(s.donors))
	for _, d := range s.donors {
		cp := *d
		out = append(out, &cp)
	}
	sortDonors(out)
	return out, nil
}

func (s *InMemoryStore) ListByBloodTypes(_ context.Context, types []id.BloodType) ([]*Donor, error) {
	wanted := make(map[id.BloodType]struct{}, len(types))
	for _, t := range types {
		wanted[t] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Donor
	for _, d := range s.donors {
		if _, ok := wanted[d.BloodType]; ok {
			cp := *d
			out = append(out, &cp)
		}
	}
	sortDonors(out)
	return out, nil
}

// sortDonors orders by last name, first name for stable listings.
func sortDonors(donors []*Donor) {
	sort.Slice(donors, func(i, j int) bool {
		if donors[i].LastName != donors[j].LastName {
			return donors[i].LastName < donors[j].LastName
		}
		return donors[i].FirstName < donors[j].FirstName
	})
}
