package donation

import (
	"context"
	"sort"
	"sync"
	"time"

	id "github.com/yazedalasad/bloodbank/pkg/domain"
	"github.com/yazedalasad/bloodbank/pkg/platform/sentinel"
)

// InMemoryStore keeps donation records in memory behind a RWMutex.
type InMemoryStore struct {
	mu        sync.RWMutex
	donations map[id.DonationID]*Donation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{donations: make(map[id.DonationID]*Donation)}
}

func (s *InMemoryStore) Create(_ context.Context, d *Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.donations[d.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *d
	s.donations[d.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, donationID id.DonationID) (*Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.donations[donationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *InMemoryStore) ListByDonor(_ context.Context, donorID id.DonorID) ([]*Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Donation
	for _, d := range s.donations {
		if d.DonorID == donorID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DonationDate.After(out[j].DonationDate) })
	return out, nil
}

func (s *InMemoryStore) ListApprovedByBloodTypes(_ context.Context, types []id.BloodType) ([]*Donation, error) {
	wanted := make(map[id.BloodType]struct{}, len(types))
	for _, t := range types {
		wanted[t] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Donation
	for _, d := range s.donations {
		if !d.Approved || d.VolumeML <= 0 {
			continue
		}
		if _, ok := wanted[d.BloodType]; ok {
			cp := *d
			out = append(out, &cp)
		}
	}
	// FIFO: oldest stock first. Ties broken by creation time for a stable
	// walk order.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DonationDate.Equal(out[j].DonationDate) {
			return out[i].DonationDate.Before(out[j].DonationDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) UpdateVolume(_ context.Context, donationID id.DonationID, volumeML int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[donationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	d.VolumeML = volumeML
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, donationID id.DonationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.donations[donationID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.donations, donationID)
	return nil
}

func (s *InMemoryStore) LastApproved(_ context.Context, donorID id.DonorID) (*Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastApprovedBeforeLocked(donorID, nil)
}

func (s *InMemoryStore) LastApprovedBefore(_ context.Context, donorID id.DonorID, before time.Time) (*Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastApprovedBeforeLocked(donorID, &before)
}

// lastApprovedBeforeLocked finds the donor's latest approved donation,
// optionally restricted to dates strictly before a cutoff. Caller holds mu.
func (s *InMemoryStore) lastApprovedBeforeLocked(donorID id.DonorID, before *time.Time) (*Donation, error) {
	var latest *Donation
	for _, d := range s.donations {
		if d.DonorID != donorID || !d.Approved {
			continue
		}
		if before != nil && !d.DonationDate.Before(*before) {
			continue
		}
		if latest == nil || d.DonationDate.After(latest.DonationDate) {
			latest = d
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *InMemoryStore) LastApprovedDonationDates(_ context.Context) (map[id.DonorID]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.DonorID]time.Time)
	for _, d := range s.donations {
		if !d.Approved {
			continue
		}
		if current, ok := out[d.DonorID]; !ok || d.DonationDate.After(current) {
			out[d.DonorID] = d.DonationDate
		}
	}
	return out, nil
}

func (s *InMemoryStore) TotalVolumeByDonor(_ context.Context) (map[id.DonorID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.DonorID]int)
	for _, d := range s.donations {
		out[d.DonorID] += d.VolumeML
	}
	return out, nil
}

func (s *InMemoryStore) TotalApprovedVolumeByBloodType(_ context.Context) (map[id.BloodType]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.BloodType]int)
	for _, d := range s.donations {
		if d.Approved && d.VolumeML > 0 {
			out[d.BloodType] += d.VolumeML
		}
	}
	return out, nil
}

// RunInTx runs fn directly. Serialization of fulfillment sequences is the
// engine mutex's job in memory mode; there is no rollback here.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
