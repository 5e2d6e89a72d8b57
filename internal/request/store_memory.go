package request

import (
	"context"
	"sort"
	"sync"

	id "github.com/yazedalasad/bloodbank/pkg/domain"
	"github.com/yazedalasad/bloodbank/pkg/platform/sentinel"
	"github.com/yazedalasad/bloodbank/pkg/requestcontext"
)

// InMemoryStore keeps blood requests in memory behind a RWMutex.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*BloodRequest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[id.RequestID]*BloodRequest)}
}

func (s *InMemoryStore) Create(_ context.Context, r *BloodRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[r.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *r
	s.requests[r.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, requestID id.RequestID) (*BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *InMemoryStore) Update(_ context.Context, r *BloodRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *r
	s.requests[r.ID] = &cp
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*BloodRequest, 0, len(s.requests))
	for _, r := range s.requests {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

func (s *InMemoryStore) ListUnfulfilled(_ context.Context) ([]*BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*BloodRequest
	for _, r := range s.requests {
		if r.Fulfilled {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

// InMemoryEmergencyStore keeps emergency requests in memory. Expired entries
// are filtered at read time, mirroring the redis TTL behavior.
type InMemoryEmergencyStore struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*EmergencyRequest
}

func NewInMemoryEmergencyStore() *InMemoryEmergencyStore {
	return &InMemoryEmergencyStore{requests: make(map[id.RequestID]*EmergencyRequest)}
}

func (s *InMemoryEmergencyStore) Create(_ context.Context, e *EmergencyRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[e.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *e
	s.requests[e.ID] = &cp
	return nil
}

func (s *InMemoryEmergencyStore) FindByID(ctx context.Context, requestID id.RequestID) (*EmergencyRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !e.IsActive(requestcontext.Now(ctx)) {
		return nil, sentinel.ErrExpired
	}
	cp := *e
	return &cp, nil
}

func (s *InMemoryEmergencyStore) ListActive(ctx context.Context) ([]*EmergencyRequest, error) {
	now := requestcontext.Now(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*EmergencyRequest
	for _, e := range s.requests {
		if !e.IsActive(now) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
