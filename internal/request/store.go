package request

import (
	"context"

	id "github.com/yazedalasad/bloodbank/pkg/domain"
)

// Store persists blood requests. Implementations return sentinel errors;
// the service translates them.
type Store interface {
	Create(ctx context.Context, r *BloodRequest) error
	FindByID(ctx context.Context, requestID id.RequestID) (*BloodRequest, error)
	Update(ctx context.Context, r *BloodRequest) error

	// List returns all requests, newest first.
	List(ctx context.Context) ([]*BloodRequest, error)

	// ListUnfulfilled returns open requests, oldest first, for triage.
	ListUnfulfilled(ctx context.Context) ([]*BloodRequest, error)
}

// EmergencyStore persists emergency requests. Implementations enforce the
// 24-hour window passively: expired requests stop appearing in reads. The
// redis store leans on a key TTL; the memory store filters on read.
type EmergencyStore interface {
	Create(ctx context.Context, e *EmergencyRequest) error

	// FindByID returns sentinel.ErrNotFound for unknown ids and
	// sentinel.ErrExpired for requests past their window, where the
	// implementation can still tell the difference.
	FindByID(ctx context.Context, requestID id.RequestID) (*EmergencyRequest, error)

	// ListActive returns requests still inside their window, newest first.
	ListActive(ctx context.Context) ([]*EmergencyRequest, error)
}
