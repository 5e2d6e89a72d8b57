package donor

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	id "github.com/yazedalasad/bloodbank/pkg/domain"
	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
	"github.com/yazedalasad/bloodbank/pkg/platform/events"
	"github.com/yazedalasad/bloodbank/pkg/platform/sentinel"
	"github.com/yazedalasad/bloodbank/pkg/requestcontext"

	"github.com/yazedalasad/bloodbank/internal/platform/metrics"
)

// EventPublisher is the slice of the events pipeline the donor registry uses.
type EventPublisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Service is the donor registry. It owns donor validation and translates
// store sentinels into coded domain errors.
type Service struct {
	store     Store
	logger    *slog.Logger
	publisher EventPublisher
	metrics   *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithEventPublisher(publisher EventPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a donor from administrative entry or self-registration.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Donor, error) {
	params.NationalID = strings.TrimSpace(params.NationalID)
	params.FirstName = strings.TrimSpace(params.FirstName)
	params.LastName = strings.TrimSpace(params.LastName)

	d, err := NewDonor(id.NewDonorID(), params, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.store.Create(ctx, d); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "national id is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create donor")
	}

	s.logAudit(ctx, string(events.ActionDonorRegistered), "donor_id", d.ID.String())
	s.emit(ctx, events.Event{Action: events.ActionDonorRegistered, DonorID: d.ID, BloodType: d.BloodType})
	if s.metrics != nil {
		s.metrics.DonorsRegistered.Inc()
	}
	return d, nil
}

// Get fetches one donor by ID.
func (s *Service) Get(ctx context.Context, donorID id.DonorID) (*Donor, error) {
	d, err := s.store.FindByID(ctx, donorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor")
	}
	return d, nil
}

// GetByNationalID fetches one donor by national ID.
func (s *Service) GetByNationalID(ctx context.Context, nationalID string) (*Donor, error) {
	nationalID = strings.TrimSpace(nationalID)
	if nationalID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "national id is required")
	}
	d, err := s.store.FindByNationalID(ctx, nationalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor")
	}
	return d, nil
}

// Update applies an administrative edit. All invariants are revalidated; the
// creation timestamp is preserved.
func (s *Service) Update(ctx context.Context, donorID id.DonorID, params RegisterParams) (*Donor, error) {
	existing, err := s.Get(ctx, donorID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	updated, err := NewDonor(donorID, params, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now

	if err := s.store.Update(ctx, updated); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "donor not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "national id is already registered")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update donor")
		}
	}
	return updated, nil
}

// List returns all donors ordered by name.
func (s *Service) List(ctx context.Context) ([]*Donor, error) {
	donors, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donors")
	}
	return donors, nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Emit(ctx, event)
}
