package request

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yazedalasad/bloodbank/internal/inventory"
	"github.com/yazedalasad/bloodbank/internal/platform/metrics"
	id "github.com/yazedalasad/bloodbank/pkg/domain"
	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
	"github.com/yazedalasad/bloodbank/pkg/platform/events"
	"github.com/yazedalasad/bloodbank/pkg/platform/sentinel"
	"github.com/yazedalasad/bloodbank/pkg/requestcontext"
)

// Fulfiller is the slice of the inventory engine this module invokes.
type Fulfiller interface {
	Fulfill(ctx context.Context, recipient id.BloodType, volumeML int, emergency bool) (*inventory.Result, error)
}

// EventPublisher emits request lifecycle events.
type EventPublisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Service runs the blood request lifecycle.
type Service struct {
	requests    Store
	emergencies EmergencyStore
	engine      Fulfiller
	logger      *slog.Logger
	publisher   EventPublisher
	metrics     *metrics.Metrics
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

func NewService(requests Store, emergencies EmergencyStore, engine Fulfiller, opts ...Option) *Service {
	s := &Service{requests: requests, emergencies: emergencies, engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitParams carries input for a new blood request.
type SubmitParams struct {
	PatientName string       `json:"patient_name"`
	BloodType   id.BloodType `json:"blood_type"`
	Units       int          `json:"units"`
	Priority    Priority     `json:"priority"`
	Emergency   bool         `json:"emergency"`
	Notes       string       `json:"notes"`
}

// Submit creates a request and immediately attempts fulfillment.
//
// The request is persisted before the engine runs, so a shortfall still
// leaves an open request behind for Retry. An emergency submission is forced
// to O- critical whatever blood type or priority the caller sent.
func (s *Service) Submit(ctx context.Context, params SubmitParams) (*BloodRequest, *inventory.Result, error) {
	r := &BloodRequest{
		ID:          id.NewRequestID(),
		RequesterID: requestcontext.ActorID(ctx),
		PatientName: params.PatientName,
		BloodType:   params.BloodType,
		Units:       params.Units,
		Priority:    params.Priority,
		Emergency:   params.Emergency,
		Notes:       params.Notes,
		RequestedAt: requestcontext.Now(ctx),
	}
	r.normalize()
	if err := r.validate(); err != nil {
		return nil, nil, err
	}

	if err := s.requests.Create(ctx, r); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create blood request")
	}
	s.logAudit(ctx, string(events.ActionRequestCreated),
		"blood_request_id", r.ID.String(),
		"blood_type", string(r.BloodType),
		"units", r.Units,
		"emergency", r.Emergency,
	)
	s.emit(ctx, events.Event{
		Action:    events.ActionRequestCreated,
		RequestID: r.ID,
		BloodType: r.BloodType,
		Units:     r.Units,
	})
	if s.metrics != nil {
		s.metrics.RequestsCreated.Inc()
	}

	result, err := s.fulfill(ctx, r)
	if err != nil {
		return nil, nil, err
	}
	return r, result, nil
}

// Retry re-runs fulfillment for an open request. Inventory consumed by
// earlier attempts stays consumed; the request only flips to fulfilled when
// an attempt leaves nothing remaining.
func (s *Service) Retry(ctx context.Context, requestID id.RequestID) (*BloodRequest, *inventory.Result, error) {
	r, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if r.Fulfilled {
		return nil, nil, dErrors.New(dErrors.CodeConflict, "blood request is already fulfilled")
	}
	result, err := s.fulfill(ctx, r)
	if err != nil {
		return nil, nil, err
	}
	return r, result, nil
}

func (s *Service) fulfill(ctx context.Context, r *BloodRequest) (*inventory.Result, error) {
	result, err := s.engine.Fulfill(ctx, r.BloodType, r.VolumeNeededML(), r.Emergency)
	if err != nil {
		return nil, err
	}

	action := events.ActionRequestPartial
	if result.Fulfilled {
		now := requestcontext.Now(ctx)
		r.Fulfilled = true
		r.FulfilledAt = &now
		if err := s.requests.Update(ctx, r); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update blood request")
		}
		action = events.ActionRequestFulfilled
	}

	s.logAudit(ctx, string(action),
		"blood_request_id", r.ID.String(),
		"fulfilled_ml", result.FulfilledML,
		"remaining_ml", result.RemainingML,
	)
	s.emit(ctx, events.Event{
		Action:    action,
		RequestID: r.ID,
		BloodType: r.BloodType,
		VolumeML:  result.FulfilledML,
		Units:     r.Units,
	})
	return result, nil
}

func (s *Service) Get(ctx context.Context, requestID id.RequestID) (*BloodRequest, error) {
	r, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "blood request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load blood request")
	}
	return r, nil
}

func (s *Service) List(ctx context.Context) ([]*BloodRequest, error) {
	out, err := s.requests.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list blood requests")
	}
	return out, nil
}

func (s *Service) ListOpen(ctx context.Context) ([]*BloodRequest, error) {
	out, err := s.requests.ListUnfulfilled(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list open blood requests")
	}
	return out, nil
}

// EmergencyParams carries input for an anonymous emergency request.
type EmergencyParams struct {
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	Units        int    `json:"units"`
	Notes        string `json:"notes"`
}

// OpenEmergency registers an anonymous emergency request for O- blood.
func (s *Service) OpenEmergency(ctx context.Context, params EmergencyParams) (*EmergencyRequest, error) {
	e := &EmergencyRequest{
		ID:           id.NewRequestID(),
		ContactName:  params.ContactName,
		ContactPhone: params.ContactPhone,
		Units:        params.Units,
		Notes:        params.Notes,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	if err := s.emergencies.Create(ctx, e); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create emergency request")
	}
	s.logAudit(ctx, string(events.ActionEmergencyRequestOpened),
		"emergency_request_id", e.ID.String(),
		"units", e.Units,
	)
	s.emit(ctx, events.Event{
		Action:    events.ActionEmergencyRequestOpened,
		RequestID: e.ID,
		BloodType: id.ONeg,
		Units:     e.Units,
	})
	return e, nil
}

func (s *Service) GetEmergency(ctx context.Context, requestID id.RequestID) (*EmergencyRequest, error) {
	e, err := s.emergencies.FindByID(ctx, requestID)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrExpired):
			return nil, dErrors.New(dErrors.CodeNotFound, "emergency request has expired")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "emergency request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load emergency request")
	}
	return e, nil
}

func (s *Service) ListActiveEmergencies(ctx context.Context) ([]*EmergencyRequest, error) {
	out, err := s.emergencies.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list emergency requests")
	}
	return out, nil
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
