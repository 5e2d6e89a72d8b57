package donation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	id "github.com/yazedalasad/bloodbank/pkg/domain"
	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
	"github.com/yazedalasad/bloodbank/pkg/platform/events"
	"github.com/yazedalasad/bloodbank/pkg/platform/sentinel"
	"github.com/yazedalasad/bloodbank/pkg/requestcontext"

	"github.com/yazedalasad/bloodbank/internal/donor"
	"github.com/yazedalasad/bloodbank/internal/platform/metrics"
)

// DonorRegistry is the slice of the donor service this module needs.
type DonorRegistry interface {
	Get(ctx context.Context, donorID id.DonorID) (*donor.Donor, error)
}

// EventPublisher emits donation lifecycle events.
type EventPublisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Service records donations and answers eligibility questions.
type Service struct {
	store     Store
	donors    DonorRegistry
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

func NewService(store Store, donors DonorRegistry, opts ...Option) *Service {
	s := &Service{store: store, donors: donors}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record persists a new donation.
//
// The 56-day deferral rule is enforced here, at creation time: when the new
// donation is dated less than 56 days after the donor's immediately
// preceding approved donation by date, the record is saved not-approved with
// an explanatory note. It stays out of inventory but persists for audit.
// The check is never applied retroactively to later-dated records.
func (s *Service) Record(ctx context.Context, params RecordParams) (*Donation, error) {
	d, err := s.donors.Get(ctx, params.DonorID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	donationDate := params.DonationDate
	if donationDate.IsZero() {
		donationDate = now
	}
	// Stored dates are day-granular, like the DATE column in postgres. The
	// in-memory store must not behave differently.
	donationDate = CalendarDay(donationDate)
	volumeML := params.VolumeML
	if volumeML == 0 {
		volumeML = UnitVolumeML
	}
	if err := validateVolume(volumeML); err != nil {
		return nil, err
	}

	rec := &Donation{
		ID:           id.NewDonationID(),
		DonorID:      d.ID,
		BloodType:    d.BloodType,
		DonationDate: donationDate,
		VolumeML:     volumeML,
		Approved:     true,
		Notes:        params.Notes,
		CreatedAt:    now,
	}

	previous, err := s.store.LastApprovedBefore(ctx, d.ID, donationDate)
	switch {
	case err == nil:
		if gap := daysBetween(previous.DonationDate, donationDate); gap < DeferralDays {
			rec.Approved = false
			rec.Notes = fmt.Sprintf(
				"donation too early: last donated %s, eligible again from %s",
				previous.DonationDate.Format("2006-01-02"),
				previous.DonationDate.AddDate(0, 0, DeferralDays).Format("2006-01-02"),
			)
		}
	case errors.Is(err, sentinel.ErrNotFound):
		// First donation, nothing to defer against.
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation history")
	}

	if err := s.store.Create(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record donation")
	}

	if rec.Approved {
		s.logAudit(ctx, string(events.ActionDonationRecorded),
			"donation_id", rec.ID.String(),
			"donor_id", d.ID.String(),
			"volume_ml", rec.VolumeML,
		)
		s.emit(ctx, events.Event{
			Action:    events.ActionDonationRecorded,
			DonorID:   d.ID,
			BloodType: d.BloodType,
			VolumeML:  rec.VolumeML,
		})
		if s.metrics != nil {
			s.metrics.DonationsRecorded.Inc()
		}
	} else {
		s.logAudit(ctx, string(events.ActionDonationRejected),
			"donation_id", rec.ID.String(),
			"donor_id", d.ID.String(),
			"reason", rec.Notes,
		)
		s.emit(ctx, events.Event{
			Action:    events.ActionDonationRejected,
			DonorID:   d.ID,
			BloodType: d.BloodType,
			VolumeML:  rec.VolumeML,
			Reason:    rec.Notes,
		})
		if s.metrics != nil {
			s.metrics.DonationsRejected.Inc()
		}
	}

	return rec, nil
}

// CanDonate answers the 56-day rule for a donor as of the request time.
func (s *Service) CanDonate(ctx context.Context, donorID id.DonorID) (bool, error) {
	last, err := s.lastApprovedDate(ctx, donorID)
	if err != nil {
		return false, err
	}
	return CanDonate(last, requestcontext.Now(ctx)), nil
}

// DaysUntilEligible reports how many days remain before the donor may donate.
func (s *Service) DaysUntilEligible(ctx context.Context, donorID id.DonorID) (int, error) {
	last, err := s.lastApprovedDate(ctx, donorID)
	if err != nil {
		return 0, err
	}
	return DaysUntilEligible(last, requestcontext.Now(ctx)), nil
}

// History returns a donor's donations, most recent first.
func (s *Service) History(ctx context.Context, donorID id.DonorID) ([]*Donation, error) {
	if _, err := s.donors.Get(ctx, donorID); err != nil {
		return nil, err
	}
	records, err := s.store.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donations")
	}
	return records, nil
}

// LastApprovedDonationDates implements donor.HistoryReader for the locator.
func (s *Service) LastApprovedDonationDates(ctx context.Context) (map[id.DonorID]time.Time, error) {
	return s.store.LastApprovedDonationDates(ctx)
}

func (s *Service) lastApprovedDate(ctx context.Context, donorID id.DonorID) (*time.Time, error) {
	if _, err := s.donors.Get(ctx, donorID); err != nil {
		return nil, err
	}
	last, err := s.store.LastApproved(ctx, donorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation history")
	}
	date := last.DonationDate
	return &date, nil
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
