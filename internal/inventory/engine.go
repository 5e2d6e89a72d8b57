// Package inventory holds the fulfillment engine, the emergency donor
// allocator, and the stock report. Inventory is not a table of its own: it is
// the ledger of approved, undepleted donation records, consumed oldest first.
package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yazedalasad/bloodbank/internal/donation"
	"github.com/yazedalasad/bloodbank/internal/inventory/metrics"
	id "github.com/yazedalasad/bloodbank/pkg/domain"
	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
)

// Ledger is the slice of the donation store the engine consumes from.
type Ledger interface {
	ListApprovedByBloodTypes(ctx context.Context, types []id.BloodType) ([]*donation.Donation, error)
	UpdateVolume(ctx context.Context, donationID id.DonationID, volumeML int) error
	Delete(ctx context.Context, donationID id.DonationID) error
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Draw is one deduction made against a ledger record during fulfillment.
type Draw struct {
	DonationID   id.DonationID `json:"donation_id"`
	DonorID      id.DonorID    `json:"donor_id"`
	BloodType    id.BloodType  `json:"blood_type"`
	DonationDate time.Time     `json:"donation_date"`
	VolumeML     int           `json:"volume_ml"`
	// Depleted marks records that were fully consumed and removed.
	Depleted bool `json:"depleted"`
}

// Result describes the outcome of one fulfillment attempt.
//
// Draws are committed even when the request could not be fully satisfied:
// fulfillment consumes what it touches. Callers that need all-or-nothing
// semantics check stock levels first.
type Result struct {
	Recipient   id.BloodType `json:"recipient"`
	Emergency   bool         `json:"emergency"`
	RequestedML int          `json:"requested_ml"`
	FulfilledML int          `json:"fulfilled_ml"`
	RemainingML int          `json:"remaining_ml"`
	Fulfilled   bool         `json:"fulfilled"`
	Draws       []Draw       `json:"draws"`
	// Log is the human-readable transaction trail, one line per draw.
	Log []string `json:"log"`
}

// Engine fulfills blood requests against the donation ledger.
//
// All fulfillment runs under a single mutex and a store transaction, so two
// concurrent requests can never deduct the same ledger volume twice.
type Engine struct {
	mu      sync.Mutex
	ledger  Ledger
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics.Metrics
}

type EngineOption func(e *Engine)

func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(ledger Ledger, opts ...EngineOption) *Engine {
	e := &Engine{
		ledger: ledger,
		tracer: otel.Tracer("bloodbank/inventory"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fulfill draws up to volumeML from the ledger for a recipient of the given
// blood type, oldest stock first across all compatible donor types.
//
// Emergency fulfillment narrows the candidate pool to O- regardless of the
// recipient's own type. Partially drawn records keep their reduced volume;
// records drawn to exactly zero are deleted.
func (e *Engine) Fulfill(ctx context.Context, recipient id.BloodType, volumeML int, emergency bool) (*Result, error) {
	if !recipient.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "malformed blood type: "+string(recipient))
	}
	if volumeML <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "requested volume must be positive")
	}

	ctx, span := e.tracer.Start(ctx, "inventory.fulfill", trace.WithAttributes(
		attribute.String("blood_type", string(recipient)),
		attribute.Int("requested_ml", volumeML),
		attribute.Bool("emergency", emergency),
	))
	defer span.End()

	start := time.Now()

	types := id.CompatibleDonors(recipient)
	if emergency {
		types = []id.BloodType{id.ONeg}
	}

	result := &Result{
		Recipient:   recipient,
		Emergency:   emergency,
		RequestedML: volumeML,
		RemainingML: volumeML,
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.ledger.RunInTx(ctx, func(ctx context.Context) error {
		records, err := e.ledger.ListApprovedByBloodTypes(ctx, types)
		if err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}
		for _, rec := range records {
			if result.RemainingML == 0 {
				break
			}
			draw := Draw{
				DonationID:   rec.ID,
				DonorID:      rec.DonorID,
				BloodType:    rec.BloodType,
				DonationDate: rec.DonationDate,
			}
			if rec.VolumeML <= result.RemainingML {
				draw.VolumeML = rec.VolumeML
				draw.Depleted = true
				if err := e.ledger.Delete(ctx, rec.ID); err != nil {
					return fmt.Errorf("deplete record %s: %w", rec.ID, err)
				}
			} else {
				draw.VolumeML = result.RemainingML
				if err := e.ledger.UpdateVolume(ctx, rec.ID, rec.VolumeML-draw.VolumeML); err != nil {
					return fmt.Errorf("draw from record %s: %w", rec.ID, err)
				}
			}
			result.RemainingML -= draw.VolumeML
			result.FulfilledML += draw.VolumeML
			result.Draws = append(result.Draws, draw)
			result.Log = append(result.Log, renderDraw(draw))
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "fulfillment failed")
	}

	result.Fulfilled = result.RemainingML == 0
	span.SetAttributes(
		attribute.Int("fulfilled_ml", result.FulfilledML),
		attribute.Bool("fulfilled", result.Fulfilled),
	)

	e.observe(ctx, result, time.Since(start))
	return result, nil
}

func renderDraw(d Draw) string {
	line := fmt.Sprintf("drew %dml of %s donated on %s (donation %s)",
		d.VolumeML, d.BloodType, d.DonationDate.Format("2006-01-02"), d.DonationID)
	if d.Depleted {
		line += ", record depleted"
	}
	return line
}

func (e *Engine) observe(ctx context.Context, result *Result, elapsed time.Duration) {
	if e.logger != nil {
		e.logger.InfoContext(ctx, "fulfillment completed",
			"blood_type", string(result.Recipient),
			"emergency", result.Emergency,
			"requested_ml", result.RequestedML,
			"fulfilled_ml", result.FulfilledML,
			"draws", len(result.Draws),
			"fulfilled", result.Fulfilled,
		)
	}
	if e.metrics == nil {
		return
	}
	outcome := metrics.OutcomeUnfulfilled
	switch {
	case result.Fulfilled:
		outcome = metrics.OutcomeFulfilled
	case result.FulfilledML > 0:
		outcome = metrics.OutcomePartial
	}
	e.metrics.Fulfillments.WithLabelValues(outcome).Inc()
	e.metrics.VolumeDispensedML.Add(float64(result.FulfilledML))
	e.metrics.FulfillmentDuration.Observe(elapsed.Seconds())
}
