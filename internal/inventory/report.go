package inventory

import (
	"context"
	"time"

	"github.com/yazedalasad/bloodbank/internal/donation"
	id "github.com/yazedalasad/bloodbank/pkg/domain"
	dErrors "github.com/yazedalasad/bloodbank/pkg/domain-errors"
	"github.com/yazedalasad/bloodbank/pkg/requestcontext"
)

// CriticalStockML is the per-type threshold below which stock is flagged
// critical: five standard units.
const CriticalStockML = 5 * donation.UnitVolumeML

// StockLevel is the ledger standing of one blood type.
type StockLevel struct {
	BloodType id.BloodType `json:"blood_type"`
	VolumeML  int          `json:"volume_ml"`
	Units     float64      `json:"units"`
	// Share is this type's fraction of total stock, 0 when the bank is empty.
	Share    float64 `json:"share"`
	Critical bool    `json:"critical"`
}

// StockReport is a point-in-time snapshot of the whole ledger.
type StockReport struct {
	GeneratedAt   time.Time    `json:"generated_at"`
	TotalVolumeML int          `json:"total_volume_ml"`
	TotalUnits    float64      `json:"total_units"`
	Levels        []StockLevel `json:"levels"`
}

// StockReader exposes the aggregate the report is built from.
type StockReader interface {
	TotalApprovedVolumeByBloodType(ctx context.Context) (map[id.BloodType]int, error)
}

// Report summarizes current stock across all eight blood types. Types with
// no stock appear with zero volume so the report shape is stable.
func Report(ctx context.Context, store StockReader) (*StockReport, error) {
	totals, err := store.TotalApprovedVolumeByBloodType(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load stock totals")
	}

	report := &StockReport{GeneratedAt: requestcontext.Now(ctx)}
	for _, total := range totals {
		report.TotalVolumeML += total
	}
	for _, bloodType := range id.BloodTypes {
		volume := totals[bloodType]
		level := StockLevel{
			BloodType: bloodType,
			VolumeML:  volume,
			Units:     donation.UnitsFor(volume),
			Critical:  volume < CriticalStockML,
		}
		if report.TotalVolumeML > 0 {
			level.Share = float64(volume) / float64(report.TotalVolumeML)
		}
		report.Levels = append(report.Levels, level)
	}
	report.TotalUnits = donation.UnitsFor(report.TotalVolumeML)
	return report, nil
}
