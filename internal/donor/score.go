package donor

import "time"

// AvailabilityScore ranks how promptly a donor could give blood. Higher is
// more available. It feeds the emergency donor locator only; the fulfillment
// engine never looks at it.
//
// Scoring: start at 100, subtract 2 per day still remaining inside the
// 56-day deferral window, add 20 for excellent health or 10 for good health,
// subtract 10 for any smoking history and 5 for any alcohol use. Floored at 0.
func AvailabilityScore(d *Donor, lastDonation *time.Time, asOf time.Time) int {
	score := 100

	if lastDonation != nil {
		daysPassed := int(asOf.Sub(*lastDonation).Hours() / 24)
		if daysPassed < 56 {
			score -= (56 - daysPassed) * 2
		}
	}

	switch d.HealthStatus {
	case HealthExcellent:
		score += 20
	case HealthGood:
		score += 10
	}

	if d.SmokingStatus != SmokingNever {
		score -= 10
	}
	if d.AlcoholUse != AlcoholNever {
		score -= 5
	}

	if score < 0 {
		score = 0
	}
	return score
}
