// Package testutil holds small helpers shared across package tests.
package testutil

import (
	"context"
	"time"

	"github.com/yazedalasad/bloodbank/pkg/requestcontext"
)

// ContextAt returns a context whose request-scoped clock is pinned to t.
// Eligibility and expiry tests use this to step through the 56-day window
// without sleeping.
func ContextAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

// Day builds a date at midnight UTC. Donation dates are day-granular.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
