// Package quota tracks the monthly external-API-call budget.
package quota

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/leadscout/lead-scout/internal/store"
)

// Period identifies one calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing t (UTC).
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return Period{Year: t.Year(), Month: t.Month()}
}

// String formats the period as "YYYY-MM", the storage key.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Next returns the following period, when the budget resets.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Stats is a snapshot of the current month's usage.
type Stats struct {
	Month          string  `json:"month"`
	CallsUsed      int     `json:"calls_used"`
	CallsLimit     int     `json:"calls_limit"`
	CallsRemaining int     `json:"calls_remaining"`
	PercentageUsed float64 `json:"percentage_used"`
}

// Tracker counts external API calls per calendar month against a limit.
// Counters live in the relational store so they survive restarts; the
// increment is an at-least-once upsert, never a read-modify-write in Go.
type Tracker struct {
	backend store.Backend
	limit   int
	now     func() time.Time
}

// NewTracker creates a tracker with the given monthly limit.
func NewTracker(backend store.Backend, limit int) *Tracker {
	return &Tracker{
		backend: backend,
		limit:   limit,
		now:     time.Now,
	}
}

// WithClock overrides the tracker's clock. Tests use this to exercise
// month rollover without waiting for one.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Remaining returns the current month's usage and the configured limit.
// A month with no counter record reads as zero.
func (t *Tracker) Remaining(ctx context.Context) (used, limit int, err error) {
	u, err := t.backend.Usage(ctx, PeriodOf(t.now()).String())
	if err != nil {
		return 0, 0, fmt.Errorf("reading usage: %w", err)
	}
	return u.CallCount, t.limit, nil
}

// Consume records n external API calls against the current month.
func (t *Tracker) Consume(ctx context.Context, n int) error {
	if err := t.backend.AddUsage(ctx, PeriodOf(t.now()).String(), n); err != nil {
		return fmt.Errorf("recording usage: %w", err)
	}
	return nil
}

// Stats returns the usage snapshot included in API responses.
func (t *Tracker) Stats(ctx context.Context) (*Stats, error) {
	used, limit, err := t.Remaining(ctx)
	if err != nil {
		return nil, err
	}

	var pct float64
	if limit > 0 {
		pct = math.Round(float64(used)/float64(limit)*1000) / 10
	}

	return &Stats{
		Month:          PeriodOf(t.now()).String(),
		CallsUsed:      used,
		CallsLimit:     limit,
		CallsRemaining: max(0, limit-used),
		PercentageUsed: pct,
	}, nil
}
