package scraper

import (
	"context"
	"time"
)

// DefaultLoopBudget is the budget every page-local loop gets unless
// configured otherwise.
const DefaultLoopBudget = 10 * time.Second

// LoopStopper runs an action over a slice within a wall-clock budget.
// The deadline is checked between elements only, so a run can overshoot
// the budget by at most one action call.
type LoopStopper struct {
	budget time.Duration
	now    func() time.Time
}

// LoopReport describes how far a bounded loop got.
type LoopReport struct {
	Processed int
	Total     int
	Expired   bool
}

// NewLoopStopper returns a stopper with the given budget. A non-positive
// budget falls back to DefaultLoopBudget.
func NewLoopStopper(budget time.Duration) *LoopStopper {
	if budget <= 0 {
		budget = DefaultLoopBudget
	}
	return &LoopStopper{budget: budget, now: time.Now}
}

// Budget returns the configured budget.
func (s *LoopStopper) Budget() time.Duration { return s.budget }

// Run invokes fn on each item in order. Each call starts a fresh
// deadline. Iteration stops once the deadline has passed, when ctx is
// done, or as soon as fn returns an error; the error is returned as is.
// Skipped items are never revisited.
func Run[T any](ctx context.Context, s *LoopStopper, items []T, fn func(T) error) (LoopReport, error) {
	report := LoopReport{Total: len(items)}
	deadline := s.now().Add(s.budget)

	for _, item := range items {
		if err := fn(item); err != nil {
			return report, err
		}
		report.Processed++
		if report.Processed == report.Total {
			break
		}
		if !s.now().Before(deadline) {
			report.Expired = true
			break
		}
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
	}
	return report, nil
}
