// Package store defines the typed data-store contract used by the planning,
// pricing and validation runs, and an in-memory implementation.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/spos/core/model"
)

// Range selects records whose start time falls within [Start, End], both
// days inclusive. A zero bound is open.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the range.
func (r Range) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.lower()) {
		return false
	}
	if !r.End.IsZero() && !t.Before(r.upper()) {
		return false
	}
	return true
}

// Bounds returns the half-open instant range [lower, upper) covering the
// inclusive days. Zero bounds are returned unchanged.
func (r Range) Bounds() (lower, upper time.Time) {
	if !r.Start.IsZero() {
		lower = r.lower()
	}
	if !r.End.IsZero() {
		upper = r.upper()
	}
	return lower, upper
}

func (r Range) lower() time.Time {
	y, m, d := r.Start.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.Start.Location())
}

func (r Range) upper() time.Time {
	y, m, d := r.End.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, r.End.Location())
}

// MonthRange returns the range covering the calendar month containing t.
func MonthRange(t time.Time) Range {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return Range{Start: first, End: first.AddDate(0, 1, -1)}
}

// Reader exposes the input tables.
type Reader interface {
	DayProfitability(ctx context.Context) ([]model.DayProfitability, error)
	Services(ctx context.Context) ([]model.Service, error)
	Employees(ctx context.Context) ([]model.Employee, error)
	Appointments(ctx context.Context, r Range) ([]model.Appointment, error)
	OpenHours(ctx context.Context) (model.OpenHours, error)
	// WeeklyPlan returns the latest persisted plan. found is false when no
	// plan was stored.
	WeeklyPlan(ctx context.Context) (plan model.WeeklyPlan, found bool, err error)
	Pricing(ctx context.Context) ([]model.PricingResult, error)
}

// Writer persists run outputs with delete-then-insert semantics.
type Writer interface {
	// ReplaceWeeklyPlan deletes the stored plan and inserts plan. A nil plan
	// only deletes.
	ReplaceWeeklyPlan(ctx context.Context, runID uuid.UUID, plan *model.WeeklyPlan) error
	ReplacePricing(ctx context.Context, runID uuid.UUID, results []model.PricingResult) error
}

// Store is the data-store collaborator.
type Store interface {
	Reader
	Writer
	Importer
	Close() error
}

// Importer bulk-loads input tables.
type Importer interface {
	Import(ctx context.Context, ds Dataset) error
}
