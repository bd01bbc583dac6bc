package metrics

import (
	"time"

	"github.com/kilianp07/spos/core/model"
)

// PlanRunEvent summarizes one weekly planning run.
type PlanRunEvent struct {
	RunID      string
	Strategy   string
	Found      bool
	Candidates int
	Plan       model.WeeklyPlan
	Duration   time.Duration
	Time       time.Time
}

// MetricsSink records planning runs for observability purposes.
type MetricsSink interface {
	RecordPlanRun(ev PlanRunEvent) error
}

// DemandEvent carries the per-weekday demand used by a planning run.
type DemandEvent struct {
	RunID  string
	Demand []model.WeekdayDemand
	Time   time.Time
}

// DemandRecorder records demand forecasts.
type DemandRecorder interface {
	RecordDemand(ev DemandEvent) error
}

// PricingRunEvent summarizes one dynamic pricing run.
type PricingRunEvent struct {
	RunID    string
	Results  []model.PricingResult
	Skipped  int
	Duration time.Duration
	Time     time.Time
}

// PricingRecorder records pricing runs.
type PricingRecorder interface {
	RecordPricingRun(ev PricingRunEvent) error
}

// ValidationEvent is the outcome of a validator. Baseline is the realized
// or static figure, Candidate the simulated or dynamic one.
type ValidationEvent struct {
	Kind          string
	Baseline      float64
	Candidate     float64
	PercentChange float64
	Time          time.Time
}

// ValidationRecorder records validation outcomes.
type ValidationRecorder interface {
	RecordValidation(ev ValidationEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlanRun(PlanRunEvent) error       { return nil }
func (NopSink) RecordDemand(DemandEvent) error         { return nil }
func (NopSink) RecordPricingRun(PricingRunEvent) error { return nil }
func (NopSink) RecordValidation(ValidationEvent) error { return nil }
