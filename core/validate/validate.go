// Package validate compares simulated and dynamic-pricing outputs against
// realized history.
package validate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/spos/core/logger"
	"github.com/kilianp07/spos/core/metrics"
	"github.com/kilianp07/spos/core/model"
	"github.com/kilianp07/spos/core/store"
)

// DefaultEvaluationPeriod is the number of booking days the pricing
// validation looks back over.
const DefaultEvaluationPeriod = 30

// Validation kinds reported to metrics sinks.
const (
	KindMonteCarlo = "monte_carlo"
	KindPricing    = "dynamic_pricing"
)

// Reference week of a month, inclusive day numbers.
const (
	referenceFirstDay = 6
	referenceLastDay  = 12
)

// Config tunes the validators.
type Config struct {
	EvaluationPeriodDays int `json:"evaluation_period_days" yaml:"evaluation_period_days" koanf:"evaluation_period_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.EvaluationPeriodDays <= 0 {
		c.EvaluationPeriodDays = DefaultEvaluationPeriod
	}
}

// MonteCarloResult compares a historical week with the stored weekly plan.
type MonteCarloResult struct {
	Month                 string  `json:"month"`
	HistoricalWeekRevenue float64 `json:"historical_week_revenue"`
	MonteCarloWeekRevenue float64 `json:"monte_carlo_week_revenue"`
	RevenueDifference     float64 `json:"revenue_difference"`
	PercentageChange      float64 `json:"percentage_change"`
}

// DailyRevenue is one day of the pricing validation.
type DailyRevenue struct {
	Date         string  `json:"date"`
	ActualDemand int     `json:"actual_demand"`
	Static       float64 `json:"daily_revenue_static"`
	Dynamic      float64 `json:"daily_revenue_dynamic"`
}

// PricingResult compares static and dynamic revenue over the evaluation period.
type PricingResult struct {
	StaticRevenue      float64        `json:"static_revenue"`
	DynamicRevenue     float64        `json:"dynamic_revenue"`
	RevenueImprovement float64        `json:"revenue_improvement (%)"`
	Days               []DailyRevenue `json:"days"`
}

// Validator runs both validations against a store.
type Validator struct {
	cfg   Config
	store store.Reader
	sink  metrics.MetricsSink
	log   logger.Logger
	now   func() time.Time
}

// NewValidator returns a Validator. A nil sink records nothing.
func NewValidator(cfg Config, st store.Reader, sink metrics.MetricsSink, log logger.Logger) *Validator {
	cfg.SetDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Validator{cfg: cfg, store: st, sink: sink, log: logger.OrNop(log), now: time.Now}
}

// ReferenceWeek returns the days 6 to 12 of month, formatted YYYY-MM. An
// empty month selects the previous calendar month.
func (v *Validator) ReferenceWeek(month string) (store.Range, string, error) {
	var first time.Time
	if month == "" {
		now := v.now().UTC()
		first = time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC)
	} else {
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return store.Range{}, "", fmt.Errorf("evaluation month %q: expected YYYY-MM", month)
		}
		first = t
	}
	r := store.Range{
		Start: first.AddDate(0, 0, referenceFirstDay-1),
		End:   first.AddDate(0, 0, referenceLastDay-1),
	}
	return r, first.Format("2006-01"), nil
}

// MonteCarlo compares the revenue of the reference week of month with the
// simulated revenue of the open days of the stored plan.
func (v *Validator) MonteCarlo(ctx context.Context, month string) (MonteCarloResult, error) {
	week, label, err := v.ReferenceWeek(month)
	if err != nil {
		return MonteCarloResult{}, err
	}
	appts, err := v.store.Appointments(ctx, week)
	if err != nil {
		return MonteCarloResult{}, fmt.Errorf("load appointments: %w", err)
	}
	if len(appts) == 0 {
		return MonteCarloResult{}, fmt.Errorf("no appointments in %s reference week: %w", label, model.ErrInsufficientHistory)
	}
	plan, found, err := v.store.WeeklyPlan(ctx)
	if err != nil {
		return MonteCarloResult{}, fmt.Errorf("load weekly plan: %w", err)
	}
	if !found {
		return MonteCarloResult{}, fmt.Errorf("no simulation results: %w", model.ErrInsufficientHistory)
	}

	var actual float64
	for _, a := range appts {
		actual += a.TotalPrice
	}
	var simulated float64
	for _, d := range plan.Days {
		if d.IsOpen {
			simulated += d.Revenue
		}
	}
	diff := simulated - actual
	pct := 0.0
	if actual != 0 {
		pct = diff / actual * 100
	}
	res := MonteCarloResult{
		Month:                 label,
		HistoricalWeekRevenue: model.RoundCurrency(actual),
		MonteCarloWeekRevenue: model.RoundCurrency(simulated),
		RevenueDifference:     model.RoundCurrency(diff),
		PercentageChange:      model.RoundCurrency(pct),
	}
	v.record(KindMonteCarlo, res.HistoricalWeekRevenue, res.MonteCarloWeekRevenue, res.PercentageChange)
	return res, nil
}

// demandFactor is the assumed demand response to a price change.
func demandFactor(dynamic, base float64) float64 {
	switch {
	case dynamic > base:
		return 1.1
	case dynamic < base:
		return 0.9
	default:
		return 1.0
	}
}

// Pricing replays the last evaluation period of booking days under static
// and dynamic prices.
func (v *Validator) Pricing(ctx context.Context) (PricingResult, error) {
	services, err := v.store.Services(ctx)
	if err != nil {
		return PricingResult{}, fmt.Errorf("load services: %w", err)
	}
	appts, err := v.store.Appointments(ctx, store.Range{})
	if err != nil {
		return PricingResult{}, fmt.Errorf("load appointments: %w", err)
	}
	dynamic, err := v.store.Pricing(ctx)
	if err != nil {
		return PricingResult{}, fmt.Errorf("load dynamic pricing: %w", err)
	}

	counts := make(map[string]int)
	for _, a := range appts {
		counts[a.StartTime.UTC().Format(time.DateOnly)]++
	}
	if len(counts) < v.cfg.EvaluationPeriodDays {
		return PricingResult{}, fmt.Errorf("%d booking days, need %d: %w", len(counts), v.cfg.EvaluationPeriodDays, model.ErrInsufficientHistory)
	}
	dates := make([]string, 0, len(counts))
	for d := range counts {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	dates = dates[len(dates)-v.cfg.EvaluationPeriodDays:]

	prices := make(map[string]float64, len(dynamic))
	for _, p := range dynamic {
		if _, ok := prices[p.ServiceID]; !ok {
			prices[p.ServiceID] = p.DynamicPrice
		}
	}

	var res PricingResult
	for _, date := range dates {
		demand := float64(counts[date])
		var static, dyn float64
		for _, svc := range services {
			price, ok := prices[svc.ID]
			if !ok {
				continue
			}
			dyn += demand * demandFactor(price, svc.Price) * price
			static += demand * svc.Price
		}
		day := DailyRevenue{
			Date:         date,
			ActualDemand: counts[date],
			Static:       model.RoundCurrency(static),
			Dynamic:      model.RoundCurrency(dyn),
		}
		res.Days = append(res.Days, day)
		res.StaticRevenue += day.Static
		res.DynamicRevenue += day.Dynamic
	}
	if res.StaticRevenue != 0 {
		res.RevenueImprovement = model.RoundCurrency((res.DynamicRevenue - res.StaticRevenue) / res.StaticRevenue * 100)
	}
	res.StaticRevenue = model.RoundCurrency(res.StaticRevenue)
	res.DynamicRevenue = model.RoundCurrency(res.DynamicRevenue)
	v.record(KindPricing, res.StaticRevenue, res.DynamicRevenue, res.RevenueImprovement)
	return res, nil
}

func (v *Validator) record(kind string, baseline, candidate, pct float64) {
	rec, ok := v.sink.(metrics.ValidationRecorder)
	if !ok {
		return
	}
	ev := metrics.ValidationEvent{Kind: kind, Baseline: baseline, Candidate: candidate, PercentChange: pct, Time: v.now()}
	if err := rec.RecordValidation(ev); err != nil {
		v.log.Warnf("record %s validation: %v", kind, err)
	}
}
