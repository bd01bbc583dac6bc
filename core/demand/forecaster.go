// Package demand turns historical visits into the expected hourly visitor
// rate of every weekday.
package demand

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/spos/core/forecast"
	"github.com/kilianp07/spos/core/logger"
	"github.com/kilianp07/spos/core/model"
)

// DefaultHorizonDays is the number of days forecast past the last visit.
const DefaultHorizonDays = 30

// Config tunes the demand forecast.
type Config struct {
	HorizonDays int `json:"horizon_days" yaml:"horizon_days" koanf:"horizon_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.HorizonDays <= 0 {
		c.HorizonDays = DefaultHorizonDays
	}
}

// Input bundles the data the forecaster reads.
type Input struct {
	Visits        []time.Time
	OpenHours     model.OpenHours
	Profitability map[model.Weekday]model.DayProfitability
}

// Forecaster converts visits into per-weekday demand distributions.
type Forecaster struct {
	cfg    Config
	fitter forecast.Fitter
	log    logger.Logger
}

// NewForecaster returns a Forecaster using fitter for the time-series model.
func NewForecaster(cfg Config, fitter forecast.Fitter, log logger.Logger) *Forecaster {
	cfg.SetDefaults()
	return &Forecaster{cfg: cfg, fitter: fitter, log: logger.OrNop(log)}
}

// Forecast returns the demand of every weekday. Weekdays for which no rate
// can be derived get zero demand.
func (f *Forecaster) Forecast(in Input) (map[model.Weekday]model.WeekdayDemand, error) {
	daily := forecast.DailyCounts(in.Visits)
	if len(daily) == 0 {
		return nil, fmt.Errorf("no visits to forecast: %w", model.ErrInsufficientHistory)
	}
	for _, d := range model.Weekdays {
		if _, ok := in.Profitability[d]; !ok {
			return nil, fmt.Errorf("profitability for %s: %w", d, model.ErrDataCompleteness)
		}
	}
	m, err := f.fitter.Fit(daily)
	if err != nil {
		return nil, fmt.Errorf("fit visits: %w", err)
	}
	preds := m.Predict(forecast.FutureDates(daily, f.cfg.HorizonDays))

	byDay := make(map[model.Weekday][]float64, 7)
	for _, p := range preds {
		wd := model.WeekdayOf(p.Date)
		byDay[wd] = append(byDay[wd], p.Estimate)
	}

	rates := make(map[model.Weekday][]float64, 7)
	for _, p := range preds {
		wd := model.WeekdayOf(p.Date)
		rates[wd] = append(rates[wd], f.visitorsPerHour(wd, p.Estimate, in, byDay))
	}

	out := make(map[model.Weekday]model.WeekdayDemand, 7)
	for _, d := range model.Weekdays {
		out[d] = model.WeekdayDemand{Weekday: d, Mean: mean(rates[d]), StdDev: stdDev(rates[d])}
	}
	f.log.Debugw("demand forecast", map[string]any{"history_days": len(daily), "points": len(preds)})
	return out, nil
}

// visitorsPerHour derives the hourly rate for one forecast point. A weekday
// closed in the opening table but open by profitability borrows the average
// forecast of the open weekday with the closest profitability score.
func (f *Forecaster) visitorsPerHour(day model.Weekday, estimate float64, in Input, byDay map[model.Weekday][]float64) float64 {
	prof := in.Profitability[day]
	shouldBeClosed := prof.IsClosed
	oh, ok := in.OpenHours[day]
	// Rate applies when the table has the day and it is not closed by both
	// the table and profitability.
	if !ok || (oh.Closed && shouldBeClosed) {
		return 0
	}
	if !shouldBeClosed && oh.Closed {
		similar, found := mostSimilar(day, in.Profitability)
		if !found {
			return 0
		}
		values := byDay[similar]
		if len(values) == 0 {
			return 0
		}
		simHours, ok := in.OpenHours[similar]
		if !ok || simHours.Hours() <= 0 {
			return 0
		}
		return mean(values) * prof.Factor() / float64(simHours.Hours())
	}
	if oh.Hours() <= 0 {
		return 0
	}
	return estimate * prof.Factor() / float64(oh.Hours())
}

// mostSimilar returns the weekday, other than day, not flagged closed by
// profitability whose score is closest to day's. Ties go to the earlier weekday.
func mostSimilar(day model.Weekday, prof map[model.Weekday]model.DayProfitability) (model.Weekday, bool) {
	target := prof[day].Score
	best, found := model.Weekday(0), false
	bestDiff := math.Inf(1)
	for _, d := range model.Weekdays {
		p, ok := prof[d]
		if d == day || !ok || p.IsClosed {
			continue
		}
		if diff := math.Abs(p.Score - target); diff < bestDiff {
			best, bestDiff, found = d, diff, true
		}
	}
	return best, found
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// stdDev is the sample standard deviation, zero for fewer than two values.
func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}
