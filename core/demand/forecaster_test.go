package demand

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/spos/core/forecast"
	"github.com/kilianp07/spos/core/model"
)

var monday = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

func fixture() Input {
	var visits []time.Time
	for i := 0; i < 14; i++ {
		visits = append(visits, monday.AddDate(0, 0, i).Add(10*time.Hour))
	}
	open := model.OpenHours{
		model.Monday:    {From: 9, To: 17},
		model.Tuesday:   {Closed: true},
		model.Wednesday: {Closed: true},
		model.Thursday:  {From: 10, To: 18},
		model.Friday:    {From: 10, To: 18},
		model.Saturday:  {From: 10, To: 18},
		model.Sunday:    {Closed: true},
	}
	prof := map[model.Weekday]model.DayProfitability{
		model.Monday:    {Weekday: model.Monday, Score: 0},
		model.Tuesday:   {Weekday: model.Tuesday, Score: 2},
		model.Wednesday: {Weekday: model.Wednesday, Score: 10, IsClosed: true},
		model.Thursday:  {Weekday: model.Thursday, Score: 5},
		model.Friday:    {Weekday: model.Friday, Score: 5},
		model.Saturday:  {Weekday: model.Saturday, Score: 5},
		model.Sunday:    {Weekday: model.Sunday, Score: -5, IsClosed: true},
	}
	return Input{Visits: visits, OpenHours: open, Profitability: prof}
}

func TestForecastRates(t *testing.T) {
	fitter := &forecast.MockFitter{Estimate: func(time.Time) float64 { return 20 }}
	f := NewForecaster(Config{}, fitter, nil)
	got, err := f.Forecast(fixture())
	require.NoError(t, err)
	require.Len(t, got, 7)

	require.Len(t, fitter.Fitted, 1)
	assert.Len(t, fitter.Fitted[0], 14)

	assert.InDelta(t, 2.5, got[model.Monday].Mean, 1e-9)
	assert.InDelta(t, 0, got[model.Monday].StdDev, 1e-9)
	// Tuesday borrows Monday, the open day with the closest score.
	assert.InDelta(t, 20*1.1/8, got[model.Tuesday].Mean, 1e-9)
	assert.InDelta(t, 20*1.25/8, got[model.Thursday].Mean, 1e-9)
	assert.Equal(t, 0.0, got[model.Wednesday].Mean)
	assert.Equal(t, 0.0, got[model.Sunday].Mean)
}

func TestForecastSampleStdDev(t *testing.T) {
	fitter := &forecast.MockFitter{Estimate: func(d time.Time) float64 {
		if d.Before(monday.AddDate(0, 0, 7)) {
			return 8
		}
		return 16
	}}
	got, err := NewForecaster(Config{}, fitter, nil).Forecast(fixture())
	require.NoError(t, err)
	assert.InDelta(t, 13.0/7, got[model.Monday].Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(1.0/7), got[model.Monday].StdDev, 1e-9)
	assert.InDelta(t, (104.0/7)*1.1/8, got[model.Tuesday].Mean, 1e-9)
}

func TestForecastNoComparableDay(t *testing.T) {
	in := fixture()
	for d, p := range in.Profitability {
		if d != model.Tuesday {
			p.IsClosed = true
			in.Profitability[d] = p
		}
	}
	got, err := NewForecaster(Config{}, &forecast.MockFitter{Estimate: func(time.Time) float64 { return 20 }}, nil).Forecast(in)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got[model.Tuesday].Mean)
	// Monday is open in the table, so profitability alone keeps its own rate.
	assert.InDelta(t, 20*1.0/8, got[model.Monday].Mean, 1e-9)
}

func TestForecastErrors(t *testing.T) {
	f := NewForecaster(Config{}, &forecast.MockFitter{}, nil)

	in := fixture()
	in.Visits = nil
	_, err := f.Forecast(in)
	assert.True(t, errors.Is(err, model.ErrInsufficientHistory))

	in = fixture()
	delete(in.Profitability, model.Friday)
	_, err = f.Forecast(in)
	assert.True(t, errors.Is(err, model.ErrDataCompleteness))

	_, err = NewForecaster(Config{}, &forecast.MockFitter{Err: errors.New("boom")}, nil).Forecast(fixture())
	assert.Error(t, err)
}
