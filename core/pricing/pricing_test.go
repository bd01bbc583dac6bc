package pricing

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/spos/core/forecast"
	"github.com/kilianp07/spos/core/metrics"
	"github.com/kilianp07/spos/core/model"
	"github.com/kilianp07/spos/core/monitoring"
	"github.com/kilianp07/spos/core/store"
)

func TestScore(t *testing.T) {
	assert.Equal(t, 50.0, Score(12, 0))
	assert.Equal(t, 50.0, Score(3, 3))
	assert.InDelta(t, 50+50*math.Tanh(2), Score(2, 1), 1e-12)
	for _, f := range []float64{-50, -1, 0, 0.5, 1, 3, 1e6} {
		s := Score(f, 2)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 100.0)
	}
}

func TestAdjustPrice(t *testing.T) {
	cases := []struct {
		score float64
		want  float64
	}{
		{0, 17.99},
		{39.99, 17.99},
		{40, 19.99},
		{66, 19.99},
		{66.01, 21.99},
		{100, 21.99},
	}
	for _, tc := range cases {
		got := AdjustPrice(19.99, tc.score)
		assert.Equal(t, tc.want, got, "score %v", tc.score)
		assert.Contains(t, []float64{
			model.RoundCurrency(19.99 * 0.9), 19.99, model.RoundCurrency(19.99 * 1.1),
		}, got)
	}
}

type pricingSink struct {
	metrics.NopSink
	runs []metrics.PricingRunEvent
}

func (s *pricingSink) RecordPricingRun(ev metrics.PricingRunEvent) error {
	s.runs = append(s.runs, ev)
	return nil
}

func bookings(id string, days map[int]int) []model.Appointment {
	var out []model.Appointment
	for day, n := range days {
		for i := 0; i < n; i++ {
			out = append(out, model.Appointment{
				ID:         id + time.Date(2024, 5, day, 9+i, 0, 0, 0, time.UTC).Format("0102T15"),
				StartTime:  time.Date(2024, 5, day, 9+i, 0, 0, 0, time.UTC),
				ServiceIDs: []string{id},
			})
		}
	}
	return out
}

func TestPricerRun(t *testing.T) {
	ds := store.Dataset{Services: []model.Service{
		{ID: "up", Name: "Cut", BusinessID: "b1", Price: 40},
		{ID: "flat", Name: "Wash", BusinessID: "b1", Price: 25},
		{ID: "down", Name: "Color", BusinessID: "b1", Price: 50},
		{ID: "new", Name: "Nails", BusinessID: "b1", Price: 30},
	}}
	// Weeks end on May 5, 12, 19 and 26.
	ds.Appointments = append(ds.Appointments, bookings("up", map[int]int{3: 1, 8: 2, 15: 3, 22: 4})...)
	ds.Appointments = append(ds.Appointments, bookings("flat", map[int]int{2: 2, 9: 2, 16: 2, 23: 2})...)
	ds.Appointments = append(ds.Appointments, bookings("down", map[int]int{1: 4, 7: 3, 14: 2, 21: 1})...)
	ds.Appointments = append(ds.Appointments, bookings("new", map[int]int{27: 3})...)
	ds.Appointments = append(ds.Appointments, model.Appointment{ID: "old", StartTime: time.Date(2024, 4, 20, 9, 0, 0, 0, time.UTC), ServiceIDs: []string{"up"}})

	st := store.NewMemoryStore(ds)
	sink := &pricingSink{}
	p := NewPricer(Config{}, st, forecast.Regression{}, sink, nil, nil)
	p.now = func() time.Time { return time.Date(2024, 5, 28, 12, 0, 0, 0, time.UTC) }

	results, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	up, flat, down := results[0], results[1], results[2]
	assert.Equal(t, "up", up.ServiceID)
	assert.Equal(t, "Cut", up.ServiceName)
	assert.Equal(t, "b1", up.BusinessID)
	assert.Equal(t, 44.0, up.DynamicPrice)
	assert.Equal(t, 4.0, up.PriceChange)
	assert.Equal(t, 96.0, up.PopularityScore)
	assert.Equal(t, 5.0, up.ForecastedDemand)

	assert.Equal(t, 25.0, flat.DynamicPrice)
	assert.Equal(t, 0.0, flat.PriceChange)
	assert.Equal(t, 50.0, flat.PopularityScore)

	assert.Equal(t, 45.0, down.DynamicPrice)
	assert.Equal(t, -5.0, down.PriceChange)

	stored, err := st.Pricing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, results, stored)
	require.Len(t, sink.runs, 1)
	assert.Equal(t, 1, sink.runs[0].Skipped)
}

func TestPricerHistoryWindow(t *testing.T) {
	p := NewPricer(Config{LookbackDays: 7}, nil, nil, nil, nil, nil)
	p.now = func() time.Time { return time.Date(2024, 5, 28, 12, 0, 0, 0, time.UTC) }
	r := p.History()
	assert.Equal(t, 22, r.Start.Day())
	assert.Equal(t, 28, r.End.Day())

	p.cfg.LookbackDays = 0
	r = p.History()
	assert.Equal(t, 1, r.Start.Day())
	assert.Equal(t, 31, r.End.Day())
}

func TestPricerSkipsSparseWeeks(t *testing.T) {
	ds := store.Dataset{
		Services: []model.Service{{ID: "sparse", Price: 40}},
		// Four weekly buckets, two of them empty.
		Appointments: bookings("sparse", map[int]int{1: 3, 22: 3}),
	}
	st := store.NewMemoryStore(ds)
	sink := &pricingSink{}
	p := NewPricer(Config{}, st, forecast.Regression{}, sink, nil, nil)
	p.now = func() time.Time { return time.Date(2024, 5, 28, 0, 0, 0, 0, time.UTC) }

	results, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
	require.Len(t, sink.runs, 1)
	assert.Equal(t, 1, sink.runs[0].Skipped)

	p.cfg.MinWeeks = 2
	results, err = p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "sparse", results[0].ServiceID)
}

func TestPricerFitError(t *testing.T) {
	ds := store.Dataset{
		Services:     []model.Service{{ID: "up", Price: 40}},
		Appointments: bookings("up", map[int]int{3: 1, 8: 2, 15: 3}),
	}
	mon := &tagMonitor{}
	monitoring.Init(mon)
	defer monitoring.Init(monitoring.NopMonitor{})

	p := NewPricer(Config{}, store.NewMemoryStore(ds), &forecast.MockFitter{Err: errors.New("boom")}, nil, nil, nil)
	p.now = func() time.Time { return time.Date(2024, 5, 28, 0, 0, 0, 0, time.UTC) }
	_, err := p.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "pricing", mon.tags[monitoring.TagModule])
	assert.Equal(t, monitoring.RunPricing, mon.tags[monitoring.TagRunKind])
	assert.NotEmpty(t, mon.tags[monitoring.TagRunID])
}

type tagMonitor struct{ tags map[string]string }

func (m *tagMonitor) CaptureException(_ error, tags map[string]string) { m.tags = tags }
func (m *tagMonitor) Recover()                                        {}
func (m *tagMonitor) Flush(time.Duration)                             {}
