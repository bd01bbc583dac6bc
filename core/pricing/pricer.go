// Package pricing derives demand-responsive service prices from booking
// forecasts.
package pricing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/spos/core/events"
	"github.com/kilianp07/spos/core/forecast"
	"github.com/kilianp07/spos/core/logger"
	"github.com/kilianp07/spos/core/metrics"
	"github.com/kilianp07/spos/core/model"
	"github.com/kilianp07/spos/core/monitoring"
	"github.com/kilianp07/spos/core/store"
)

// Store is the subset of the data store a pricing run uses.
type Store interface {
	Services(ctx context.Context) ([]model.Service, error)
	Appointments(ctx context.Context, r store.Range) ([]model.Appointment, error)
	ReplacePricing(ctx context.Context, runID uuid.UUID, results []model.PricingResult) error
}

// Pricer computes and persists dynamic prices.
type Pricer struct {
	cfg       Config
	store     Store
	fitter    forecast.Fitter
	sink      metrics.MetricsSink
	publisher events.Publisher
	log       logger.Logger
	now       func() time.Time
}

// NewPricer wires a Pricer. Nil sink and publisher default to no-ops.
func NewPricer(cfg Config, st Store, fitter forecast.Fitter, sink metrics.MetricsSink, pub events.Publisher, log logger.Logger) *Pricer {
	cfg.SetDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Pricer{cfg: cfg, store: st, fitter: fitter, sink: sink, publisher: pub, log: logger.OrNop(log), now: time.Now}
}

// History returns the booking window used by Run.
func (p *Pricer) History() store.Range {
	now := p.now().UTC()
	if p.cfg.LookbackDays > 0 {
		return store.Range{Start: now.AddDate(0, 0, -(p.cfg.LookbackDays - 1)), End: now}
	}
	return store.MonthRange(now)
}

// Run prices every service with enough booking history and replaces the
// stored prices. Services lacking history are left out of the result.
func (p *Pricer) Run(ctx context.Context) ([]model.PricingResult, error) {
	start := p.now()
	runID := uuid.New()
	results, skipped, err := p.run(ctx, runID)
	if err != nil {
		monitoring.CaptureRun(err, monitoring.RunFailure{Module: "pricing", Kind: monitoring.RunPricing, RunID: runID.String()})
		return nil, err
	}

	ev := metrics.PricingRunEvent{RunID: runID.String(), Results: results, Skipped: skipped, Duration: p.now().Sub(start), Time: start}
	if rec, ok := p.sink.(metrics.PricingRecorder); ok {
		if err := rec.RecordPricingRun(ev); err != nil {
			p.log.Warnf("record pricing run: %v", err)
		}
	}
	if err := p.publisher.Publish(ctx, events.New(events.TypePricingComputed, runID.String(), results)); err != nil {
		p.log.Warnf("publish pricing event: %v", err)
	}
	p.log.Infow("dynamic pricing computed", map[string]any{
		"run_id":   runID.String(),
		"priced":   len(results),
		"skipped":  skipped,
		"duration": ev.Duration.String(),
	})
	return results, nil
}

func (p *Pricer) run(ctx context.Context, runID uuid.UUID) ([]model.PricingResult, int, error) {
	services, err := p.store.Services(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load services: %w", err)
	}
	appts, err := p.store.Appointments(ctx, p.History())
	if err != nil {
		return nil, 0, fmt.Errorf("load appointments: %w", err)
	}
	bookings := make(map[string][]time.Time)
	for _, a := range appts {
		for _, id := range a.ServiceIDs {
			bookings[id] = append(bookings[id], a.StartTime)
		}
	}

	results := make([]model.PricingResult, 0, len(services))
	skipped := 0
	for _, svc := range services {
		res, ok, err := p.price(svc, bookings[svc.ID])
		if err != nil {
			return nil, 0, fmt.Errorf("price %s: %w", svc.ID, err)
		}
		if !ok {
			skipped++
			continue
		}
		p.log.Debugw("service priced", map[string]any{
			"service_id": svc.ID, "base": res.BasePrice, "dynamic": res.DynamicPrice, "score": res.PopularityScore,
		})
		results = append(results, res)
	}
	if err := p.store.ReplacePricing(ctx, runID, results); err != nil {
		return nil, 0, fmt.Errorf("persist pricing: %w", err)
	}
	return results, skipped, nil
}

// price returns false when the service has too little history.
func (p *Pricer) price(svc model.Service, bookings []time.Time) (model.PricingResult, bool, error) {
	weekly := forecast.WeeklyCounts(bookings)
	// Empty weeks fill the series but do not count as history.
	booked := 0
	for _, w := range weekly {
		if w.Value > 0 {
			booked++
		}
	}
	if booked < p.cfg.MinWeeks {
		return model.PricingResult{}, false, nil
	}
	m, err := p.fitter.Fit(weekly)
	if err != nil {
		return model.PricingResult{}, false, err
	}
	preds := m.Predict(forecast.Ahead(weekly, p.cfg.ForecastDays))
	var fsum float64
	for _, pr := range preds {
		fsum += pr.Estimate
	}
	forecasted := fsum / float64(len(preds))

	var hsum float64
	for _, w := range weekly {
		hsum += w.Value
	}
	average := hsum / float64(len(weekly))

	score := Score(forecasted, average)
	dynamic := AdjustPrice(svc.Price, score)
	return model.PricingResult{
		ServiceID:        svc.ID,
		ServiceName:      svc.Name,
		BusinessID:       svc.BusinessID,
		BasePrice:        svc.Price,
		DynamicPrice:     dynamic,
		PopularityScore:  math.RoundToEven(score),
		PriceChange:      model.RoundCurrency(dynamic - svc.Price),
		ForecastedDemand: math.RoundToEven(forecasted),
	}, true, nil
}
