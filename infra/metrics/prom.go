package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coremetrics "github.com/kilianp07/spos/core/metrics"
	"github.com/kilianp07/spos/infra/logger"
)

// PromSink records planning, pricing and validation runs in Prometheus metrics.
type PromSink struct {
	runs       *prometheus.CounterVec
	duration   prometheus.Histogram
	candidates prometheus.Gauge
	profit     prometheus.Gauge
	laborHours prometheus.Gauge
	openDays   prometheus.Gauge
	dayProfit  *prometheus.GaugeVec
	demand     *prometheus.GaugeVec
	popularity *prometheus.GaugeVec
	price      *prometheus.GaugeVec
	skipped    prometheus.Gauge
	validation *prometheus.GaugeVec
}

// NewPromSink registers planning metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spos_plan_runs_total",
			Help: "Total number of weekly planning runs",
		}, []string{"strategy", "found"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spos_plan_run_duration_seconds",
			Help:    "Duration of weekly planning runs",
			Buckets: prometheus.DefBuckets,
		}),
		candidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spos_plan_candidates",
			Help: "Number of simulated candidates in the last planning run",
		}),
		profit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spos_plan_total_profit",
			Help: "Total simulated profit of the last weekly plan",
		}),
		laborHours: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spos_plan_labor_hours",
			Help: "Labor hours of the last weekly plan",
		}),
		openDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spos_plan_open_days",
			Help: "Open days of the last weekly plan",
		}),
		dayProfit: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spos_plan_day_profit",
			Help: "Simulated profit per weekday in the last weekly plan",
		}, []string{"weekday"}),
		demand: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spos_demand_visitors_per_hour",
			Help: "Forecast mean visitors per hour by weekday",
		}, []string{"weekday"}),
		popularity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spos_pricing_popularity_score",
			Help: "Popularity score per service in the last pricing run",
		}, []string{"service_id"}),
		price: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spos_pricing_dynamic_price",
			Help: "Dynamic price per service in the last pricing run",
		}, []string{"service_id"}),
		skipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spos_pricing_skipped_services",
			Help: "Services skipped for insufficient history in the last pricing run",
		}),
		validation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spos_validation_percent_change",
			Help: "Percentage change reported by the last validation of each kind",
		}, []string{"kind"}),
	}

	var err error
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	for _, g := range []*prometheus.Gauge{&s.candidates, &s.profit, &s.laborHours, &s.openDays, &s.skipped} {
		if *g, err = register(reg, *g); err != nil {
			return nil, err
		}
	}
	for _, g := range []**prometheus.GaugeVec{&s.dayProfit, &s.demand, &s.popularity, &s.price, &s.validation} {
		if *g, err = register(reg, *g); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// register adds c to reg, returning the existing collector when one with the
// same descriptor is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordPlanRun updates the run counter and the gauges of the last plan.
func (s *PromSink) RecordPlanRun(ev coremetrics.PlanRunEvent) error {
	s.runs.WithLabelValues(ev.Strategy, strconv.FormatBool(ev.Found)).Inc()
	s.duration.Observe(ev.Duration.Seconds())
	s.candidates.Set(float64(ev.Candidates))
	if !ev.Found {
		return nil
	}
	s.profit.Set(ev.Plan.TotalProfit())
	s.laborHours.Set(float64(ev.Plan.LaborHours()))
	s.openDays.Set(float64(ev.Plan.OpenDays()))
	for _, d := range ev.Plan.Days {
		s.dayProfit.WithLabelValues(d.Weekday.String()).Set(d.Profit)
	}
	return nil
}

// RecordDemand sets the forecast visitor rate per weekday.
func (s *PromSink) RecordDemand(ev coremetrics.DemandEvent) error {
	for _, d := range ev.Demand {
		s.demand.WithLabelValues(d.Weekday.String()).Set(d.Mean)
	}
	return nil
}

// RecordPricingRun sets the per-service pricing gauges.
func (s *PromSink) RecordPricingRun(ev coremetrics.PricingRunEvent) error {
	for _, r := range ev.Results {
		s.popularity.WithLabelValues(r.ServiceID).Set(r.PopularityScore)
		s.price.WithLabelValues(r.ServiceID).Set(r.DynamicPrice)
	}
	s.skipped.Set(float64(ev.Skipped))
	return nil
}

// RecordValidation sets the percentage change of the validation kind.
func (s *PromSink) RecordValidation(ev coremetrics.ValidationEvent) error {
	s.validation.WithLabelValues(ev.Kind).Set(ev.PercentChange)
	return nil
}

// StartPromServer serves the default registry on addr until ctx is canceled.
// It uses a dedicated ServeMux and blocks.
func StartPromServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.New("prometheus").Warnf("prom server shutdown: %v", err)
		}
		cancel()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
