package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/spos/api/simulate"
	"github.com/kilianp07/spos/config"
	"github.com/kilianp07/spos/core/demand"
	"github.com/kilianp07/spos/core/events"
	"github.com/kilianp07/spos/core/forecast"
	coremetrics "github.com/kilianp07/spos/core/metrics"
	coremon "github.com/kilianp07/spos/core/monitoring"
	"github.com/kilianp07/spos/core/pricing"
	"github.com/kilianp07/spos/core/scheduler"
	corestore "github.com/kilianp07/spos/core/store"
	"github.com/kilianp07/spos/core/validate"
	"github.com/kilianp07/spos/infra/cron"
	"github.com/kilianp07/spos/infra/logger"
	"github.com/kilianp07/spos/infra/metrics"
	"github.com/kilianp07/spos/infra/monitoring"
	"github.com/kilianp07/spos/infra/store"

	// Publishers and sinks register themselves in their registries.
	_ "github.com/kilianp07/spos/infra/kafka"
	_ "github.com/kilianp07/spos/infra/mqtt"
	_ "github.com/kilianp07/spos/infra/runlog"
)

const shutdownTimeout = 5 * time.Second

// Service wires the store, the planning, pricing and validation runs and
// their outputs.
type Service struct {
	cfg       *config.Config
	Store     corestore.Store
	Planner   *scheduler.Planner
	Pricer    *pricing.Pricer
	Validator *validate.Validator
	sink      coremetrics.MetricsSink
	publisher events.Publisher
	log       logger.Logger
}

// New creates a Service from the configuration.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logger.Configure(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	pub, err := events.NewPublisher(cfg.Events)
	if err != nil {
		_ = coremetrics.Close(sink)
		_ = st.Close()
		return nil, fmt.Errorf("events publisher: %w", err)
	}

	fitter := forecast.Regression{}
	forecaster := demand.NewForecaster(cfg.Demand, fitter, logger.New("demand"))
	return &Service{
		cfg:       cfg,
		Store:     st,
		Planner:   scheduler.NewPlanner(cfg.Simulation, st, forecaster, sink, pub, logger.New("scheduler")),
		Pricer:    pricing.NewPricer(cfg.Pricing, st, fitter, sink, pub, logger.New("pricing")),
		Validator: validate.NewValidator(cfg.Validation, st, sink, logger.New("validate")),
		sink:      sink,
		publisher: pub,
		log:       logg,
	}, nil
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	var metricsHandler http.Handler
	for _, c := range s.cfg.Metrics.Sinks {
		if c.Type == "prometheus" {
			metricsHandler = promhttp.Handler()
		}
	}
	h := simulate.NewHandler(s.Planner, s.Pricer, s.Validator, s.Store, metricsHandler, logger.New("http"))
	h.SetRateLimit(s.cfg.HTTP.RateLimit, s.cfg.HTTP.RateBurst)
	return simulate.NewRouter(h)
}

// Run serves the HTTP API and the scheduled jobs until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	jobs, err := cron.Register(s.cfg.Schedule,
		func(ctx context.Context) error {
			_, err := s.Planner.Plan(ctx, scheduler.PlanRequest{})
			return err
		},
		func(ctx context.Context) error {
			_, err := s.Pricer.Run(ctx)
			return err
		},
	)
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	jobs.Start()
	defer func() {
		if err := jobs.Stop(); err != nil {
			s.log.Warnf("stop scheduler: %v", err)
		}
	}()

	if addr := s.cfg.Metrics.PrometheusAddress; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{Addr: s.cfg.HTTP.Address, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("http api listening on %s", s.cfg.HTTP.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	if err := s.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("publisher: %w", err))
	}
	if err := coremetrics.Close(s.sink); err != nil {
		errs = append(errs, fmt.Errorf("metrics: %w", err))
	}
	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
