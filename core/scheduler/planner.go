package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/spos/core/demand"
	"github.com/kilianp07/spos/core/events"
	"github.com/kilianp07/spos/core/logger"
	"github.com/kilianp07/spos/core/metrics"
	"github.com/kilianp07/spos/core/model"
	"github.com/kilianp07/spos/core/monitoring"
	"github.com/kilianp07/spos/core/store"
)

// PlanStore is the subset of the data store a planning run uses.
type PlanStore interface {
	store.Reader
	store.Writer
}

// PlanRequest overrides the configured parameters for one run. Zero Runs
// and Seed and nil pointers keep the configuration.
type PlanRequest struct {
	// Runs is expanded to Runs*TrialsPerRun trials.
	Runs           int
	MaxWeeklyHours *int
	MinWeeklyHours *int
	OpenDays       *int
	Seed           uint64
}

// PlanResult is the outcome of a planning run.
type PlanResult struct {
	RunID      uuid.UUID                             `json:"run_id"`
	Plan       model.WeeklyPlan                      `json:"plan"`
	Found      bool                                  `json:"found"`
	Candidates int                                   `json:"candidates"`
	Demand     map[model.Weekday]model.WeekdayDemand `json:"demand"`
	Seed       uint64                                `json:"seed"`
}

// Planner runs the full weekly planning pipeline: load, forecast,
// simulate, optimize and persist.
type Planner struct {
	cfg        Config
	store      PlanStore
	forecaster *demand.Forecaster
	sink       metrics.MetricsSink
	publisher  events.Publisher
	log        logger.Logger
	now        func() time.Time
}

// NewPlanner wires a Planner. Nil sink and publisher default to no-ops.
func NewPlanner(cfg Config, st PlanStore, f *demand.Forecaster, sink metrics.MetricsSink, pub events.Publisher, log logger.Logger) *Planner {
	cfg.SetDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Planner{cfg: cfg, store: st, forecaster: f, sink: sink, publisher: pub, log: logger.OrNop(log), now: time.Now}
}

// Config returns the planner configuration with defaults applied.
func (p *Planner) Config() Config { return p.cfg }

func (p *Planner) configFor(req PlanRequest) (Config, error) {
	cfg := p.cfg
	if req.Runs > 0 {
		cfg.Trials = req.Runs * TrialsPerRun
	}
	if req.MaxWeeklyHours != nil {
		cfg.MaxWeeklyHours = *req.MaxWeeklyHours
	}
	if req.MinWeeklyHours != nil {
		cfg.MinWeeklyHours = *req.MinWeeklyHours
	}
	if req.OpenDays != nil {
		cfg.OpenDays = req.OpenDays
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(p.now().UnixNano())
	}
	// An empty hours range is not an error: the optimizer finds no plan.
	return cfg, cfg.validateRun()
}

// Plan computes and persists the weekly plan. An infeasible week is not an
// error: the result has Found false and the stored plan is cleared.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (PlanResult, error) {
	start := p.now()
	runID := uuid.New()
	res, err := p.plan(ctx, runID, req)
	if err != nil {
		monitoring.CaptureRun(err, monitoring.RunFailure{
			Module: "scheduler",
			Kind:   monitoring.RunPlan,
			RunID:  runID.String(),
			Extra:  map[string]string{"strategy": p.cfg.Strategy},
		})
		p.log.Errorf("plan run %s failed: %v", runID, err)
		return res, err
	}

	ev := metrics.PlanRunEvent{
		RunID:      runID.String(),
		Strategy:   p.cfg.Strategy,
		Found:      res.Found,
		Candidates: res.Candidates,
		Plan:       res.Plan,
		Duration:   p.now().Sub(start),
		Time:       start,
	}
	if err := p.sink.RecordPlanRun(ev); err != nil {
		p.log.Warnf("record plan run: %v", err)
	}
	if rec, ok := p.sink.(metrics.DemandRecorder); ok {
		dem := make([]model.WeekdayDemand, 0, len(res.Demand))
		for _, d := range model.Weekdays {
			dem = append(dem, res.Demand[d])
		}
		if err := rec.RecordDemand(metrics.DemandEvent{RunID: runID.String(), Demand: dem, Time: start}); err != nil {
			p.log.Warnf("record demand: %v", err)
		}
	}
	if err := p.publisher.Publish(ctx, events.New(events.TypePlanComputed, runID.String(), res)); err != nil {
		p.log.Warnf("publish plan event: %v", err)
	}
	p.log.Infow("weekly plan computed", map[string]any{
		"run_id":       runID.String(),
		"found":        res.Found,
		"candidates":   res.Candidates,
		"total_profit": res.Plan.TotalProfit(),
		"labor_hours":  res.Plan.LaborHours(),
		"open_days":    res.Plan.OpenDays(),
		"duration_ms":  ev.Duration.Milliseconds(),
	})
	return res, nil
}

func (p *Planner) plan(ctx context.Context, runID uuid.UUID, req PlanRequest) (PlanResult, error) {
	res := PlanResult{RunID: runID}
	cfg, err := p.configFor(req)
	if err != nil {
		return res, err
	}
	res.Seed = cfg.Seed

	in, eval, err := p.load(ctx)
	if err != nil {
		return res, err
	}
	dem, err := p.forecaster.Forecast(in)
	if err != nil {
		return res, fmt.Errorf("forecast demand: %w", err)
	}
	res.Demand = dem

	cands, err := NewSimulator(cfg, eval, p.log).Simulate(ctx, dem, cfg.Seed)
	if err != nil {
		return res, fmt.Errorf("simulate: %w", err)
	}
	for _, cs := range cands {
		res.Candidates += len(cs)
	}

	plan, found, err := NewOptimizer(cfg.Strategy, cfg.MaxCombinations).Optimize(cands, cfg.Constraints())
	if err != nil {
		return res, fmt.Errorf("optimize: %w", err)
	}
	res.Plan, res.Found = plan, found

	var stored *model.WeeklyPlan
	if found {
		stored = &plan
	}
	if err := p.store.ReplaceWeeklyPlan(ctx, runID, stored); err != nil {
		return res, fmt.Errorf("persist plan: %w", err)
	}
	return res, nil
}

func (p *Planner) load(ctx context.Context) (demand.Input, *Evaluator, error) {
	var in demand.Input
	rows, err := p.store.DayProfitability(ctx)
	if err != nil {
		return in, nil, fmt.Errorf("load day_profitability: %w", err)
	}
	in.Profitability = make(map[model.Weekday]model.DayProfitability, len(rows))
	for _, r := range rows {
		in.Profitability[r.Weekday] = r
	}
	for _, d := range model.Weekdays {
		if _, ok := in.Profitability[d]; !ok {
			return in, nil, fmt.Errorf("day_profitability missing %s: %w", d, model.ErrDataCompleteness)
		}
	}

	services, err := p.store.Services(ctx)
	if err != nil {
		return in, nil, fmt.Errorf("load services: %w", err)
	}
	employees, err := p.store.Employees(ctx)
	if err != nil {
		return in, nil, fmt.Errorf("load employees: %w", err)
	}
	eval, err := NewEvaluator(services, employees)
	if err != nil {
		return in, nil, err
	}

	appts, err := p.store.Appointments(ctx, store.Range{})
	if err != nil {
		return in, nil, fmt.Errorf("load appointments: %w", err)
	}
	in.Visits = make([]time.Time, len(appts))
	for i, a := range appts {
		in.Visits[i] = a.StartTime
	}

	in.OpenHours, err = p.store.OpenHours(ctx)
	if err != nil {
		return in, nil, fmt.Errorf("load open_hours: %w", err)
	}
	if len(in.OpenHours) == 0 {
		return in, nil, fmt.Errorf("open_hours empty: %w", model.ErrDataCompleteness)
	}
	return in, eval, nil
}
