package scheduler

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/spos/core/logger"
	"github.com/kilianp07/spos/core/model"
)

// minStdDev keeps the visitor distribution from collapsing to a point.
const minStdDev = 0.1

// Simulator samples daily visitor counts and keeps the profitable outcomes
// of every catalog window as candidates.
type Simulator struct {
	cfg     Config
	eval    *Evaluator
	windows []model.ScheduleWindow
	log     logger.Logger
}

// NewSimulator returns a Simulator over the default catalog.
func NewSimulator(cfg Config, eval *Evaluator, log logger.Logger) *Simulator {
	cfg.SetDefaults()
	return &Simulator{cfg: cfg, eval: eval, windows: Catalog(), log: logger.OrNop(log)}
}

// Simulate returns the candidates of each weekday. The first candidate of
// every weekday is the closed sentinel; open candidates follow in catalog
// order, then trial order. Each weekday draws from its own stream derived
// from seed, so the result does not depend on scheduling.
func (s *Simulator) Simulate(ctx context.Context, demand map[model.Weekday]model.WeekdayDemand, seed uint64) (map[model.Weekday][]model.DayResult, error) {
	out := make(map[model.Weekday][]model.DayResult, len(model.Weekdays))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, d := range model.Weekdays {
		g.Go(func() error {
			cands, err := s.simulateDay(gctx, d, demand, seed)
			if err != nil {
				return err
			}
			mu.Lock()
			out[d] = cands
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Simulator) simulateDay(ctx context.Context, d model.Weekday, demand map[model.Weekday]model.WeekdayDemand, seed uint64) ([]model.DayResult, error) {
	cands := []model.DayResult{model.ClosedDay(d)}
	// Sunday never opens.
	if d == model.Sunday {
		return cands, nil
	}
	dem, ok := demand[d]
	if !ok {
		return nil, fmt.Errorf("demand for %s: %w", d, model.ErrDataCompleteness)
	}
	visitors := distuv.Normal{
		Mu:    dem.Mean,
		Sigma: math.Max(dem.StdDev, minStdDev),
		Src:   rand.NewPCG(seed, uint64(d)+1),
	}
	for _, w := range s.windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hours, err := w.Hours()
		if err != nil {
			return nil, err
		}
		for range s.cfg.Trials {
			visits := int(math.Max(0, math.Round(visitors.Rand()*float64(hours))))
			res, err := s.eval.Evaluate(hours, visits)
			if err != nil {
				return nil, fmt.Errorf("%s %s-%s: %w", d, w.Start, w.End, err)
			}
			if visits < s.cfg.MinVisitsForOpen || res.Profit < s.cfg.MinDailyProfit {
				continue
			}
			res.Weekday = d
			res.Window = &w
			cands = append(cands, res)
		}
	}
	s.log.Debugw("day simulated", map[string]any{"weekday": d.String(), "candidates": len(cands)})
	return cands, nil
}
