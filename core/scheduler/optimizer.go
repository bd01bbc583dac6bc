package scheduler

import (
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/spos/core/model"
)

// ErrBudgetExceeded is returned when exhaustive enumeration would exceed the
// configured number of combinations.
var ErrBudgetExceeded = errors.New("combination budget exceeded")

// Constraints bound the weekly plan. Labor hours are inclusive bounds.
// TargetOpenDays, when set, fixes the number of open days.
type Constraints struct {
	MaxWeeklyHours int
	MinWeeklyHours int
	TargetOpenDays *int
}

func (c Constraints) accepts(hours, open int) bool {
	if hours < c.MinWeeklyHours || hours > c.MaxWeeklyHours {
		return false
	}
	return c.TargetOpenDays == nil || open == *c.TargetOpenDays
}

// Optimizer picks one candidate per weekday maximizing total profit.
//
// Among plans of equal profit the one whose candidate indexes, read Monday
// to Sunday, are lexicographically smallest wins. This is the first plan met
// when enumerating the Cartesian product with Sunday varying fastest, so
// both strategies return the same plan.
type Optimizer struct {
	strategy string
	budget   int64
}

// NewOptimizer returns an optimizer for strategy. maxCombinations bounds the
// exhaustive strategy.
func NewOptimizer(strategy string, maxCombinations int64) *Optimizer {
	if strategy == "" {
		strategy = StrategyDP
	}
	if maxCombinations <= 0 {
		maxCombinations = DefaultMaxCombinations
	}
	return &Optimizer{strategy: strategy, budget: maxCombinations}
}

// Optimize selects the weekly plan. found is false when no combination
// satisfies c. Every weekday must have at least one candidate.
func (o *Optimizer) Optimize(cands map[model.Weekday][]model.DayResult, c Constraints) (model.WeeklyPlan, bool, error) {
	var days [7][]model.DayResult
	for _, d := range model.Weekdays {
		if len(cands[d]) == 0 {
			return model.WeeklyPlan{}, false, fmt.Errorf("no candidates for %s: %w", d, model.ErrDataCompleteness)
		}
		days[d] = cands[d]
	}
	if c.MinWeeklyHours > c.MaxWeeklyHours || c.MaxWeeklyHours < 0 {
		return model.WeeklyPlan{}, false, nil
	}

	var picks [7]int
	var found bool
	switch o.strategy {
	case StrategyDP:
		picks, found = optimizeDP(days, c)
	case StrategyExhaustive:
		var err error
		picks, found, err = optimizeExhaustive(days, c, o.budget)
		if err != nil {
			return model.WeeklyPlan{}, false, err
		}
	default:
		return model.WeeklyPlan{}, false, fmt.Errorf("unknown strategy %q", o.strategy)
	}
	if !found {
		return model.WeeklyPlan{}, false, nil
	}
	var plan model.WeeklyPlan
	for d, i := range picks {
		plan.Days[d] = days[d][i]
	}
	return plan, true, nil
}

func openCount(r model.DayResult) int {
	if r.IsOpen {
		return 1
	}
	return 0
}

// optimizeExhaustive walks the Cartesian product like an odometer.
func optimizeExhaustive(days [7][]model.DayResult, c Constraints, budget int64) ([7]int, bool, error) {
	total := int64(1)
	for _, cs := range days {
		if total > math.MaxInt64/int64(len(cs)) {
			return [7]int{}, false, fmt.Errorf("product overflows: %w", ErrBudgetExceeded)
		}
		total *= int64(len(cs))
	}
	if total > budget {
		return [7]int{}, false, fmt.Errorf("%d combinations over budget %d: %w", total, budget, ErrBudgetExceeded)
	}

	var idx, best [7]int
	var bestProfit int64
	found := false
	for {
		hours, open := 0, 0
		var profit int64
		for d, i := range idx {
			r := days[d][i]
			hours += r.LaborHours()
			open += openCount(r)
			profit += model.Cents(r.Profit)
		}
		if c.accepts(hours, open) && (!found || profit > bestProfit) {
			best, bestProfit, found = idx, profit, true
		}
		d := len(idx) - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < len(days[d]) {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return best, found, nil
		}
	}
}

type dpCell struct {
	ok     bool
	profit int64
	pick   int
}

// optimizeDP solves the search backwards over states (weekday, labor hours
// used so far, open days so far). A cell holds the best completion of the
// remaining weekdays; scanning candidates in order and replacing only on a
// strictly better profit keeps the lexicographically smallest completion.
func optimizeDP(days [7][]model.DayResult, c Constraints) ([7]int, bool) {
	// No state can exceed the sum of the largest daily labor hours.
	maxH := 0
	for _, cs := range days {
		most := 0
		for _, r := range cs {
			most = max(most, r.LaborHours())
		}
		maxH += most
	}
	maxH = min(maxH, c.MaxWeeklyHours)
	const n = len(days)
	// table[i][h][k]: best completion for weekdays i.. given h hours and k open days.
	var table [n + 1][][]dpCell
	for i := range table {
		table[i] = make([][]dpCell, maxH+1)
		for h := range table[i] {
			table[i][h] = make([]dpCell, n+1)
		}
	}
	for h := 0; h <= maxH; h++ {
		for k := 0; k <= n; k++ {
			if c.accepts(h, k) {
				table[n][h][k] = dpCell{ok: true}
			}
		}
	}

	profits := make([][]int64, n)
	for d, cs := range days {
		profits[d] = make([]int64, len(cs))
		for j, r := range cs {
			profits[d][j] = model.Cents(r.Profit)
		}
	}

	for i := n - 1; i >= 0; i-- {
		for h := 0; h <= maxH; h++ {
			for k := 0; k <= i; k++ {
				cell := dpCell{}
				for j, r := range days[i] {
					nh := h + r.LaborHours()
					if nh > maxH || nh < 0 {
						continue
					}
					next := table[i+1][nh][k+openCount(r)]
					if !next.ok {
						continue
					}
					p := profits[i][j] + next.profit
					if !cell.ok || p > cell.profit {
						cell = dpCell{ok: true, profit: p, pick: j}
					}
				}
				table[i][h][k] = cell
			}
		}
	}

	var picks [7]int
	if !table[0][0][0].ok {
		return picks, false
	}
	h, k := 0, 0
	for i := 0; i < n; i++ {
		j := table[i][h][k].pick
		picks[i] = j
		h += days[i][j].LaborHours()
		k += openCount(days[i][j])
	}
	return picks, true
}
