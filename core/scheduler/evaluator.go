package scheduler

import (
	"fmt"
	"math"

	"github.com/kilianp07/spos/core/model"
)

// Evaluator computes staffing and profit for one simulated day.
type Evaluator struct {
	employees   int
	avgPrice    float64
	avgCost     float64
	avgDuration float64 // hours
}

// NewEvaluator derives the averages used by Evaluate. Both lists must be
// non-empty and the average service duration positive.
func NewEvaluator(services []model.Service, employees []model.Employee) (*Evaluator, error) {
	if len(services) == 0 {
		return nil, fmt.Errorf("no services: %w", model.ErrDegenerateInput)
	}
	if len(employees) == 0 {
		return nil, fmt.Errorf("no employees: %w", model.ErrDegenerateInput)
	}
	var price, minutes float64
	for _, s := range services {
		price += s.Price
		minutes += s.DurationMinutes
	}
	var cost float64
	for _, e := range employees {
		cost += e.CostPerHour
	}
	ev := &Evaluator{
		employees:   len(employees),
		avgPrice:    price / float64(len(services)),
		avgCost:     cost / float64(len(employees)),
		avgDuration: minutes / float64(len(services)) / 60,
	}
	if ev.avgDuration <= 0 {
		return nil, fmt.Errorf("average service duration %.2fh: %w", ev.avgDuration, model.ErrDegenerateInput)
	}
	return ev, nil
}

// Capacity is the number of services one employee completes in hours.
func (e *Evaluator) Capacity(hours int) int {
	return int(math.Floor(float64(hours) / e.avgDuration))
}

// Evaluate returns the open DayResult for hours of opening and visits
// visitors. Weekday and Window are left for the caller to set.
func (e *Evaluator) Evaluate(hours, visits int) (model.DayResult, error) {
	capacity := e.Capacity(hours)
	if capacity <= 0 {
		return model.DayResult{}, fmt.Errorf("%dh cannot fit one %.2fh service: %w", hours, e.avgDuration, model.ErrDegenerateInput)
	}
	needed := int(math.RoundToEven(float64(visits) / float64(capacity)))
	needed = max(0, min(needed, e.employees))

	revenue := float64(visits) * e.avgPrice
	cost := float64(needed*hours) * e.avgCost
	return model.DayResult{
		IsOpen:          true,
		HoursOpen:       hours,
		EmployeesNeeded: needed,
		VisitsSimulated: visits,
		Revenue:         model.RoundCurrency(revenue),
		Cost:            model.RoundCurrency(cost),
		Profit:          model.RoundCurrency(revenue - cost),
	}, nil
}
