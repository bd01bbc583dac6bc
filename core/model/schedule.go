package model

import (
	"fmt"
	"time"
)

const clockLayout = "15:04:05"

// ScheduleWindow is a candidate daily opening interval. Start and End are
// wall-clock times formatted as HH:MM:SS.
type ScheduleWindow struct {
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

// Hours returns the window duration in whole hours.
func (w ScheduleWindow) Hours() (int, error) {
	start, err := time.Parse(clockLayout, w.Start)
	if err != nil {
		return 0, fmt.Errorf("parse start %q: %w", w.Start, err)
	}
	end, err := time.Parse(clockLayout, w.End)
	if err != nil {
		return 0, fmt.Errorf("parse end %q: %w", w.End, err)
	}
	d := end.Sub(start)
	if d <= 0 {
		return 0, fmt.Errorf("window %s-%s: end must be after start", w.Start, w.End)
	}
	return int(d / time.Hour), nil
}

// DayResult is the outcome of one simulated day for a weekday. A closed
// result has IsOpen false, every numeric field zero and no Window.
type DayResult struct {
	Weekday         Weekday         `json:"week_day"`
	IsOpen          bool            `json:"is_open"`
	HoursOpen       int             `json:"hours_open"`
	EmployeesNeeded int             `json:"employees_needed"`
	VisitsSimulated int             `json:"visits_simulated"`
	Revenue         float64         `json:"revenue_simulated"`
	Cost            float64         `json:"cost_simulated"`
	Profit          float64         `json:"profit_simulated"`
	Window          *ScheduleWindow `json:"schedule_window,omitempty"`
}

// ClosedDay returns the closed sentinel for d.
func ClosedDay(d Weekday) DayResult {
	return DayResult{Weekday: d}
}

// LaborHours is the number of employee hours the day consumes.
func (r DayResult) LaborHours() int {
	return r.HoursOpen * r.EmployeesNeeded
}

// WeeklyPlan holds exactly one DayResult per weekday, ordered Monday first.
type WeeklyPlan struct {
	Days [7]DayResult `json:"days"`
}

// TotalProfit sums the simulated profit of all days.
func (p WeeklyPlan) TotalProfit() float64 {
	var sum float64
	for _, d := range p.Days {
		sum += d.Profit
	}
	return RoundCurrency(sum)
}

// TotalRevenue sums the simulated revenue of open days.
func (p WeeklyPlan) TotalRevenue() float64 {
	var sum float64
	for _, d := range p.Days {
		if d.IsOpen {
			sum += d.Revenue
		}
	}
	return RoundCurrency(sum)
}

// LaborHours sums the labor hours over the week.
func (p WeeklyPlan) LaborHours() int {
	var sum int
	for _, d := range p.Days {
		sum += d.LaborHours()
	}
	return sum
}

// OpenDays counts the days the business is open.
func (p WeeklyPlan) OpenDays() int {
	var n int
	for _, d := range p.Days {
		if d.IsOpen {
			n++
		}
	}
	return n
}

// Slice returns the days as a slice in weekday order.
func (p WeeklyPlan) Slice() []DayResult {
	out := make([]DayResult, len(p.Days))
	copy(out, p.Days[:])
	return out
}

// WeeklyPlanFrom builds a plan from persisted rows. Every weekday must appear
// exactly once.
func WeeklyPlanFrom(days []DayResult) (WeeklyPlan, error) {
	var plan WeeklyPlan
	var seen [7]bool
	for _, d := range days {
		if !d.Weekday.Valid() {
			return plan, fmt.Errorf("invalid weekday %d: %w", d.Weekday, ErrDataCompleteness)
		}
		if seen[d.Weekday] {
			return plan, fmt.Errorf("duplicate %s: %w", d.Weekday, ErrDataCompleteness)
		}
		seen[d.Weekday] = true
		plan.Days[d.Weekday] = d
	}
	for i, ok := range seen {
		if !ok {
			return plan, fmt.Errorf("missing %s: %w", Weekday(i), ErrDataCompleteness)
		}
	}
	return plan, nil
}
