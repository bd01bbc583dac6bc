package forecast

import (
	"sort"
	"time"
)

// Point is one observation of a dated series.
type Point struct {
	Date  time.Time
	Value float64
}

// Prediction is the forecast for one date.
type Prediction struct {
	Date     time.Time
	Estimate float64
	// StdErr is the residual standard error of the fitted model.
	StdErr float64
}

// Model predicts values for future or past dates.
type Model interface {
	Predict(dates []time.Time) []Prediction
}

// Fitter builds a Model from a history.
type Fitter interface {
	Fit(series []Point) (Model, error)
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DailyCounts aggregates timestamps into per-date counts sorted by date.
// Dates without events are omitted.
func DailyCounts(times []time.Time) []Point {
	counts := make(map[time.Time]float64)
	for _, t := range times {
		counts[Day(t)]++
	}
	out := make([]Point, 0, len(counts))
	for d, c := range counts {
		out = append(out, Point{Date: d, Value: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// WeeklyCounts buckets timestamps into weeks ending on Sunday. Each point is
// labelled with the Sunday closing its week; empty weeks between the first and
// last event are included with a zero count.
func WeeklyCounts(times []time.Time) []Point {
	if len(times) == 0 {
		return nil
	}
	counts := make(map[time.Time]float64)
	var first, last time.Time
	for i, t := range times {
		end := weekEnd(t)
		counts[end]++
		if i == 0 || end.Before(first) {
			first = end
		}
		if i == 0 || end.After(last) {
			last = end
		}
	}
	var out []Point
	for d := first; !d.After(last); d = d.AddDate(0, 0, 7) {
		out = append(out, Point{Date: d, Value: counts[d]})
	}
	return out
}

func weekEnd(t time.Time) time.Time {
	d := Day(t)
	offset := (7 - int(d.Weekday())) % 7
	return d.AddDate(0, 0, offset)
}

// FutureDates returns the dates of the history followed by periods daily
// dates after the last one.
func FutureDates(history []Point, periods int) []time.Time {
	out := make([]time.Time, 0, len(history)+periods)
	for _, p := range history {
		out = append(out, p.Date)
	}
	if len(history) == 0 {
		return out
	}
	last := history[len(history)-1].Date
	for i := 1; i <= periods; i++ {
		out = append(out, last.AddDate(0, 0, i))
	}
	return out
}

// Ahead returns periods daily dates following the last point of history.
func Ahead(history []Point, periods int) []time.Time {
	all := FutureDates(history, periods)
	return all[len(history):]
}
