package forecast

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/spos/core/model"
)

// Regression fits a linear trend with additive weekday seasonality by least
// squares. Designs that are under-determined or singular fall back to a
// trend-only fit, then to the series mean.
type Regression struct{}

type design struct {
	trend   bool
	dummies []model.Weekday
}

func (d design) cols() int {
	n := 1 + len(d.dummies)
	if d.trend {
		n++
	}
	return n
}

func (d design) row(origin, t time.Time) []float64 {
	r := make([]float64, 0, d.cols())
	r = append(r, 1)
	if d.trend {
		r = append(r, Day(t).Sub(origin).Hours()/24)
	}
	wd := model.WeekdayOf(t)
	for _, w := range d.dummies {
		if wd == w {
			r = append(r, 1)
		} else {
			r = append(r, 0)
		}
	}
	return r
}

// Fit implements Fitter.
func (Regression) Fit(series []Point) (Model, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("fit empty series: %w", model.ErrInsufficientHistory)
	}
	pts := make([]Point, len(series))
	copy(pts, series)
	sort.Slice(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })
	origin := Day(pts[0].Date)

	var present [7]bool
	for _, p := range pts {
		present[model.WeekdayOf(p.Date)] = true
	}
	var dummies []model.Weekday
	ref := true
	for _, w := range model.Weekdays {
		if !present[w] {
			continue
		}
		if ref {
			ref = false
			continue
		}
		dummies = append(dummies, w)
	}

	for _, d := range []design{{trend: true, dummies: dummies}, {trend: true}, {}} {
		if len(pts) < d.cols() {
			continue
		}
		m, ok := solve(pts, origin, d)
		if ok {
			return m, nil
		}
	}
	return nil, fmt.Errorf("fit %d points: %w", len(pts), model.ErrDegenerateInput)
}

func solve(pts []Point, origin time.Time, d design) (*linearModel, bool) {
	n, p := len(pts), d.cols()
	x := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	for i, pt := range pts {
		x.SetRow(i, d.row(origin, pt.Date))
		y.SetVec(i, pt.Value)
	}
	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return nil, false
	}
	coef := make([]float64, p)
	for i := range coef {
		coef[i] = beta.AtVec(i)
		if math.IsNaN(coef[i]) || math.IsInf(coef[i], 0) {
			return nil, false
		}
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	var sse float64
	for i := 0; i < n; i++ {
		r := y.AtVec(i) - fitted.AtVec(i)
		sse += r * r
	}
	var stderr float64
	if n > p {
		stderr = math.Sqrt(sse / float64(n-p))
	}
	return &linearModel{origin: origin, design: d, coef: coef, stderr: stderr}, true
}

type linearModel struct {
	origin time.Time
	design design
	coef   []float64
	stderr float64
}

// Predict implements Model.
func (m *linearModel) Predict(dates []time.Time) []Prediction {
	out := make([]Prediction, len(dates))
	for i, t := range dates {
		row := m.design.row(m.origin, t)
		var v float64
		for j, c := range m.coef {
			v += c * row[j]
		}
		out[i] = Prediction{Date: Day(t), Estimate: v, StdErr: m.stderr}
	}
	return out
}
