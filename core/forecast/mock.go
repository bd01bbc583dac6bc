package forecast

import (
	"sync"
	"time"
)

// MockFitter returns models with deterministic estimates. Estimate defaults to
// the mean of the fitted series when nil.
type MockFitter struct {
	Estimate func(t time.Time) float64
	StdErr   float64
	Err      error

	mu     sync.Mutex
	Fitted [][]Point
}

// Fit records the series and returns a mock model.
func (m *MockFitter) Fit(series []Point) (Model, error) {
	m.mu.Lock()
	cp := make([]Point, len(series))
	copy(cp, series)
	m.Fitted = append(m.Fitted, cp)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	est := m.Estimate
	if est == nil {
		var sum float64
		for _, p := range series {
			sum += p.Value
		}
		mean := 0.0
		if len(series) > 0 {
			mean = sum / float64(len(series))
		}
		est = func(time.Time) float64 { return mean }
	}
	return mockModel{est: est, stderr: m.StdErr}, nil
}

type mockModel struct {
	est    func(time.Time) float64
	stderr float64
}

func (m mockModel) Predict(dates []time.Time) []Prediction {
	out := make([]Prediction, len(dates))
	for i, t := range dates {
		out[i] = Prediction{Date: Day(t), Estimate: m.est(t), StdErr: m.stderr}
	}
	return out
}
