package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/spos/core/model"
)

func salonServices() []model.Service {
	return []model.Service{
		{ID: "s1", Name: "Cut", Price: 40, DurationMinutes: 30},
		{ID: "s2", Name: "Color", Price: 50, DurationMinutes: 30},
		{ID: "s3", Name: "Style", Price: 60, DurationMinutes: 30},
	}
}

func salonEmployees(n int) []model.Employee {
	out := make([]model.Employee, n)
	for i := range out {
		out[i] = model.Employee{ID: string(rune('a' + i)), CostPerHour: 20}
	}
	return out
}

func TestEvaluateScenario(t *testing.T) {
	ev, err := NewEvaluator(salonServices(), salonEmployees(5))
	require.NoError(t, err)
	assert.Equal(t, 16, ev.Capacity(8))

	res, err := ev.Evaluate(8, 60)
	require.NoError(t, err)
	assert.True(t, res.IsOpen)
	assert.Equal(t, 8, res.HoursOpen)
	assert.Equal(t, 4, res.EmployeesNeeded)
	assert.Equal(t, 60, res.VisitsSimulated)
	assert.Equal(t, 3000.0, res.Revenue)
	assert.Equal(t, 640.0, res.Cost)
	assert.Equal(t, 2360.0, res.Profit)
}

func TestEvaluateStaffing(t *testing.T) {
	ev, err := NewEvaluator(salonServices(), salonEmployees(5))
	require.NoError(t, err)
	cases := []struct {
		name   string
		hours  int
		visits int
		want   int
	}{
		{"half rounds to even down", 8, 40, 2},
		{"half rounds to even up", 8, 56, 4},
		{"clamped to staff", 8, 200, 5},
		{"no visits", 6, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := ev.Evaluate(tc.hours, tc.visits)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.EmployeesNeeded)
			assert.LessOrEqual(t, res.EmployeesNeeded, 5)
			assert.InDelta(t, res.Revenue-res.Cost, res.Profit, 0.005)
		})
	}
}

func TestEvaluatorDegenerate(t *testing.T) {
	_, err := NewEvaluator(nil, salonEmployees(1))
	assert.True(t, errors.Is(err, model.ErrDegenerateInput))
	_, err = NewEvaluator(salonServices(), nil)
	assert.True(t, errors.Is(err, model.ErrDegenerateInput))
	_, err = NewEvaluator([]model.Service{{ID: "x", Price: 10}}, salonEmployees(1))
	assert.True(t, errors.Is(err, model.ErrDegenerateInput))

	long := []model.Service{{ID: "x", Price: 10, DurationMinutes: 300}}
	ev, err := NewEvaluator(long, salonEmployees(1))
	require.NoError(t, err)
	_, err = ev.Evaluate(4, 10)
	assert.True(t, errors.Is(err, model.ErrDegenerateInput))
}

func TestCatalog(t *testing.T) {
	windows := Catalog()
	require.Len(t, windows, 19)
	for _, w := range windows {
		h, err := w.Hours()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, h, 4)
		assert.LessOrEqual(t, h, 10)
		assert.GreaterOrEqual(t, w.Start, "08:00:00")
		assert.LessOrEqual(t, w.End, "20:00:00")
	}
	windows[0].Start = "00:00:00"
	assert.Equal(t, "08:00:00", Catalog()[0].Start)
}
