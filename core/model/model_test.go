package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekdayOf(t *testing.T) {
	// 2024-05-06 is a Monday.
	base := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)
	for i, want := range Weekdays {
		assert.Equal(t, want, WeekdayOf(base.AddDate(0, 0, i)))
	}
}

func TestWeekdayJSON(t *testing.T) {
	b, err := json.Marshal(map[Weekday]int{Friday: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"friday":3}`, string(b))

	var d Weekday
	require.NoError(t, json.Unmarshal([]byte(`"Sunday"`), &d))
	assert.Equal(t, Sunday, d)
	assert.Error(t, json.Unmarshal([]byte(`"funday"`), &d))
}

func TestScheduleWindowHours(t *testing.T) {
	h, err := ScheduleWindow{Start: "09:00:00", End: "17:00:00"}.Hours()
	require.NoError(t, err)
	assert.Equal(t, 8, h)

	_, err = ScheduleWindow{Start: "17:00:00", End: "09:00:00"}.Hours()
	assert.Error(t, err)
	_, err = ScheduleWindow{Start: "9am", End: "17:00:00"}.Hours()
	assert.Error(t, err)
}

func TestWeeklyPlanFrom(t *testing.T) {
	var days []DayResult
	for _, d := range Weekdays {
		days = append(days, ClosedDay(d))
	}
	days[2] = DayResult{Weekday: Wednesday, IsOpen: true, HoursOpen: 8, EmployeesNeeded: 2, Revenue: 1000.5, Cost: 320, Profit: 680.5}
	plan, err := WeeklyPlanFrom(days)
	require.NoError(t, err)
	assert.Equal(t, 16, plan.LaborHours())
	assert.Equal(t, 1, plan.OpenDays())
	assert.Equal(t, 680.5, plan.TotalProfit())
	assert.Equal(t, 1000.5, plan.TotalRevenue())

	_, err = WeeklyPlanFrom(days[:6])
	assert.True(t, errors.Is(err, ErrDataCompleteness))
	_, err = WeeklyPlanFrom(append(days, ClosedDay(Monday)))
	assert.True(t, errors.Is(err, ErrDataCompleteness))
}

func TestRoundCurrency(t *testing.T) {
	assert.Equal(t, 3000.0, RoundCurrency(3000))
	assert.Equal(t, 12.35, RoundCurrency(12.345))
	assert.Equal(t, 0.3, RoundCurrency(0.1+0.2))
	assert.Equal(t, int64(236000), Cents(2360))
	assert.Equal(t, int64(-1), Cents(-0.01))
}
