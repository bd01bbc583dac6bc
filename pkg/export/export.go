// Package export writes a weekly plan as JSON, CSV or an HTML chart.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/spos/core/model"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatHTML = "html"
)

// Write dispatches on format.
func Write(w io.Writer, format string, plan model.WeeklyPlan) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, plan)
	case FormatCSV:
		return WriteCSV(w, plan)
	case FormatHTML:
		return WriteHTML(w, plan)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteJSON writes the seven day results to w, Monday first.
func WriteJSON(w io.Writer, plan model.WeeklyPlan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plan.Slice())
}

var csvHeader = []string{
	"week_day", "is_open", "start_time", "end_time", "hours_open", "employees_needed",
	"visits_simulated", "revenue_simulated", "cost_simulated", "profit_simulated",
}

// WriteCSV writes one row per weekday. Closed days have empty window columns.
func WriteCSV(w io.Writer, plan model.WeeklyPlan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, d := range plan.Days {
		var start, end string
		if d.Window != nil {
			start, end = d.Window.Start, d.Window.End
		}
		rec := []string{
			d.Weekday.String(),
			strconv.FormatBool(d.IsOpen),
			start,
			end,
			strconv.Itoa(d.HoursOpen),
			strconv.Itoa(d.EmployeesNeeded),
			strconv.Itoa(d.VisitsSimulated),
			strconv.FormatFloat(d.Revenue, 'f', 2, 64),
			strconv.FormatFloat(d.Cost, 'f', 2, 64),
			strconv.FormatFloat(d.Profit, 'f', 2, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHTML renders a bar chart of simulated revenue, cost and profit per
// weekday.
func WriteHTML(w io.Writer, plan model.WeeklyPlan) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Weekly plan",
			Width:     "900px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Weekly plan",
			Subtitle: fmt.Sprintf("profit %.2f, %d labor hours, %d open days", plan.TotalProfit(), plan.LaborHours(), plan.OpenDays()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	days := make([]string, 0, len(plan.Days))
	revenue := make([]opts.BarData, 0, len(plan.Days))
	cost := make([]opts.BarData, 0, len(plan.Days))
	profit := make([]opts.BarData, 0, len(plan.Days))
	for _, d := range plan.Days {
		days = append(days, d.Weekday.String())
		revenue = append(revenue, opts.BarData{Value: d.Revenue})
		cost = append(cost, opts.BarData{Value: d.Cost})
		profit = append(profit, opts.BarData{Value: d.Profit})
	}
	bar.SetXAxis(days).
		AddSeries("revenue", revenue).
		AddSeries("cost", cost).
		AddSeries("profit", profit)
	return bar.Render(w)
}
