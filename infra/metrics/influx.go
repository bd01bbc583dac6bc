package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/spos/core/metrics"
	"github.com/kilianp07/spos/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes run summaries to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client resources.
func (s *InfluxSink) Close() {
	s.client.Close()
}

// RecordPlanRun writes a plan_run point and, for a feasible plan, one
// plan_day point per weekday.
func (s *InfluxSink) RecordPlanRun(ev coremetrics.PlanRunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := []*write.Point{
		write.NewPointWithMeasurement("plan_run").
			AddTag("run_id", ev.RunID).
			AddTag("strategy", ev.Strategy).
			AddTag("found", strconv.FormatBool(ev.Found)).
			AddField("candidates", ev.Candidates).
			AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
			AddField("total_profit", round3(ev.Plan.TotalProfit())).
			AddField("labor_hours", ev.Plan.LaborHours()).
			AddField("open_days", ev.Plan.OpenDays()).
			SetTime(ev.Time),
	}
	if ev.Found {
		for _, d := range ev.Plan.Days {
			p := write.NewPointWithMeasurement("plan_day").
				AddTag("run_id", ev.RunID).
				AddTag("weekday", d.Weekday.String()).
				AddTag("is_open", strconv.FormatBool(d.IsOpen)).
				AddField("hours_open", d.HoursOpen).
				AddField("employees_needed", d.EmployeesNeeded).
				AddField("visits", d.VisitsSimulated).
				AddField("revenue", round3(d.Revenue)).
				AddField("cost", round3(d.Cost)).
				AddField("profit", round3(d.Profit)).
				SetTime(ev.Time)
			if d.Window != nil {
				p = p.AddTag("window", d.Window.Start+"-"+d.Window.End)
			}
			points = append(points, p)
		}
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordDemand writes the forecast rate of each weekday.
func (s *InfluxSink) RecordDemand(ev coremetrics.DemandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(ev.Demand))
	for _, d := range ev.Demand {
		points = append(points, write.NewPointWithMeasurement("demand_forecast").
			AddTag("run_id", ev.RunID).
			AddTag("weekday", d.Weekday.String()).
			AddField("mean", round3(d.Mean)).
			AddField("stddev", round3(d.StdDev)).
			SetTime(ev.Time))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordPricingRun writes one dynamic_price point per priced service.
func (s *InfluxSink) RecordPricingRun(ev coremetrics.PricingRunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(ev.Results)+1)
	points = append(points, write.NewPointWithMeasurement("pricing_run").
		AddTag("run_id", ev.RunID).
		AddField("priced", len(ev.Results)).
		AddField("skipped", ev.Skipped).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time))
	for _, r := range ev.Results {
		points = append(points, write.NewPointWithMeasurement("dynamic_price").
			AddTag("run_id", ev.RunID).
			AddTag("service_id", r.ServiceID).
			AddTag("business_id", r.BusinessID).
			AddField("base_price", round3(r.BasePrice)).
			AddField("dynamic_price", round3(r.DynamicPrice)).
			AddField("popularity_score", round3(r.PopularityScore)).
			AddField("forecasted_demand", round3(r.ForecastedDemand)).
			SetTime(ev.Time))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordValidation writes a validation point.
func (s *InfluxSink) RecordValidation(ev coremetrics.ValidationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("validation").
		AddTag("kind", ev.Kind).
		AddField("baseline", round3(ev.Baseline)).
		AddField("candidate", round3(ev.Candidate)).
		AddField("percent_change", round3(ev.PercentChange)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
