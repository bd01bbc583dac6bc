package model

import "time"

// Service is a bookable offering of the business.
type Service struct {
	ID              string  `json:"id" yaml:"id"`
	Name            string  `json:"name" yaml:"name"`
	BusinessID      string  `json:"business_id" yaml:"business_id"`
	Price           float64 `json:"price" yaml:"price"`
	DurationMinutes float64 `json:"time" yaml:"time"`
}

// Employee is a staff member. Only the hourly cost is used for planning.
type Employee struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	CostPerHour float64 `json:"cost_per_hour" yaml:"cost_per_hour"`
}

// Appointment is a historical visit. Each appointment counts as one visit and
// one booking per referenced service.
type Appointment struct {
	ID         string    `json:"id" yaml:"id"`
	StartTime  time.Time `json:"start_time" yaml:"start_time"`
	ServiceIDs []string  `json:"service_ids" yaml:"service_ids"`
	TotalPrice float64   `json:"total_price" yaml:"total_price"`
}

// OpenDay describes the regular opening of one weekday. From and To are
// whole hours of the day.
type OpenDay struct {
	Closed bool `json:"closed" yaml:"closed"`
	From   int  `json:"from" yaml:"from"`
	To     int  `json:"to" yaml:"to"`
}

// Hours returns the regular opening duration.
func (o OpenDay) Hours() int { return o.To - o.From }

// OpenHours is the weekly opening-hours table.
type OpenHours map[Weekday]OpenDay

// DayProfitability is the profitability signal of a weekday.
type DayProfitability struct {
	Weekday  Weekday `json:"day_of_week" yaml:"day_of_week"`
	Score    float64 `json:"profitability_score" yaml:"profitability_score"`
	IsClosed bool    `json:"is_closed" yaml:"is_closed"`
}

// Factor scales forecast visits by the profitability score.
func (p DayProfitability) Factor() float64 { return 1 + p.Score/20 }

// WeekdayDemand is the expected hourly visitor rate of a weekday.
type WeekdayDemand struct {
	Weekday Weekday `json:"weekday"`
	Mean    float64 `json:"mean_visitors_per_hour"`
	StdDev  float64 `json:"stddev_visitors_per_hour"`
}

// PricingResult is the dynamic price computed for one service.
type PricingResult struct {
	ServiceID        string  `json:"service_id"`
	ServiceName      string  `json:"service_name"`
	BusinessID       string  `json:"business_id"`
	BasePrice        float64 `json:"base_price"`
	DynamicPrice     float64 `json:"dynamic_price"`
	PopularityScore  float64 `json:"popularity_score"`
	PriceChange      float64 `json:"price_change"`
	ForecastedDemand float64 `json:"forecasted_demand"`
}
