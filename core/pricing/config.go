package pricing

const (
	DefaultForecastDays = 7
	DefaultMinWeeks     = 3
)

// Config tunes the pricing run.
type Config struct {
	// ForecastDays is the number of days averaged into the forecasted demand.
	ForecastDays int `json:"forecast_days" yaml:"forecast_days" koanf:"forecast_days"`
	// MinWeeks is the number of weeks with bookings required to price a service.
	MinWeeks int `json:"min_weeks" yaml:"min_weeks" koanf:"min_weeks"`
	// LookbackDays selects a trailing history window instead of the current
	// calendar month when positive.
	LookbackDays int `json:"lookback_days" yaml:"lookback_days" koanf:"lookback_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ForecastDays <= 0 {
		c.ForecastDays = DefaultForecastDays
	}
	if c.MinWeeks <= 0 {
		c.MinWeeks = DefaultMinWeeks
	}
	if c.LookbackDays < 0 {
		c.LookbackDays = 0
	}
}
