package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// TrialsPerRun is the number of trials one requested simulation run expands to.
	TrialsPerRun = 140

	DefaultMinVisitsForOpen = 15
	DefaultMinDailyProfit   = 500.0
	DefaultMaxWeeklyHours   = 180
	DefaultMinWeeklyHours   = 140
	DefaultMaxCombinations  = 5_000_000
	DefaultEmployeeCapacity = 4
)

// Optimizer strategies.
const (
	StrategyDP         = "dp"
	StrategyExhaustive = "exhaustive"
)

// Config defines simulation and optimization parameters.
type Config struct {
	// Trials is the number of samples drawn per weekday and window.
	Trials           int     `json:"trials" yaml:"trials" koanf:"trials"`
	MinVisitsForOpen int     `json:"min_visits_for_open" yaml:"min_visits_for_open" koanf:"min_visits_for_open"`
	MinDailyProfit   float64 `json:"min_daily_profit" yaml:"min_daily_profit" koanf:"min_daily_profit"`
	// EmployeeCapacity is visitors per employee per hour. Carried for
	// reporting; staffing is derived from service duration.
	EmployeeCapacity int    `json:"employee_capacity_per_hour" yaml:"employee_capacity_per_hour" koanf:"employee_capacity_per_hour"`
	MaxWeeklyHours   int    `json:"max_weekly_hours" yaml:"max_weekly_hours" koanf:"max_weekly_hours"`
	MinWeeklyHours   int    `json:"min_weekly_hours" yaml:"min_weekly_hours" koanf:"min_weekly_hours"`
	OpenDays         *int   `json:"open_days,omitempty" yaml:"open_days,omitempty" koanf:"open_days"`
	Strategy         string `json:"strategy" yaml:"strategy" koanf:"strategy"`
	MaxCombinations  int64  `json:"max_combinations" yaml:"max_combinations" koanf:"max_combinations"`
	// Seed feeds the random source. Zero picks a time based seed.
	Seed    uint64 `json:"seed" yaml:"seed" koanf:"seed"`
	Workers int    `json:"workers" yaml:"workers" koanf:"workers"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Trials <= 0 {
		c.Trials = TrialsPerRun
	}
	if c.MinVisitsForOpen <= 0 {
		c.MinVisitsForOpen = DefaultMinVisitsForOpen
	}
	if c.MinDailyProfit == 0 {
		c.MinDailyProfit = DefaultMinDailyProfit
	}
	if c.EmployeeCapacity <= 0 {
		c.EmployeeCapacity = DefaultEmployeeCapacity
	}
	if c.MaxWeeklyHours <= 0 {
		c.MaxWeeklyHours = DefaultMaxWeeklyHours
	}
	if c.MinWeeklyHours <= 0 {
		c.MinWeeklyHours = DefaultMinWeeklyHours
	}
	if c.Strategy == "" {
		c.Strategy = StrategyDP
	}
	if c.MaxCombinations <= 0 {
		c.MaxCombinations = DefaultMaxCombinations
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
}

// Validate checks the configuration after defaults are applied.
func (c Config) Validate() error {
	if c.MinWeeklyHours > c.MaxWeeklyHours {
		return fmt.Errorf("min_weekly_hours %d exceeds max_weekly_hours %d", c.MinWeeklyHours, c.MaxWeeklyHours)
	}
	return c.validateRun()
}

// validateRun checks the parameters a single run cannot do without. The
// weekly hours range is left to the optimizer.
func (c Config) validateRun() error {
	if c.OpenDays != nil && (*c.OpenDays < 0 || *c.OpenDays > 7) {
		return fmt.Errorf("open_days must be within [0,7], got %d", *c.OpenDays)
	}
	switch c.Strategy {
	case StrategyDP, StrategyExhaustive:
	default:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	return nil
}

// Constraints extracts the weekly optimizer constraints.
func (c Config) Constraints() Constraints {
	return Constraints{MaxWeeklyHours: c.MaxWeeklyHours, MinWeeklyHours: c.MinWeeklyHours, TargetOpenDays: c.OpenDays}
}

// LoadConfig loads Config from a JSON or YAML file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "yaml", "yml", "json":
		return DecodeConfig(f, ext)
	default:
		return Config{}, fmt.Errorf("unsupported config format: .%s", ext)
	}
}

// DecodeConfig reads from r to decode a Config. Defaults are applied.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}
