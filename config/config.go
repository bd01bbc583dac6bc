// Package config loads the service configuration with koanf. A YAML or JSON
// file is read first, then a .env file next to it, then K_ environment
// overrides where "__" separates nested keys (K_STORE__DSN).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/spos/core/demand"
	"github.com/kilianp07/spos/core/factory"
	"github.com/kilianp07/spos/core/metrics"
	"github.com/kilianp07/spos/core/pricing"
	"github.com/kilianp07/spos/core/scheduler"
	"github.com/kilianp07/spos/core/validate"
	"github.com/kilianp07/spos/infra/cron"
	"github.com/kilianp07/spos/infra/store"
)

var errTracesSampleRate = errors.New("sentry traces_sample_rate must be within [0,1]")

// DefaultHTTPAddress is the listen address of the HTTP API.
const DefaultHTTPAddress = ":8000"

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Address string `json:"address"`
	// RateLimit bounds /simulate requests per second; 0 disables it.
	RateLimit float64 `json:"rate_limit"`
	RateBurst int     `json:"rate_burst"`
}

type Config struct {
	Store      store.Config         `json:"store"`
	Simulation scheduler.Config     `json:"simulation"`
	Demand     demand.Config        `json:"demand"`
	Pricing    pricing.Config       `json:"pricing"`
	Validation validate.Config      `json:"validation"`
	HTTP       HTTPConfig           `json:"http"`
	Schedule   cron.Config          `json:"schedule"`
	Logging    LoggingConfig        `json:"logging"`
	Metrics    metrics.Config       `json:"metrics"`
	Events     factory.ModuleConfig `json:"events"`
	Sentry     SentryConfig         `json:"sentry"`
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Store.SetDefaults()
	c.Simulation.SetDefaults()
	c.Demand.SetDefaults()
	c.Pricing.SetDefaults()
	c.Validation.SetDefaults()
	c.Schedule.SetDefaults()
	c.Logging.SetDefaults()
	if c.HTTP.Address == "" {
		c.HTTP.Address = DefaultHTTPAddress
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.HTTP.RateLimit < 0 || c.HTTP.RateBurst < 0 {
		return fmt.Errorf("http: rate_limit and rate_burst must not be negative")
	}
	return c.Sentry.Validate()
}

// Load reads the configuration at path. An empty path loads defaults and
// environment overrides only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
		envPath := filepath.Join(filepath.Dir(path), ".env")
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
