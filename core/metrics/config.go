package metrics

import "github.com/kilianp07/spos/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks" koanf:"sinks"`
	// PrometheusAddress exposes /metrics on a dedicated listener when set.
	PrometheusAddress string `json:"prometheus_address" yaml:"prometheus_address" koanf:"prometheus_address"`
}
