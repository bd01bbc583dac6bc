// Package metrics defines the sinks recording planning, pricing and
// validation runs. Sinks such as the Prometheus and InfluxDB ones register
// themselves by name and can be combined with NewMultiSink. The factory
// helpers return a MultiSink automatically when multiple sinks are configured.
package metrics
