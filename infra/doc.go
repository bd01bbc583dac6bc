// Package infra holds the technical adapters: the SQL store, metrics sinks,
// run history, MQTT and Kafka publishers, Sentry and the cron scheduler.
// Adapters depend on the core contracts and register themselves in the core
// registries where one exists.
package infra
