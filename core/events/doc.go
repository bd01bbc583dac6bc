// Package events defines the notifications emitted once a run completes.
//
// Available event types:
//   - plan.computed: a weekly plan run finished, feasible or not
//   - pricing.computed: dynamic prices were refreshed
//
// Publishers are created from configuration through the registry; MQTT and
// Kafka implementations live under infra.
package events
