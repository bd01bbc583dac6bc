// Package scheduler plans the weekly opening schedule of a service business.
// It simulates visitor demand against a catalog of daily opening windows and
// selects the combination of days that maximizes weekly profit under labor
// hour constraints. Simulation parameters can be loaded from JSON or YAML.
package scheduler
