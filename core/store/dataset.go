package store

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/spos/core/model"
)

// Dataset holds the input tables of a business. Import replaces every
// non-empty table and leaves the others untouched.
type Dataset struct {
	DayProfitability []model.DayProfitability `json:"day_profitability" yaml:"day_profitability"`
	Services         []model.Service          `json:"services" yaml:"services"`
	Employees        []model.Employee         `json:"employees" yaml:"employees"`
	Appointments     []model.Appointment      `json:"appointments" yaml:"appointments"`
	OpenHours        model.OpenHours          `json:"open_hours" yaml:"open_hours"`
}

// DecodeDataset reads a YAML (or JSON, a YAML subset) dataset.
func DecodeDataset(r io.Reader) (Dataset, error) {
	var ds Dataset
	if err := yaml.NewDecoder(r).Decode(&ds); err != nil {
		return ds, fmt.Errorf("decode dataset: %w", err)
	}
	return ds, ds.Validate()
}

// Validate rejects duplicate weekdays and entries without identifiers.
func (ds Dataset) Validate() error {
	seen := make(map[model.Weekday]bool)
	for _, p := range ds.DayProfitability {
		if !p.Weekday.Valid() {
			return fmt.Errorf("day_profitability: invalid weekday %d", p.Weekday)
		}
		if seen[p.Weekday] {
			return fmt.Errorf("day_profitability: duplicate %s", p.Weekday)
		}
		seen[p.Weekday] = true
	}
	for _, s := range ds.Services {
		if s.ID == "" {
			return fmt.Errorf("services: missing id for %q", s.Name)
		}
	}
	for _, e := range ds.Employees {
		if e.ID == "" {
			return fmt.Errorf("employees: missing id for %q", e.Name)
		}
	}
	for _, a := range ds.Appointments {
		if a.ID == "" {
			return fmt.Errorf("appointments: missing id at %s", a.StartTime)
		}
	}
	for d, oh := range ds.OpenHours {
		if !d.Valid() {
			return fmt.Errorf("open_hours: invalid weekday %d", d)
		}
		if !oh.Closed && oh.To <= oh.From {
			return fmt.Errorf("open_hours: %s closes before it opens", d)
		}
	}
	return nil
}
