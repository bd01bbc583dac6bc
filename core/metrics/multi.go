package metrics

// MultiSink fans events out to multiple sinks. Optional recorders are only
// forwarded to sinks implementing them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlanRun forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordPlanRun(ev PlanRunEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlanRun(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordDemand forwards demand forecasts.
func (m *MultiSink) RecordDemand(ev DemandEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DemandRecorder); ok {
			if err := rec.RecordDemand(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordPricingRun forwards pricing runs.
func (m *MultiSink) RecordPricingRun(ev PricingRunEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PricingRecorder); ok {
			if err := rec.RecordPricingRun(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordValidation forwards validation outcomes.
func (m *MultiSink) RecordValidation(ev ValidationEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ValidationRecorder); ok {
			if err := rec.RecordValidation(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close releases sinks holding resources, descending into a MultiSink.
func Close(s MetricsSink) error {
	switch c := s.(type) {
	case *MultiSink:
		var first error
		for _, child := range c.Sinks {
			if err := Close(child); err != nil && first == nil {
				first = err
			}
		}
		return first
	case interface{ Close() error }:
		return c.Close()
	case interface{ Close() }:
		c.Close()
	}
	return nil
}
