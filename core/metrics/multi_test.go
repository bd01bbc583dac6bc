package metrics

import "testing"

type recordSink struct {
	count int
}

func (r *recordSink) RecordPlanRun(PlanRunEvent) error {
	r.count++
	return nil
}

func (r *recordSink) RecordValidation(ValidationEvent) error {
	r.count++
	return nil
}

type planOnly struct{ count int }

func (p *planOnly) RecordPlanRun(PlanRunEvent) error {
	p.count++
	return nil
}

// TestMultiSink ensures events are forwarded to all sinks supporting them.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &planOnly{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordPlanRun(PlanRunEvent{RunID: "r"}); err != nil {
		t.Fatalf("record plan: %v", err)
	}
	if err := m.RecordValidation(ValidationEvent{Kind: "pricing"}); err != nil {
		t.Fatalf("record validation: %v", err)
	}
	if err := m.RecordPricingRun(PricingRunEvent{}); err != nil {
		t.Fatalf("record pricing: %v", err)
	}
	if s1.count != 2 || s2.count != 1 {
		t.Fatalf("events not forwarded: %d %d", s1.count, s2.count)
	}
}

type closingSink struct {
	planOnly
	closed bool
}

func (c *closingSink) Close() { c.closed = true }

func TestCloseDescendsIntoMultiSink(t *testing.T) {
	a, b := &closingSink{}, &closingSink{}
	if err := Close(NewMultiSink(a, &planOnly{}, b)); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !a.closed || !b.closed {
		t.Fatalf("sinks not closed: %v %v", a.closed, b.closed)
	}
	if err := Close(NopSink{}); err != nil {
		t.Fatalf("close nop: %v", err)
	}
}
