package mqtt

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kilianp07/spos/core/events"
	coremon "github.com/kilianp07/spos/core/monitoring"
)

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Recover()            {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestPublishErrorCaptured(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), fmt.Errorf("net fail"), fmt.Errorf("net fail"), fmt.Errorf("net fail")}}
	withMockClient(t, mc)
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", MaxRetries: 0, BackoffMS: 1}
	pub, err := NewPahoPublisher(cfg)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	err = pub.Publish(context.Background(), events.New(events.TypePlanComputed, "run-9", nil))
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(mc.published) != 4 {
		t.Fatalf("expected 4 attempts, got %d", len(mc.published))
	}
	if mon.err == nil {
		t.Fatalf("error not captured")
	}
	if mon.tags["run_id"] != "run-9" || mon.tags["module"] != "mqtt" || mon.tags["topic"] != "spos/plan/computed" {
		t.Fatalf("tags not set: %v", mon.tags)
	}
}
