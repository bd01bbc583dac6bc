package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/spos/core/factory"
)

// Event types.
const (
	TypePlanComputed    = "plan.computed"
	TypePricingComputed = "pricing.computed"
)

// Event is a run notification. Payload must be JSON serializable.
type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	RunID   string    `json:"run_id"`
	Time    time.Time `json:"time"`
	Payload any       `json:"payload,omitempty"`
}

// New builds an event stamped with a fresh ID and the current time.
func New(typ, runID string, payload any) Event {
	return Event{ID: uuid.NewString(), Type: typ, RunID: runID, Time: time.Now().UTC(), Payload: payload}
}

// Publisher delivers events to an external system.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

var publisherRegistry = factory.NewRegistry[Publisher]()

func init() {
	_ = publisherRegistry.Register("nop", func(map[string]any) (Publisher, error) {
		return NopPublisher{}, nil
	})
}

// RegisterPublisher adds a publisher factory identified by name.
func RegisterPublisher(name string, f factory.Factory[Publisher]) error {
	return publisherRegistry.Register(name, f)
}

// NewPublisher creates the configured publisher. An empty type yields a NopPublisher.
func NewPublisher(cfg factory.ModuleConfig) (Publisher, error) {
	if cfg.Type == "" {
		return NopPublisher{}, nil
	}
	return publisherRegistry.Create(cfg)
}

// Publishers lists the registered publisher types.
func Publishers() []string {
	return publisherRegistry.Names()
}
