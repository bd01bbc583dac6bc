// Package kafka publishes run events to a Kafka topic with segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kilianp07/spos/core/events"
	"github.com/kilianp07/spos/core/factory"
	"github.com/kilianp07/spos/core/monitoring"
	"github.com/kilianp07/spos/infra/logger"
)

// Config locates the Kafka cluster and topic.
type Config struct {
	Brokers      []string      `json:"brokers"`
	Topic        string        `json:"topic"`
	WriteTimeout time.Duration `json:"write_timeout"`
	// RequiredAcks is -1 (all), 0 (none) or 1 (leader).
	RequiredAcks int  `json:"required_acks"`
	AutoCreate   bool `json:"auto_create_topic"`
}

func init() {
	_ = events.RegisterPublisher("kafka", func(conf map[string]any) (events.Publisher, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPublisher(c)
	})
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var newWriter = func(cfg Config) messageWriter {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: cfg.AutoCreate,
	}
}

// Publisher implements events.Publisher on a Kafka topic. Messages are keyed
// by event type so that events of one type stay ordered.
type Publisher struct {
	w     messageWriter
	topic string
	log   logger.Logger
}

// NewPublisher validates cfg and builds the writer.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker is required")
	}
	if cfg.Topic == "" {
		cfg.Topic = "spos.events"
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.RequiredAcks < -1 || cfg.RequiredAcks > 1 {
		return nil, fmt.Errorf("kafka: invalid required_acks %d", cfg.RequiredAcks)
	}
	return &Publisher{w: newWriter(cfg), topic: cfg.Topic, log: logger.New("kafka_publisher")}, nil
}

// Publish writes ev as a JSON message.
func (p *Publisher) Publish(ctx context.Context, ev events.Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(ev.Type),
		Value: value,
		Time:  ev.Time,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(ev.ID)},
			{Key: "run_id", Value: []byte(ev.RunID)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		monitoring.CaptureException(err, map[string]string{"module": "kafka", "topic": p.topic, "run_id": ev.RunID})
		return fmt.Errorf("kafka write: %w", err)
	}
	p.log.Debugf("published %s %s to %s", ev.Type, ev.RunID, p.topic)
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}
