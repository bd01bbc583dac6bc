package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/spos/core/events"
	"github.com/kilianp07/spos/core/factory"
	coremon "github.com/kilianp07/spos/core/monitoring"
)

type fakeWriter struct {
	cfg    Config
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func withFakeWriter(t *testing.T, fw *fakeWriter) {
	t.Helper()
	orig := newWriter
	newWriter = func(cfg Config) messageWriter { fw.cfg = cfg; return fw }
	t.Cleanup(func() { newWriter = orig })
}

type recordMonitor struct{ tags map[string]string }

func (r *recordMonitor) CaptureException(_ error, tags map[string]string) { r.tags = tags }
func (r *recordMonitor) Recover()                                         {}
func (r *recordMonitor) Flush(time.Duration)                              {}

func TestPublish(t *testing.T) {
	fw := &fakeWriter{}
	withFakeWriter(t, fw)
	p, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	assert.Equal(t, "spos.events", fw.cfg.Topic)
	assert.Equal(t, 10*time.Second, fw.cfg.WriteTimeout)

	ev := events.New(events.TypePricingComputed, "run-2", []string{"s1"})
	require.NoError(t, p.Publish(context.Background(), ev))
	require.Len(t, fw.msgs, 1)
	msg := fw.msgs[0]
	assert.Equal(t, events.TypePricingComputed, string(msg.Key))
	assert.Equal(t, "run-2", string(msg.Headers[1].Value))

	var decoded events.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.ID, decoded.ID)

	require.NoError(t, p.Close())
	assert.True(t, fw.closed)
}

func TestPublishErrorCaptured(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	withFakeWriter(t, fw)
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	p, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}, Topic: "plans"})
	require.NoError(t, err)
	err = p.Publish(context.Background(), events.New(events.TypePlanComputed, "run-3", nil))
	require.Error(t, err)
	assert.Equal(t, "kafka", mon.tags["module"])
	assert.Equal(t, "plans", mon.tags["topic"])
	assert.Equal(t, "run-3", mon.tags["run_id"])
}

func TestConfigValidation(t *testing.T) {
	_, err := NewPublisher(Config{})
	assert.Error(t, err)
	_, err = NewPublisher(Config{Brokers: []string{"b"}, RequiredAcks: 2})
	assert.Error(t, err)
}

func TestRegistered(t *testing.T) {
	fw := &fakeWriter{}
	withFakeWriter(t, fw)
	pub, err := events.NewPublisher(factory.ModuleConfig{Type: "kafka", Conf: map[string]any{
		"brokers":       []any{"k1:9092", "k2:9092"},
		"topic":         "t",
		"write_timeout": "3s",
	}})
	require.NoError(t, err)
	_, ok := pub.(*Publisher)
	assert.True(t, ok)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, fw.cfg.Brokers)
	assert.Equal(t, 3*time.Second, fw.cfg.WriteTimeout)
}
