package monitoring

import (
	"errors"
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/spos/config"
	coremon "github.com/kilianp07/spos/core/monitoring"
)

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestSentryMonitorCapturesTags(t *testing.T) {
	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	orig := sentryInit
	sentryInit = func(opts sentry.ClientOptions) error {
		opts.BeforeSend = func(ev *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
			return nil
		}
		return orig(opts)
	}
	defer func() { sentryInit = orig }()

	m, err := NewSentryMonitor(config.SentryConfig{DSN: "https://public@sentry.example.com/1", Environment: "test"})
	require.NoError(t, err)
	m.CaptureException(errors.New("plan failed"), coremon.RunFailure{Module: "scheduler", Kind: coremon.RunPlan, RunID: "r1"}.Tags())
	m.CaptureException(errors.New("publish failed"), map[string]string{"module": "kafka"})
	m.CaptureException(nil, nil)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, "scheduler", events[0].Tags["module"])
	assert.Equal(t, "r1", events[0].Tags["run_id"])
	assert.Equal(t, "test", events[0].Environment)
	assert.Equal(t, []string{"{{ default }}", coremon.RunPlan}, events[0].Fingerprint)
	assert.Equal(t, "r1", events[0].Contexts["run"]["id"])

	assert.Empty(t, events[1].Fingerprint)
	assert.NotContains(t, events[1].Contexts, "run")
}
