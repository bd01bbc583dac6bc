package cron

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddJobValidation(t *testing.T) {
	svc, err := New(time.Second)
	require.NoError(t, err)
	defer func() { _ = svc.Stop() }()

	_, err = svc.AddJob("", "* * * * *", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrEmptyJobName)
	_, err = svc.AddJob("x", " ", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrEmptyCronExpr)
	_, err = svc.AddJob("x", "not a cron", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestRegisterEnabledJobs(t *testing.T) {
	noop := func(context.Context) error { return nil }
	svc, err := Register(Config{PlanCron: "0 3 * * 1"}, noop, noop)
	require.NoError(t, err)
	defer func() { _ = svc.Stop() }()
	require.Len(t, svc.Jobs(), 1)
	assert.Equal(t, JobWeeklyPlan, svc.Jobs()[0].Name())

	both, err := Register(Config{PlanCron: "0 3 * * 1", PricingCron: "0 4 * * *"}, noop, noop)
	require.NoError(t, err)
	defer func() { _ = both.Stop() }()
	var names []string
	for _, j := range both.Jobs() {
		names = append(names, j.Name())
	}
	sort.Strings(names)
	assert.Equal(t, []string{JobPricing, JobWeeklyPlan}, names)

	_, err = Register(Config{PricingCron: "bogus"}, noop, noop)
	assert.Error(t, err)
}

func TestJobRunsTask(t *testing.T) {
	var runs atomic.Int32
	done := make(chan struct{}, 1)
	svc, err := Register(Config{PlanCron: "0 0 1 1 *"}, func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("missing deadline")
		}
		runs.Add(1)
		done <- struct{}{}
		return nil
	}, nil)
	require.NoError(t, err)
	svc.Start()
	defer func() { _ = svc.Stop() }()

	require.NoError(t, svc.Jobs()[0].RunNow())
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
	assert.Equal(t, int32(1), runs.Load())
}

func TestConfig(t *testing.T) {
	var c Config
	assert.False(t, c.Enabled())
	c.SetDefaults()
	assert.Equal(t, 10*time.Minute, c.Timeout)
	c.PricingCron = "@daily"
	assert.True(t, c.Enabled())
}
