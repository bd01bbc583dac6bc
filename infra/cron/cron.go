// Package cron re-runs planning and pricing on cron schedules with gocron.
package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/kilianp07/spos/core/monitoring"
	"github.com/kilianp07/spos/infra/logger"
)

var (
	ErrEmptyJobName  = errors.New("job name is required")
	ErrEmptyCronExpr = errors.New("cron expression is required")
)

// Job names.
const (
	JobWeeklyPlan = "weekly_plan"
	JobPricing    = "dynamic_pricing"
)

// Config holds the cron expressions of the scheduled runs. An empty
// expression disables the job.
type Config struct {
	PlanCron    string        `json:"plan_cron" yaml:"plan_cron" koanf:"plan_cron"`
	PricingCron string        `json:"pricing_cron" yaml:"pricing_cron" koanf:"pricing_cron"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout" koanf:"timeout"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Minute
	}
}

// Enabled reports whether any job is scheduled.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.PlanCron) != "" || strings.TrimSpace(c.PricingCron) != ""
}

// Task is a scheduled unit of work.
type Task func(ctx context.Context) error

// Service wraps a gocron scheduler.
type Service struct {
	scheduler gocron.Scheduler
	timeout   time.Duration
	log       logger.Logger
	stopOnce  sync.Once
	stopErr   error
}

// New creates a stopped scheduler. Panicking jobs are logged and reported.
func New(timeout time.Duration) (*Service, error) {
	log := logger.New("cron")
	sched, err := gocron.NewScheduler(
		gocron.WithGlobalJobOptions(
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					log.Errorf("job %s (%s) panicked: %v", jobName, jobID, recoverData)
					monitoring.CaptureException(fmt.Errorf("job %s panicked: %v", jobName, recoverData),
						map[string]string{"module": "cron", "job": jobName})
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Service{scheduler: sched, timeout: timeout, log: log}, nil
}

// AddJob registers task under name on the cron expression. Task errors are
// logged; the run context is bounded by the service timeout.
func (s *Service) AddJob(name, cronExpr string, task Task) (gocron.Job, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyJobName
	}
	if strings.TrimSpace(cronExpr) == "" {
		return nil, ErrEmptyCronExpr
	}
	wrapped := func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		start := time.Now()
		s.log.Debugf("job %s started", name)
		if err := task(ctx); err != nil {
			s.log.Errorf("job %s failed: %v", name, err)
			return
		}
		s.log.Infow("job completed", map[string]any{"job": name, "duration_ms": time.Since(start).Milliseconds()})
	}
	job, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(wrapped),
		gocron.WithName(name),
	)
	if err != nil {
		return nil, fmt.Errorf("register job %s: %w", name, err)
	}
	s.log.Infof("registered job %s (%s)", name, cronExpr)
	return job, nil
}

// Jobs lists the registered jobs.
func (s *Service) Jobs() []gocron.Job {
	return s.scheduler.Jobs()
}

// Start begins running scheduled jobs.
func (s *Service) Start() {
	s.log.Infof("scheduler starting with %d jobs", len(s.scheduler.Jobs()))
	s.scheduler.Start()
}

// Stop shuts down the scheduler, waiting for running jobs.
func (s *Service) Stop() error {
	s.stopOnce.Do(func() {
		s.stopErr = s.scheduler.Shutdown()
	})
	return s.stopErr
}

// Register creates a service with the plan and pricing jobs enabled in cfg.
func Register(cfg Config, plan, price Task) (*Service, error) {
	cfg.SetDefaults()
	svc, err := New(cfg.Timeout)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.PlanCron) != "" {
		if _, err := svc.AddJob(JobWeeklyPlan, cfg.PlanCron, plan); err != nil {
			_ = svc.Stop()
			return nil, err
		}
	}
	if strings.TrimSpace(cfg.PricingCron) != "" {
		if _, err := svc.AddJob(JobPricing, cfg.PricingCron, price); err != nil {
			_ = svc.Stop()
			return nil, err
		}
	}
	return svc, nil
}
