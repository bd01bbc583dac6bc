package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/kilianp07/spos/core/model"
)

// MemoryStore keeps every table in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu           sync.RWMutex
	profit       []model.DayProfitability
	services     []model.Service
	employees    []model.Employee
	appointments []model.Appointment
	openHours    model.OpenHours
	plan         *model.WeeklyPlan
	planRun      uuid.UUID
	pricing      []model.PricingResult
}

// NewMemoryStore returns a store seeded with ds.
func NewMemoryStore(ds Dataset) *MemoryStore {
	m := &MemoryStore{}
	_ = m.Import(context.Background(), ds)
	return m
}

func (m *MemoryStore) Import(_ context.Context, ds Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(ds.DayProfitability) > 0 {
		m.profit = append([]model.DayProfitability(nil), ds.DayProfitability...)
	}
	if len(ds.Services) > 0 {
		m.services = append([]model.Service(nil), ds.Services...)
	}
	if len(ds.Employees) > 0 {
		m.employees = append([]model.Employee(nil), ds.Employees...)
	}
	if len(ds.Appointments) > 0 {
		m.appointments = append([]model.Appointment(nil), ds.Appointments...)
		sort.SliceStable(m.appointments, func(i, j int) bool {
			return m.appointments[i].StartTime.Before(m.appointments[j].StartTime)
		})
	}
	if len(ds.OpenHours) > 0 {
		m.openHours = make(model.OpenHours, len(ds.OpenHours))
		for d, oh := range ds.OpenHours {
			m.openHours[d] = oh
		}
	}
	return nil
}

func (m *MemoryStore) DayProfitability(context.Context) ([]model.DayProfitability, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.DayProfitability(nil), m.profit...), nil
}

func (m *MemoryStore) Services(context.Context) ([]model.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Service(nil), m.services...), nil
}

func (m *MemoryStore) Employees(context.Context) ([]model.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Employee(nil), m.employees...), nil
}

func (m *MemoryStore) Appointments(_ context.Context, r Range) ([]model.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Appointment
	for _, a := range m.appointments {
		if r.Contains(a.StartTime) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryStore) OpenHours(context.Context) (model.OpenHours, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(model.OpenHours, len(m.openHours))
	for d, oh := range m.openHours {
		out[d] = oh
	}
	return out, nil
}

func (m *MemoryStore) WeeklyPlan(context.Context) (model.WeeklyPlan, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.plan == nil {
		return model.WeeklyPlan{}, false, nil
	}
	return *m.plan, true, nil
}

func (m *MemoryStore) Pricing(context.Context) ([]model.PricingResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.PricingResult(nil), m.pricing...), nil
}

func (m *MemoryStore) ReplaceWeeklyPlan(_ context.Context, runID uuid.UUID, plan *model.WeeklyPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plan, m.planRun = nil, runID
	if plan != nil {
		p := *plan
		m.plan = &p
	}
	return nil
}

func (m *MemoryStore) ReplacePricing(_ context.Context, _ uuid.UUID, results []model.PricingResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pricing = append([]model.PricingResult(nil), results...)
	return nil
}

// LastPlanRun returns the run that last replaced the weekly plan.
func (m *MemoryStore) LastPlanRun() uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.planRun
}

func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
