package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/spos/core/model"
	corestore "github.com/kilianp07/spos/core/store"
)

func (s *SQLStore) DayProfitability(ctx context.Context) ([]model.DayProfitability, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT day_of_week, profitability_score, is_closed FROM day_profitability`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.DayProfitability
	for rows.Next() {
		var day string
		var p model.DayProfitability
		if err := rows.Scan(&day, &p.Score, &p.IsClosed); err != nil {
			return nil, err
		}
		if p.Weekday, err = model.ParseWeekday(day); err != nil {
			return nil, fmt.Errorf("day_profitability: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) Services(ctx context.Context) ([]model.Service, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, business_id, price, duration_minutes FROM services ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Service
	for rows.Next() {
		var sv model.Service
		if err := rows.Scan(&sv.ID, &sv.Name, &sv.BusinessID, &sv.Price, &sv.DurationMinutes); err != nil {
			return nil, err
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

func (s *SQLStore) Employees(ctx context.Context) ([]model.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, cost_per_hour FROM employees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Employee
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.CostPerHour); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Appointments returns appointments within r ordered by start time.
func (s *SQLStore) Appointments(ctx context.Context, r corestore.Range) ([]model.Appointment, error) {
	query := `SELECT id, start_time, service_ids, total_price FROM appointments WHERE 1=1`
	var args []any
	lower, upper := r.Bounds()
	if !lower.IsZero() {
		query += ` AND start_time >= ?`
		args = append(args, lower.Unix())
	}
	if !upper.IsZero() {
		query += ` AND start_time < ?`
		args = append(args, upper.Unix())
	}
	query += ` ORDER BY start_time, id`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		var ts int64
		var ids string
		if err := rows.Scan(&a.ID, &ts, &ids, &a.TotalPrice); err != nil {
			return nil, err
		}
		a.StartTime = time.Unix(ts, 0).UTC()
		if err := json.Unmarshal([]byte(ids), &a.ServiceIDs); err != nil {
			return nil, fmt.Errorf("appointment %s service_ids: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) OpenHours(ctx context.Context) (model.OpenHours, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT day_of_week, closed, open_from, open_to FROM open_hours`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := make(model.OpenHours)
	for rows.Next() {
		var day string
		var oh model.OpenDay
		if err := rows.Scan(&day, &oh.Closed, &oh.From, &oh.To); err != nil {
			return nil, err
		}
		d, err := model.ParseWeekday(day)
		if err != nil {
			return nil, fmt.Errorf("open_hours: %w", err)
		}
		out[d] = oh
	}
	return out, rows.Err()
}

// WeeklyPlan returns the stored plan; found is false when the table is empty.
func (s *SQLStore) WeeklyPlan(ctx context.Context) (model.WeeklyPlan, bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT week_day, is_open, hours_open, employees_needed, visits_simulated,
        revenue_simulated, cost_simulated, profit_simulated, start_time, end_time FROM monte_carlo_results`)
	if err != nil {
		return model.WeeklyPlan{}, false, err
	}
	defer func() { _ = rows.Close() }()
	var days []model.DayResult
	for rows.Next() {
		var day string
		var start, end sql.NullString
		var r model.DayResult
		if err := rows.Scan(&day, &r.IsOpen, &r.HoursOpen, &r.EmployeesNeeded, &r.VisitsSimulated,
			&r.Revenue, &r.Cost, &r.Profit, &start, &end); err != nil {
			return model.WeeklyPlan{}, false, err
		}
		if r.Weekday, err = model.ParseWeekday(day); err != nil {
			return model.WeeklyPlan{}, false, fmt.Errorf("monte_carlo_results: %w", err)
		}
		if start.Valid && end.Valid {
			r.Window = &model.ScheduleWindow{Start: start.String, End: end.String}
		}
		days = append(days, r)
	}
	if err := rows.Err(); err != nil {
		return model.WeeklyPlan{}, false, err
	}
	if len(days) == 0 {
		return model.WeeklyPlan{}, false, nil
	}
	plan, err := model.WeeklyPlanFrom(days)
	if err != nil {
		return model.WeeklyPlan{}, false, err
	}
	return plan, true, nil
}

func (s *SQLStore) Pricing(ctx context.Context) ([]model.PricingResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT service_id, service_name, business_id, base_price, dynamic_price,
        popularity_score, price_change, forecasted_demand FROM dynamic_pricing ORDER BY service_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.PricingResult
	for rows.Next() {
		var p model.PricingResult
		if err := rows.Scan(&p.ServiceID, &p.ServiceName, &p.BusinessID, &p.BasePrice, &p.DynamicPrice,
			&p.PopularityScore, &p.PriceChange, &p.ForecastedDemand); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// withTx runs fn in a transaction, committing when it returns nil.
func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) ReplaceWeeklyPlan(ctx context.Context, runID uuid.UUID, plan *model.WeeklyPlan) error {
	now := time.Now().Unix()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM monte_carlo_results`); err != nil {
			return err
		}
		if plan == nil {
			return nil
		}
		q := s.rebind(`INSERT INTO monte_carlo_results (week_day, run_id, is_open, hours_open, employees_needed,
            visits_simulated, revenue_simulated, cost_simulated, profit_simulated, start_time, end_time, created_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		for _, d := range plan.Days {
			var start, end sql.NullString
			if d.Window != nil {
				start = sql.NullString{String: d.Window.Start, Valid: true}
				end = sql.NullString{String: d.Window.End, Valid: true}
			}
			if _, err := tx.ExecContext(ctx, q, d.Weekday.String(), runID.String(), d.IsOpen, d.HoursOpen,
				d.EmployeesNeeded, d.VisitsSimulated, d.Revenue, d.Cost, d.Profit, start, end, now); err != nil {
				return fmt.Errorf("insert %s: %w", d.Weekday, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) ReplacePricing(ctx context.Context, runID uuid.UUID, results []model.PricingResult) error {
	now := time.Now().Unix()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM dynamic_pricing`); err != nil {
			return err
		}
		q := s.rebind(`INSERT INTO dynamic_pricing (service_id, run_id, service_name, business_id, base_price,
            dynamic_price, popularity_score, price_change, forecasted_demand, created_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		for _, p := range results {
			if _, err := tx.ExecContext(ctx, q, p.ServiceID, runID.String(), p.ServiceName, p.BusinessID, p.BasePrice,
				p.DynamicPrice, p.PopularityScore, p.PriceChange, p.ForecastedDemand, now); err != nil {
				return fmt.Errorf("insert %s: %w", p.ServiceID, err)
			}
		}
		return nil
	})
}

// Import replaces every non-empty table of ds in one transaction.
func (s *SQLStore) Import(ctx context.Context, ds corestore.Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if len(ds.DayProfitability) > 0 {
			if err := s.replace(ctx, tx, "day_profitability",
				`INSERT INTO day_profitability (day_of_week, profitability_score, is_closed) VALUES (?, ?, ?)`,
				len(ds.DayProfitability), func(i int) []any {
					p := ds.DayProfitability[i]
					return []any{p.Weekday.String(), p.Score, p.IsClosed}
				}); err != nil {
				return err
			}
		}
		if len(ds.Services) > 0 {
			if err := s.replace(ctx, tx, "services",
				`INSERT INTO services (id, name, business_id, price, duration_minutes) VALUES (?, ?, ?, ?, ?)`,
				len(ds.Services), func(i int) []any {
					sv := ds.Services[i]
					return []any{sv.ID, sv.Name, sv.BusinessID, sv.Price, sv.DurationMinutes}
				}); err != nil {
				return err
			}
		}
		if len(ds.Employees) > 0 {
			if err := s.replace(ctx, tx, "employees",
				`INSERT INTO employees (id, name, cost_per_hour) VALUES (?, ?, ?)`,
				len(ds.Employees), func(i int) []any {
					e := ds.Employees[i]
					return []any{e.ID, e.Name, e.CostPerHour}
				}); err != nil {
				return err
			}
		}
		if len(ds.Appointments) > 0 {
			ids := make([]string, len(ds.Appointments))
			for i, a := range ds.Appointments {
				b, err := json.Marshal(append([]string{}, a.ServiceIDs...))
				if err != nil {
					return err
				}
				ids[i] = string(b)
			}
			if err := s.replace(ctx, tx, "appointments",
				`INSERT INTO appointments (id, start_time, service_ids, total_price) VALUES (?, ?, ?, ?)`,
				len(ds.Appointments), func(i int) []any {
					a := ds.Appointments[i]
					return []any{a.ID, a.StartTime.Unix(), ids[i], a.TotalPrice}
				}); err != nil {
				return err
			}
		}
		if len(ds.OpenHours) > 0 {
			var days []model.Weekday
			for _, d := range model.Weekdays {
				if _, ok := ds.OpenHours[d]; ok {
					days = append(days, d)
				}
			}
			if err := s.replace(ctx, tx, "open_hours",
				`INSERT INTO open_hours (day_of_week, closed, open_from, open_to) VALUES (?, ?, ?, ?)`,
				len(days), func(i int) []any {
					oh := ds.OpenHours[days[i]]
					return []any{days[i].String(), oh.Closed, oh.From, oh.To}
				}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) replace(ctx context.Context, tx *sql.Tx, table, insert string, n int, row func(int) []any) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx, s.rebind(insert))
	if err != nil {
		return fmt.Errorf("prepare %s: %w", table, err)
	}
	defer func() { _ = stmt.Close() }()
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	s.log.Debugf("imported %d rows into %s", n, table)
	return nil
}
