// Package simulate exposes the planning, pricing and validation runs over HTTP.
package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/kilianp07/spos/core/logger"
	"github.com/kilianp07/spos/core/model"
	"github.com/kilianp07/spos/core/scheduler"
	"github.com/kilianp07/spos/core/validate"
)

// Planner computes weekly plans.
type Planner interface {
	Plan(ctx context.Context, req scheduler.PlanRequest) (scheduler.PlanResult, error)
}

// Pricer computes dynamic prices.
type Pricer interface {
	Run(ctx context.Context) ([]model.PricingResult, error)
}

// Validator backtests the stored plan and prices.
type Validator interface {
	MonteCarlo(ctx context.Context, month string) (validate.MonteCarloResult, error)
	Pricing(ctx context.Context) (validate.PricingResult, error)
}

// PlanReader returns the latest persisted plan.
type PlanReader interface {
	WeeklyPlan(ctx context.Context) (model.WeeklyPlan, bool, error)
}

// Handler serves the HTTP API.
type Handler struct {
	planner   Planner
	pricer    Pricer
	validator Validator
	plans     PlanReader
	metrics   http.Handler
	limiter   *rate.Limiter
	log       logger.Logger
}

// NewHandler wires the handlers. A nil metrics handler leaves /metrics unrouted.
func NewHandler(p Planner, pr Pricer, v Validator, plans PlanReader, metrics http.Handler, log logger.Logger) *Handler {
	return &Handler{planner: p, pricer: pr, validator: v, plans: plans, metrics: metrics, log: logger.OrNop(log)}
}

// SetRateLimit bounds the /simulate routes to perSecond requests with the
// given burst. A non-positive rate disables the limit.
func (h *Handler) SetRateLimit(perSecond float64, burst int) {
	if perSecond <= 0 {
		h.limiter = nil
		return
	}
	h.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
}

// NewRouter returns a router with every route registered.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	h.Register(r)
	return r
}

// Register adds the routes to r. The /simulate routes share the rate limit.
func (h *Handler) Register(r *mux.Router) {
	r.Use(h.logRequests)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.methodNotAllowed)
	r.HandleFunc("/", h.Root).Methods(http.MethodGet)
	sim := func(path string, fn http.HandlerFunc) {
		var hd http.Handler = fn
		if h.limiter != nil {
			hd = h.rateLimit(hd)
		}
		r.Handle("/simulate"+path, hd).Methods(http.MethodGet)
	}
	// expects ?simulation_runs={int}&max_weekly_hours={int}&min_weekly_hours={int}&open_days={int}
	sim("/monte-carlo", h.MonteCarlo)
	sim("/dynamic-pricing", h.DynamicPricing)
	// expects optional ?month={YYYY-MM}
	sim("/monte-carlo-validate", h.MonteCarloValidate)
	sim("/dynamic-pricing-validate", h.DynamicPricingValidate)
	r.HandleFunc("/plans/latest", h.LatestPlan).Methods(http.MethodGet)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics).Methods(http.MethodGet)
	}
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodGet)
	h.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
}

type result struct {
	Result any `json:"result"`
}

// Root returns the welcome message.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the SPOS API"})
}

// MonteCarlo runs the weekly planner. The result is the list of seven day
// results, or null when no plan satisfies the constraints.
func (h *Handler) MonteCarlo(w http.ResponseWriter, r *http.Request) {
	req, err := parsePlanRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.planner.Plan(r.Context(), req)
	if err != nil {
		h.writeRunError(w, err)
		return
	}
	var days []model.DayResult
	if res.Found {
		days = res.Plan.Slice()
	}
	h.writeJSON(w, http.StatusOK, result{Result: days})
}

// DynamicPricing runs the pricing forecaster.
func (h *Handler) DynamicPricing(w http.ResponseWriter, r *http.Request) {
	res, err := h.pricer.Run(r.Context())
	if err != nil {
		h.writeRunError(w, err)
		return
	}
	if res == nil {
		res = []model.PricingResult{}
	}
	h.writeJSON(w, http.StatusOK, result{Result: res})
}

// MonteCarloValidate compares a historical week with the stored plan.
func (h *Handler) MonteCarloValidate(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			h.writeError(w, http.StatusBadRequest, fmt.Errorf("month must be YYYY-MM: %w", err))
			return
		}
	}
	res, err := h.validator.MonteCarlo(r.Context(), month)
	if err != nil {
		h.writeRunError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result{Result: res})
}

// DynamicPricingValidate compares static and dynamic revenue.
func (h *Handler) DynamicPricingValidate(w http.ResponseWriter, r *http.Request) {
	res, err := h.validator.Pricing(r.Context())
	if err != nil {
		h.writeRunError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result{Result: res})
}

// LatestPlan returns the persisted plan, 404 when none is stored.
func (h *Handler) LatestPlan(w http.ResponseWriter, r *http.Request) {
	plan, found, err := h.plans.WeeklyPlan(r.Context())
	if err != nil {
		h.writeRunError(w, err)
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, errors.New("no weekly plan stored"))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"result":       plan.Slice(),
		"total_profit": plan.TotalProfit(),
		"labor_hours":  plan.LaborHours(),
		"open_days":    plan.OpenDays(),
	})
}

func parsePlanRequest(r *http.Request) (scheduler.PlanRequest, error) {
	q := r.URL.Query()
	req := scheduler.PlanRequest{Runs: 1}
	if s := q.Get("simulation_runs"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return req, fmt.Errorf("simulation_runs: %w", err)
		}
		if v < 1 {
			return req, fmt.Errorf("simulation_runs must be at least 1")
		}
		req.Runs = v
	}
	hours := []struct {
		name string
		dst  **int
	}{
		{"max_weekly_hours", &req.MaxWeeklyHours},
		{"min_weekly_hours", &req.MinWeeklyHours},
	}
	for _, p := range hours {
		s := q.Get(p.name)
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return req, fmt.Errorf("%s: %w", p.name, err)
		}
		if v < 0 {
			return req, fmt.Errorf("%s must not be negative", p.name)
		}
		*p.dst = &v
	}
	if s := q.Get("open_days"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return req, fmt.Errorf("open_days: %w", err)
		}
		if v < 0 || v > 7 {
			return req, fmt.Errorf("open_days must be within [0,7]")
		}
		req.OpenDays = &v
	}
	if s := q.Get("seed"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return req, fmt.Errorf("seed: %w", err)
		}
		req.Seed = v
	}
	return req, nil
}

// statusFor maps run errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInsufficientHistory),
		errors.Is(err, model.ErrDegenerateInput),
		errors.Is(err, scheduler.ErrBudgetExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrDataCompleteness):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeRunError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorf("request failed: %v", err)
	}
	h.writeError(w, status, err)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warnf("encode response: %v", err)
	}
}

func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			h.writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Debugw("http request", map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}
