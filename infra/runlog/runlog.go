// Package runlog keeps a history of planning, pricing and validation runs
// in a JSONL file rotated by lumberjack.
package runlog

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kilianp07/spos/core/factory"
	coremetrics "github.com/kilianp07/spos/core/metrics"
)

// Record kinds.
const (
	KindPlan       = "plan"
	KindPricing    = "pricing"
	KindValidation = "validation"
)

// Record is one line of the run history. Fields not relevant to Kind are
// omitted.
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	Kind       string    `json:"kind"`
	RunID      string    `json:"run_id,omitempty"`
	DurationMS int64     `json:"duration_ms,omitempty"`

	Strategy    string  `json:"strategy,omitempty"`
	Found       *bool   `json:"found,omitempty"`
	Candidates  int     `json:"candidates,omitempty"`
	TotalProfit float64 `json:"total_profit,omitempty"`
	LaborHours  int     `json:"labor_hours,omitempty"`
	OpenDays    int     `json:"open_days,omitempty"`

	Priced  int `json:"priced,omitempty"`
	Skipped int `json:"skipped,omitempty"`

	Validation    string  `json:"validation,omitempty"`
	Baseline      float64 `json:"baseline,omitempty"`
	Candidate     float64 `json:"candidate,omitempty"`
	PercentChange float64 `json:"percent_change,omitempty"`
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start time.Time
	End   time.Time
	Kind  string
}

func (q Query) matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	return q.Kind == "" || r.Kind == q.Kind
}

// Config sets the file location and rotation limits in megabytes and days.
type Config struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Path == "" {
		c.Path = "runs.jsonl"
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 10
	}
}

// Sink appends every recorded run to the history file.
type Sink struct {
	mu   sync.Mutex
	out  *lumberjack.Logger
	path string
}

// New creates the directory of cfg.Path and returns a Sink writing to it.
func New(cfg Config) (*Sink, error) {
	cfg.SetDefaults()
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &Sink{
		out: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		},
		path: cfg.Path,
	}, nil
}

func init() {
	_ = coremetrics.RegisterMetricsSink("jsonl", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return New(c)
	})
}

// Append writes one record.
func (s *Sink) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.NewEncoder(s.out).Encode(rec)
}

func (s *Sink) RecordPlanRun(ev coremetrics.PlanRunEvent) error {
	found := ev.Found
	return s.Append(Record{
		Timestamp:   ev.Time,
		Kind:        KindPlan,
		RunID:       ev.RunID,
		DurationMS:  ev.Duration.Milliseconds(),
		Strategy:    ev.Strategy,
		Found:       &found,
		Candidates:  ev.Candidates,
		TotalProfit: ev.Plan.TotalProfit(),
		LaborHours:  ev.Plan.LaborHours(),
		OpenDays:    ev.Plan.OpenDays(),
	})
}

func (s *Sink) RecordPricingRun(ev coremetrics.PricingRunEvent) error {
	return s.Append(Record{
		Timestamp:  ev.Time,
		Kind:       KindPricing,
		RunID:      ev.RunID,
		DurationMS: ev.Duration.Milliseconds(),
		Priced:     len(ev.Results),
		Skipped:    ev.Skipped,
	})
}

func (s *Sink) RecordValidation(ev coremetrics.ValidationEvent) error {
	return s.Append(Record{
		Timestamp:     ev.Time,
		Kind:          KindValidation,
		Validation:    ev.Kind,
		Baseline:      ev.Baseline,
		Candidate:     ev.Candidate,
		PercentChange: ev.PercentChange,
	})
}

// Close closes the current file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Close()
}

// Read returns the records of the history at path, rotated backups
// included, oldest first. Malformed lines are skipped.
func Read(ctx context.Context, path string, q Query) ([]Record, error) {
	files, err := filepath.Glob(backupPattern(path))
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		files = append(files, path)
	}
	var res []Record
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := readFile(f, q)
		if err != nil {
			return nil, err
		}
		res = append(res, recs...)
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Timestamp.Before(res[j].Timestamp) })
	return res, nil
}

// backupPattern matches lumberjack backups: name-<timestamp>.ext.
func backupPattern(path string) string {
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)] + "-*" + ext
}

func readFile(path string, q Query) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var res []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			continue
		}
		if q.matches(r) {
			res = append(res, r)
		}
	}
	return res, scanner.Err()
}

var (
	_ coremetrics.PricingRecorder    = (*Sink)(nil)
	_ coremetrics.ValidationRecorder = (*Sink)(nil)
)
