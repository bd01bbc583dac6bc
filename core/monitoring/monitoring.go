// Package monitoring holds the process-wide error reporter.
package monitoring

import "time"

// Tag keys attached to captured run failures.
const (
	TagModule  = "module"
	TagRunKind = "run_kind"
	TagRunID   = "run_id"
)

// Run kinds.
const (
	RunPlan    = "plan"
	RunPricing = "pricing"
)

// Monitor reports errors to an external tracker.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the global monitor. A nil monitor is ignored.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// RunFailure identifies a failed planning or pricing run.
type RunFailure struct {
	Module string
	Kind   string
	RunID  string
	// Extra tags, e.g. the optimizer strategy.
	Extra map[string]string
}

// Tags flattens f into monitor tags. Empty fields are left out.
func (f RunFailure) Tags() map[string]string {
	tags := make(map[string]string, len(f.Extra)+3)
	for k, v := range f.Extra {
		tags[k] = v
	}
	for k, v := range map[string]string{TagModule: f.Module, TagRunKind: f.Kind, TagRunID: f.RunID} {
		if v != "" {
			tags[k] = v
		}
	}
	return tags
}

// CaptureRun reports err as the failure of run f. A nil err is ignored.
func CaptureRun(err error, f RunFailure) {
	if err == nil {
		return
	}
	CaptureException(err, f.Tags())
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	current.CaptureException(err, tags)
}

// Recover captures panics in goroutines.
func Recover() {
	current.Recover()
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	current.Flush(d)
}
