package logger

import (
	"strings"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/spos/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.Nop

// Options selects the global level and output format.
type Options struct {
	Level  string
	Format string
}

var format = "json"

// Configure sets the global zerolog level and the output format used by
// loggers created afterwards. Unknown levels default to info.
func Configure(o Options) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(o.Level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if f := strings.ToLower(strings.TrimSpace(o.Format)); f != "" {
		format = f
	}
}

// New returns a Logger for the given component. The environment is detected via
// the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}
