package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Infow("info", map[string]any{"k": 2})
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerFields(t *testing.T) {
	Configure(Options{Level: "info", Format: "json"})
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	l := NewZerologLoggerTo(&buf, "planner")
	l.Debugf("hidden")
	l.Infow("plan computed", map[string]any{"open_days": 5})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "planner", entry["component"])
	assert.Equal(t, "plan computed", entry["message"])
	assert.EqualValues(t, 5, entry["open_days"])
}

func TestConfigureUnknownLevel(t *testing.T) {
	Configure(Options{Level: "loud"})
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
