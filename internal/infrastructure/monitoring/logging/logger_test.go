package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/turtacn/logkpredict/pkg/errors"
)

func newObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger(LogConfig{Level: LevelInfo, Format: format})
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}

func TestNewLogger_BadOutputPath(t *testing.T) {
	_, err := NewLogger(LogConfig{OutputPaths: []string{"/nonexistent-dir/for/sure/log.txt"}})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestZapLogger_FieldsAndLevels(t *testing.T) {
	l, logs := newObservedLogger(zapcore.DebugLevel)

	l.Debug("stage finished", Stage("descriptors"), Duration("elapsed", time.Millisecond))
	l.Warn("sanitize step failed", String("step", "Kekulize"))
	l.Error("prediction failed", Code(errors.New(errors.CodePredictionEngine, "exit 1")))

	require.Equal(t, 3, logs.Len())
	entries := logs.All()
	assert.Equal(t, "descriptors", entries[0].ContextMap()["stage"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "LOGK_ENGINE", entries[2].ContextMap()["code"])
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	l, logs := newObservedLogger(zapcore.InfoLevel)

	child := l.Named("logk").With(RequestID("r-1"))
	child.Info("predicted", Float64("log_k", 4.25))
	l.Debug("filtered out")

	require.Equal(t, 1, logs.Len())
	e := logs.All()[0]
	assert.Equal(t, "logk", e.LoggerName)
	assert.Equal(t, "r-1", e.ContextMap()["request_id"])
	assert.Equal(t, 4.25, e.ContextMap()["log_k"])
}

func TestErrField(t *testing.T) {
	assert.Equal(t, "<nil>", Err(nil).Value)
	assert.Equal(t, "[LOGK_ENV] unset", Err(errors.New(errors.CodeEnvironment, "unset")).Value)
	assert.Equal(t, "UNKNOWN", Code(assert.AnError).Value)
}

func TestDefaultLogger(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	SetDefault(nil)
	assert.Equal(t, prev, Default())

	l := NewNopLogger()
	SetDefault(l)
	assert.Equal(t, l, Default())

	// nop logger never panics
	l.With(String("k", "v")).Named("x").Error("ignored")
}
