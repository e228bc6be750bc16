package logger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	prev := Log
	core, logs := observer.New(zapcore.DebugLevel)
	setLogger(zap.New(core, zap.AddCaller()))
	t.Cleanup(func() { setLogger(prev) })
	return logs
}

func TestCallerPointsAtCallSite(t *testing.T) {
	logs := observe(t)
	ctx := WithRequestID(context.Background(), "req-1")

	Info("package helper")
	FromContext(ctx).Info("request logger")
	With(zap.String("k", "v")).Warn("child logger")
	Log.Debug("global logger")

	entries := logs.All()
	require.Len(t, entries, 4)
	for _, e := range entries {
		require.True(t, e.Caller.Defined, e.Message)
		assert.Equal(t, "logger_test.go", filepath.Base(e.Caller.File), e.Message)
	}
	assert.Equal(t, "req-1", entries[1].ContextMap()["request_id"])
}

func TestInitLevels(t *testing.T) {
	prev := Log
	t.Cleanup(func() { setLogger(prev) })

	require.NoError(t, Init(&Config{Level: "warn", Format: "json"}))
	assert.False(t, Log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Log.Core().Enabled(zapcore.WarnLevel))

	require.NoError(t, Init(&Config{Level: "debug", Format: "text"}))
	assert.True(t, Log.Core().Enabled(zapcore.DebugLevel))
}
