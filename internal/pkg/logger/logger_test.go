package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := NewFromZap(zap.New(core))

	log.Debug("hidden", nil)
	log.Info("hidden", nil)
	log.Warn("probe failed", map[string]interface{}{"component": "dashboard", "latency_ms": int64(12)})
	log.Error("wiring", errors.New("boom"), map[string]interface{}{"run_id": "r1"})

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "probe failed", entries[0].Message)
	assert.Equal(t, "dashboard", entries[0].ContextMap()["component"])
	assert.Equal(t, int64(12), entries[0].ContextMap()["latency_ms"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
	assert.Equal(t, "r1", entries[1].ContextMap()["run_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(""))
}

func TestNew(t *testing.T) {
	log, err := New("debug", nil)
	require.NoError(t, err)
	log.Debug("started", map[string]interface{}{"k": "v"})

	_, err = New("info", []string{"/nonexistent-dir/socprobe.log"})
	assert.Error(t, err)
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.Error("ignored", errors.New("x"), nil)
	assert.NoError(t, log.Sync())
}
