package logger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).With(map[string]interface{}{"taskType": "retrieve-records"})

	log.Warn("retrieval fell back", map[string]interface{}{
		"attempts": 2,
		"cause":    fmt.Errorf("unsupported predicate"),
	})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Equal(t, "retrieve-records", ctx["taskType"])
		assert.EqualValues(t, 2, ctx["attempts"])
		assert.Equal(t, "unsupported predicate", ctx["cause"])
	}
}

func TestZapAdapter_WithError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewZapAdapter(zap.New(core))

	log.WithError(fmt.Errorf("boom")).Error("turn failed", nil)
	log.Debug("dropped", nil)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "boom", entries[0].ContextMap()["error"])
	}
}

func TestNew_Levels(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"unknown": zapcore.InfoLevel,
	}
	for level, want := range tests {
		l := New(level, "json", "stderr")
		assert.True(t, l.Core().Enabled(want), level)
		if want > zapcore.DebugLevel {
			assert.False(t, l.Core().Enabled(want-1), level)
		}
	}
}

func TestTestAndNoopLoggers(t *testing.T) {
	NewTestLogger(t).Info("hello", map[string]interface{}{"k": "v"})
	NewNoOpLogger().Error("ignored", nil)
}
