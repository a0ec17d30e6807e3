package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerRedactsCredentials(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core).With("component", "test")

	log.Info("llm_attempt_start", "attempt", 1, "api_key", "sk-123", "Authorization", "Bearer x")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "llm_attempt_start", entries[0].Message)
	assert.Equal(t, "test", fields["component"])
	assert.EqualValues(t, 1, fields["attempt"])
	assert.Equal(t, "[REDACTED]", fields["api_key"])
	assert.Equal(t, "[REDACTED]", fields["Authorization"])
}

func TestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := NewWithCore(core)
	log.Debug("d")
	log.Info("i")
	log.Warn("w")
	log.Error("e")
	assert.Equal(t, 2, logs.Len())
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"dev", "prod", ""} {
		l, err := New(mode)
		require.NoError(t, err)
		require.NotNil(t, l)
	}
	Nop().Info("discarded", "k", "v")
}
