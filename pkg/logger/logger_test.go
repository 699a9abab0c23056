package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		log, err := New(Config{Level: "info", Format: format})
		require.NoError(t, err, format)
		require.NotNil(t, log)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{Level: "loud", Format: "console"})
	require.Error(t, err)

	_, err = New(Config{Level: "info", Format: "xml"})
	require.Error(t, err)
}

func TestNamedAndWithError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := &Logger{Logger: zap.New(core)}

	log.Named("semparse").WithError(errors.New("boom")).Error("parse failed")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "semparse", entries[0].LoggerName)
	require.Equal(t, "parse failed", entries[0].Message)
	require.EqualError(t, entries[0].ContextMap()["error"].(error), "boom")
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := &Logger{Logger: zap.New(core)}

	log.With(String("component", "grammar"), Int("patterns", 42)).Debug("loaded")

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	require.Equal(t, "grammar", ctx["component"])
	require.EqualValues(t, 42, ctx["patterns"])
}
