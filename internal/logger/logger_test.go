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

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "nil config", cfg: nil},
		{name: "default config", cfg: DefaultConfig()},
		{name: "json to stdout", cfg: &Config{Level: "debug", Format: "json", Output: "stdout"}},
		{name: "file output", cfg: &Config{Level: "warn", Format: "json", Output: filepath.Join(t.TempDir(), "run.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("bogus"))
}

func TestContextPropagation(t *testing.T) {
	t.Run("missing logger falls back to nop", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})

	t.Run("iteration id is attached", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		base := zap.New(core)

		ctx, l := WithIteration(context.Background(), base, "it-1")
		l.Info("hello")

		assert.Equal(t, "it-1", IterationID(ctx))
		assert.Same(t, l, FromContext(ctx))
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "it-1", logs.All()[0].ContextMap()["iteration"])
	})
}
