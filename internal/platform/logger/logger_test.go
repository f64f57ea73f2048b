package logger_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
)

func TestFromContext(t *testing.T) {
	t.Run("returns attached logger", func(t *testing.T) {
		attached := slog.New(slog.NewTextHandler(io.Discard, nil))
		ctx := logger.WithLogger(context.Background(), attached)

		assert.Same(t, attached, logger.FromContext(ctx))
	})

	t.Run("falls back to default", func(t *testing.T) {
		got := logger.FromContext(context.Background())
		assert.NotNil(t, got)
		assert.Same(t, slog.Default(), got)
	})
}

func TestFromContextOrDefault(t *testing.T) {
	def := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("prefers context logger", func(t *testing.T) {
		attached := slog.New(slog.NewTextHandler(io.Discard, nil))
		ctx := logger.WithLogger(context.Background(), attached)

		assert.Same(t, attached, logger.FromContextOrDefault(ctx, def))
	})

	t.Run("uses provided default when context is bare", func(t *testing.T) {
		assert.Same(t, def, logger.FromContextOrDefault(context.Background(), def))
	})

	t.Run("nil default falls back to process default", func(t *testing.T) {
		got := logger.FromContextOrDefault(context.Background(), nil)
		assert.Same(t, slog.Default(), got)
	})
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"error", "error"},
		{"case insensitive", "DEBUG"},
		{"unknown falls back to info", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := logger.Setup(tt.level)
			assert.NotNil(t, got)
			assert.Same(t, slog.Default(), got, "Setup installs the logger as process default")
		})
	}
}
