package logger_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybookhq/daybook-api/internal/config"
	"github.com/daybookhq/daybook-api/internal/platform/logger"
)

func TestSetup(t *testing.T) {
	t.Run("valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "Info"} {
			l, err := logger.Setup(config.ServerConfig{LogLevel: level})
			require.NoError(t, err)
			assert.NotNil(t, l)
		}
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		l, err := logger.Setup(config.ServerConfig{LogLevel: "verbose"})
		require.NoError(t, err)
		require.NotNil(t, l)
		assert.True(t, l.Enabled(context.Background(), slog.LevelInfo))
		assert.False(t, l.Enabled(context.Background(), slog.LevelDebug))
	})
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	attached := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("round trip through context", func(t *testing.T) {
		t.Parallel()

		ctx := logger.WithLogger(context.Background(), attached)
		assert.Same(t, attached, logger.FromContext(ctx))
		assert.Same(t, attached, logger.FromContextOrDefault(ctx, nil))
	})

	t.Run("fallbacks when nothing attached", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		assert.Same(t, slog.Default(), logger.FromContext(ctx))

		def := slog.New(slog.NewTextHandler(io.Discard, nil))
		assert.Same(t, def, logger.FromContextOrDefault(ctx, def))
		assert.Same(t, slog.Default(), logger.FromContextOrDefault(ctx, nil))
	})
}
