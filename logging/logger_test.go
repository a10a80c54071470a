package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_LevelSelection(t *testing.T) {
	tests := []struct {
		level       string
		debugOn     bool
		infoOn      bool
	}{
		{level: "debug", debugOn: true, infoOn: true},
		{level: "info", debugOn: false, infoOn: true},
		{level: "warn", debugOn: false, infoOn: false},
		{level: "error", debugOn: false, infoOn: false},
		{level: "", debugOn: false, infoOn: true},
		{level: "garbage", debugOn: false, infoOn: true},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run("level "+tt.level, func(t *testing.T) {
			logger := NewLogger(&Config{Level: tt.level, Format: "json", Output: "stdout"})
			require.NotNil(t, logger)
			assert.Equal(t, tt.debugOn, logger.Handler().Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.infoOn, logger.Handler().Enabled(ctx, slog.LevelInfo))
		})
	}
}

func TestWithComponent(t *testing.T) {
	logger := NewLogger(DefaultConfig())
	component := logger.WithComponent("spclient")
	require.NotNil(t, component)
	assert.NotSame(t, logger, component)
}

func TestDefault_IsSingleton(t *testing.T) {
	first := Default()
	assert.Same(t, first, Default())

	custom := NewLogger(&Config{Level: "debug", Format: "text"})
	SetDefault(custom)
	t.Cleanup(func() { SetDefault(first) })
	assert.Same(t, custom, Default())
}
