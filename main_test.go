package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/gridplay/tictactoe-backend/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestInitLogger(t *testing.T) {
	cases := []struct {
		name     string
		logLevel string
		want     slog.Level
	}{
		{name: "debug", logLevel: "debug", want: slog.LevelDebug},
		{name: "info", logLevel: "info", want: slog.LevelInfo},
		{name: "warn", logLevel: "warn", want: slog.LevelWarn},
		{name: "error", logLevel: "error", want: slog.LevelError},
		{name: "unknown falls back to info", logLevel: "verbose", want: slog.LevelInfo},
		{name: "empty falls back to info", logLevel: "", want: slog.LevelInfo},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger := initLogger(&config.Config{LogLevel: tc.logLevel})

			assert.True(t, logger.Enabled(context.Background(), tc.want))
			assert.False(t, logger.Enabled(context.Background(), tc.want-1))
		})
	}
}
