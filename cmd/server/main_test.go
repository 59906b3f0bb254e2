package main

import (
	"log/slog"
	"testing"

	"github.com/polyhub/studyhub/internal/platform/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LogConfig
		// level that must be enabled and one that must not
		enabled  slog.Level
		disabled slog.Level
	}{
		{"default info", config.LogConfig{Level: "info", Format: "json"}, slog.LevelInfo, slog.LevelDebug},
		{"debug", config.LogConfig{Level: "debug", Format: "json"}, slog.LevelDebug, slog.LevelDebug - 1},
		{"warn text", config.LogConfig{Level: "warn", Format: "text"}, slog.LevelWarn, slog.LevelInfo},
		{"unknown falls back to info", config.LogConfig{Level: "loud", Format: "json"}, slog.LevelInfo, slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := newLogger(tt.cfg)
			if !logger.Enabled(t.Context(), tt.enabled) {
				t.Errorf("level %v not enabled", tt.enabled)
			}
			if logger.Enabled(t.Context(), tt.disabled) {
				t.Errorf("level %v enabled, want disabled", tt.disabled)
			}
		})
	}
}
