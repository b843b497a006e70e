package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// ParseLevel maps a log level name onto a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfig, name)
}

// NativeLogLevel maps the render.wgpu_log_level name onto the native wgpu log level.
// Unknown names fall back to warn.
func (r RenderConfig) NativeLogLevel() wgpu.LogLevel {
	switch strings.ToLower(r.WGPULogLevel) {
	case "off":
		return wgpu.LogLevelOff
	case "error":
		return wgpu.LogLevelError
	case "info":
		return wgpu.LogLevelInfo
	case "debug":
		return wgpu.LogLevelDebug
	case "trace":
		return wgpu.LogLevelTrace
	}
	return wgpu.LogLevelWarn
}
