package engine

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-msaa/engine/config"
	"github.com/Carmen-Shannon/oxy-msaa/engine/logger"
	"github.com/Carmen-Shannon/oxy-msaa/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig sets the runtime configuration.
//
// Parameters:
//   - cfg: a validated configuration, see config.Load
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.config = cfg
	}
}

// WithLogger sets the logger used by every component. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRunLog sets the run log. Its structured logger replaces any WithLogger value and the console
// scrollback is fed from it.
//
// Parameters:
//   - runLog: the run log created by logger.NewLogger
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRunLog(runLog logger.Logger) EngineBuilderOption {
	return func(e *engine) {
		if runLog == nil {
			return
		}
		e.runLog = runLog
		e.logger = runLog.Slog()
	}
}

// WithWindow sets a pre-created window for the engine to render into. The engine closes it on teardown.
//
// Parameters:
//   - w: the window to use
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithProfiling enables or disables the periodic frame statistics summary in the log.
//
// Parameters:
//   - enabled: if true, the profiler summary is logged
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profiling = enabled
	}
}
