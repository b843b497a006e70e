package logger

import (
	"io"
	"log/slog"
	"time"
)

// LoggerBuilderOption is a functional option used to configure a Logger during construction.
type LoggerBuilderOption func(*logger)

// WithDirectory sets the directory the log file is created in. Defaults to the working directory.
//
// Parameters:
//   - dir: the directory path, created if missing
//
// Returns:
//   - LoggerBuilderOption: a function that sets the log directory
func WithDirectory(dir string) LoggerBuilderOption {
	return func(l *logger) {
		if dir != "" {
			l.dir = dir
		}
	}
}

// WithPrefix sets the file name prefix. Defaults to DefaultPrefix.
//
// Parameters:
//   - prefix: the prefix placed before the timestamp
//
// Returns:
//   - LoggerBuilderOption: a function that sets the file name prefix
func WithPrefix(prefix string) LoggerBuilderOption {
	return func(l *logger) {
		l.prefix = prefix
	}
}

// WithLevel sets the minimum level that is recorded. Defaults to slog.LevelInfo.
//
// Parameters:
//   - level: the minimum level
//
// Returns:
//   - LoggerBuilderOption: a function that sets the minimum level
func WithLevel(level slog.Level) LoggerBuilderOption {
	return func(l *logger) {
		l.level = level
	}
}

// WithClock overrides the time source, used for deterministic file names and timestamps.
//
// Parameters:
//   - clock: a function returning the current time
//
// Returns:
//   - LoggerBuilderOption: a function that sets the clock
func WithClock(clock func() time.Time) LoggerBuilderOption {
	return func(l *logger) {
		l.clock = clock
	}
}

// WithOutputs overrides the terminal mirrors. Defaults to os.Stdout and os.Stderr.
//
// Parameters:
//   - stdout: receives INFO and WARNING records
//   - stderr: receives ERROR records
//
// Returns:
//   - LoggerBuilderOption: a function that sets the terminal mirrors
func WithOutputs(stdout, stderr io.Writer) LoggerBuilderOption {
	return func(l *logger) {
		l.stdout = stdout
		l.stderr = stderr
	}
}

// WithSink registers a sink at construction time.
//
// Parameters:
//   - sink: the callback to register
//
// Returns:
//   - LoggerBuilderOption: a function that adds the sink
func WithSink(sink Sink) LoggerBuilderOption {
	return func(l *logger) {
		l.sinks = append(l.sinks, sink)
	}
}
