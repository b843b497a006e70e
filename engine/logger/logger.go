// Package logger writes the per-run log file and mirrors every record to the terminal.
// It exposes the log through a log/slog handler so every package logs with *slog.Logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// TimestampLayout is the layout used for every timestamp written to the log.
	TimestampLayout = "2006-01-02 15:04:05.000"

	// DefaultPrefix is the file name prefix of the per-run log file.
	DefaultPrefix = "togl_demo_log_"
)

var fileNameReplacer = strings.NewReplacer(":", "-", " ", "_")

// Record is a single formatted log entry delivered to sinks.
type Record struct {
	Time    time.Time
	Level   slog.Level
	Message string
}

// Line renders the record in the log file format.
func (r Record) Line() string {
	return fmt.Sprintf("[%s] [%s] %s", r.Time.Format(TimestampLayout), LevelName(r.Level), r.Message)
}

// Sink receives every record after it has been written to the file.
type Sink func(Record)

// logger is the implementation of the Logger interface.
type logger struct {
	mu *sync.Mutex

	dir    string
	prefix string
	level  slog.Level
	clock  func() time.Time
	stdout io.Writer
	stderr io.Writer

	file   *os.File
	path   string
	sinks  []Sink
	closed bool

	slog *slog.Logger
}

// Logger defines the interface for the run log.
//
// A Logger owns one timestamped file created at construction. Every record is appended to it,
// mirrored to stdout (INFO, WARNING) or stderr (ERROR) and handed to the registered sinks.
type Logger interface {
	// Slog returns the structured logger writing through this Logger.
	//
	// Returns:
	//   - *slog.Logger: the logger bound to this run log
	Slog() *slog.Logger

	// Path returns the path of the log file for this run.
	//
	// Returns:
	//   - string: the log file path
	Path() string

	// AddSink registers a callback that receives every subsequent record.
	//
	// Parameters:
	//   - sink: the callback to register
	AddSink(sink Sink)

	// Close writes the footer line and closes the log file.
	// Records logged after Close are still mirrored to the terminal and sinks.
	//
	// Returns:
	//   - error: an error if the file could not be flushed or closed
	Close() error
}

var _ Logger = &logger{}

// NewLogger creates the log file for this run and writes the header line.
//
// Parameters:
//   - options: functional options for configuring the logger
//
// Returns:
//   - Logger: the newly created Logger
//   - error: an error if the log directory or file could not be created
func NewLogger(options ...LoggerBuilderOption) (Logger, error) {
	l := &logger{
		mu:     &sync.Mutex{},
		dir:    ".",
		prefix: DefaultPrefix,
		level:  slog.LevelInfo,
		clock:  time.Now,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	for _, option := range options {
		option(l)
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", l.dir, err)
	}

	started := l.clock()
	l.path = filepath.Join(l.dir, FileName(l.prefix, started))

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", l.path, err)
	}
	l.file = f

	if _, err := fmt.Fprintf(l.file, "=== log started at %s ===\n", started.Format(TimestampLayout)); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write log header: %w", err)
	}

	l.slog = slog.New(&handler{core: l})

	return l, nil
}

// FileName builds the per-run log file name from a prefix and the start time.
//
// Parameters:
//   - prefix: the file name prefix
//   - t: the run start time
//
// Returns:
//   - string: the file name, with ':' replaced by '-' and ' ' replaced by '_'
func FileName(prefix string, t time.Time) string {
	return prefix + fileNameReplacer.Replace(t.Format(TimestampLayout)) + ".txt"
}

// LevelName maps a slog level onto the severity tag written to the log.
func LevelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARNING"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func (l *logger) Slog() *slog.Logger {
	return l.slog
}

func (l *logger) Path() string {
	return l.path
}

func (l *logger) AddSink(sink Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sinks = append(l.sinks, sink)
}

func (l *logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	_, writeErr := fmt.Fprintf(l.file, "=== log ended at %s ===\n", l.clock().Format(TimestampLayout))
	closeErr := l.file.Close()
	if writeErr != nil {
		return fmt.Errorf("failed to write log footer: %w", writeErr)
	}
	return closeErr
}

// write appends one record to every output. Sinks run outside the lock so they may log.
func (l *logger) write(r Record) {
	line := r.Line() + "\n"

	l.mu.Lock()
	if !l.closed {
		io.WriteString(l.file, line)
	}
	if r.Level >= slog.LevelError {
		io.WriteString(l.stderr, line)
	} else {
		io.WriteString(l.stdout, line)
	}
	sinks := append([]Sink(nil), l.sinks...)
	l.mu.Unlock()

	for _, sink := range sinks {
		sink(r)
	}
}
