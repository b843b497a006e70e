// Package console implements the in-game debug console: an editable input line with history,
// a command table dispatched through shell-style tokenising, and a short scrollback of log lines.
package console

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/Carmen-Shannon/oxy-msaa/common"
	"github.com/Carmen-Shannon/oxy-msaa/engine/logger"
	"github.com/google/shlex"
)

const (
	// DefaultMaxInput is the longest input line accepted, in runes.
	DefaultMaxInput = 255

	// DefaultMaxLines is the number of log lines kept for display.
	DefaultMaxLines = 8

	// DefaultMaxHistory is the number of submitted lines kept for recall.
	DefaultMaxHistory = 32
)

var (
	// ErrUnknownCommand is returned by Execute when the first token names no registered command.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidArgument is returned for lines that cannot be tokenised and by commands rejecting their arguments.
	ErrInvalidArgument = errors.New("invalid argument")
)

// console is the implementation of the Console interface.
type console struct {
	mu     *sync.Mutex
	logger *slog.Logger

	commands *registry

	visible bool
	input   []rune

	history    []string
	historyPos int

	lines []string

	maxInput   int
	maxLines   int
	maxHistory int
}

// Console defines the interface for the debug console.
//
// Key and character events are ignored while the console is hidden, except the toggle key.
// Commands run synchronously on the goroutine delivering the Enter key.
type Console interface {
	// Visible reports whether the console is shown.
	//
	// Returns:
	//   - bool: true while the console is shown
	Visible() bool

	// Toggle shows a hidden console or hides a shown one.
	Toggle()

	// HandleKey applies a key event: F1 toggles on press, Enter submits, Backspace deletes,
	// Up and Down walk the history and Escape clears the input.
	//
	// Parameters:
	//   - key: the key code, see common.Key*
	//   - action: the key action
	HandleKey(key int, action common.KeyAction)

	// HandleChar appends a printable rune to the input line.
	//
	// Parameters:
	//   - r: the rune typed
	HandleChar(r rune)

	// Input returns the current input line.
	//
	// Returns:
	//   - string: the text typed so far
	Input() string

	// Lines returns the most recent log lines, oldest first.
	//
	// Returns:
	//   - []string: a copy of the scrollback
	Lines() []string

	// History returns the submitted lines, oldest first.
	//
	// Returns:
	//   - []string: a copy of the history
	History() []string

	// Sink returns a logger sink that appends every record to the scrollback.
	//
	// Returns:
	//   - logger.Sink: the sink to register with logger.Logger.AddSink
	Sink() logger.Sink

	// Register adds a command to the command table.
	//
	// Parameters:
	//   - cmd: the command to add
	//
	// Returns:
	//   - error: an error if the name is empty, taken, or the command has no handler
	Register(cmd Command) error

	// Commands returns the registered command names in sorted order.
	//
	// Returns:
	//   - []string: the command names
	Commands() []string

	// Execute tokenises a line and runs the command it names.
	// Blank lines are ignored. Every other line is logged as "cmd: <line>" before dispatch.
	//
	// Parameters:
	//   - line: the command line
	//
	// Returns:
	//   - error: ErrUnknownCommand, ErrInvalidArgument, or the command's own error
	Execute(line string) error
}

var _ Console = &console{}

// NewConsole creates a hidden Console with an empty command table.
//
// Parameters:
//   - options: a variadic list of ConsoleBuilderOption functions to configure the Console
//
// Returns:
//   - Console: the new console
func NewConsole(options ...ConsoleBuilderOption) Console {
	c := &console{
		mu:         &sync.Mutex{},
		logger:     slog.Default(),
		commands:   newRegistry(),
		maxInput:   DefaultMaxInput,
		maxLines:   DefaultMaxLines,
		maxHistory: DefaultMaxHistory,
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

func (c *console) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

func (c *console) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = !c.visible
}

func (c *console) HandleKey(key int, action common.KeyAction) {
	if key == common.KeyF1 {
		if action == common.KeyPress {
			c.Toggle()
		}
		return
	}
	if action == common.KeyRelease {
		return
	}

	c.mu.Lock()
	if !c.visible {
		c.mu.Unlock()
		return
	}

	var submit string
	switch key {
	case common.KeyEnter:
		if action != common.KeyPress {
			break
		}
		submit = string(c.input)
		c.input = c.input[:0]
		c.pushHistory(submit)
	case common.KeyBackspace:
		if len(c.input) > 0 {
			c.input = c.input[:len(c.input)-1]
		}
	case common.KeyEsc:
		c.input = c.input[:0]
		c.historyPos = len(c.history)
	case common.KeyUp:
		if c.historyPos > 0 {
			c.historyPos--
			c.input = []rune(c.history[c.historyPos])
		}
	case common.KeyDown:
		if c.historyPos < len(c.history)-1 {
			c.historyPos++
			c.input = []rune(c.history[c.historyPos])
		} else {
			c.historyPos = len(c.history)
			c.input = c.input[:0]
		}
	}
	c.mu.Unlock()

	// Commands log, and logging feeds the sink, so the lock is released first.
	// Execute already logs the failures a user can act on at warn level.
	if submit != "" {
		if err := c.Execute(submit); err != nil {
			c.logger.Debug("cmd failed: " + err.Error())
		}
	}
}

func (c *console) HandleChar(r rune) {
	if !unicode.IsPrint(r) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.visible || len(c.input) >= c.maxInput {
		return
	}
	c.input = append(c.input, r)
}

func (c *console) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.input)
}

func (c *console) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func (c *console) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.history...)
}

func (c *console) Sink() logger.Sink {
	return func(r logger.Record) {
		line := fmt.Sprintf("[%s] %s", logger.LevelName(r.Level), r.Message)

		c.mu.Lock()
		defer c.mu.Unlock()

		c.lines = append(c.lines, line)
		if over := len(c.lines) - c.maxLines; over > 0 {
			c.lines = append(c.lines[:0], c.lines[over:]...)
		}
	}
}

func (c *console) Register(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commands.register(cmd)
}

func (c *console) Commands() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commands.names()
}

func (c *console) Execute(line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	c.logger.Info("cmd: " + line)

	tokens, err := shlex.Split(line)
	if err != nil {
		c.logger.Warn("invalid cmd: " + err.Error())
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if len(tokens) == 0 {
		return nil
	}

	c.mu.Lock()
	cmd, ok := c.commands.resolve(tokens[0])
	c.mu.Unlock()

	if !ok {
		c.logger.Warn("unknown cmd: " + tokens[0])
		return fmt.Errorf("%s: %w", tokens[0], ErrUnknownCommand)
	}

	return cmd.Run(tokens[1:])
}

// pushHistory records a submitted line and resets the recall position. Caller holds the lock.
func (c *console) pushHistory(line string) {
	if strings.TrimSpace(line) != "" {
		if n := len(c.history); n == 0 || c.history[n-1] != line {
			c.history = append(c.history, line)
		}
		if over := len(c.history) - c.maxHistory; over > 0 {
			c.history = append(c.history[:0], c.history[over:]...)
		}
	}
	c.historyPos = len(c.history)
}
