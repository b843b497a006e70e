package console

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-msaa/common"
	"github.com/Carmen-Shannon/oxy-msaa/engine/logger"
)

// newTestConsole wires a console to a real run log in a temp dir so the scrollback sees every record.
func newTestConsole(t *testing.T, options ...ConsoleBuilderOption) (Console, *[][]string) {
	t.Helper()
	l, err := logger.NewLogger(
		logger.WithDirectory(t.TempDir()),
		logger.WithOutputs(io.Discard, io.Discard),
		logger.WithClock(func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }),
	)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	t.Cleanup(func() { l.Close() })

	c := NewConsole(append([]ConsoleBuilderOption{WithLogger(l.Slog())}, options...)...)
	l.AddSink(c.Sink())

	calls := &[][]string{}
	record := func(args []string) error {
		*calls = append(*calls, args)
		return nil
	}
	for _, name := range []string{"help", "t_msaa", "say"} {
		if err := c.Register(Command{Name: name, Run: record}); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}
	return c, calls
}

func typeLine(c Console, line string) {
	for _, r := range line {
		c.HandleChar(r)
	}
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantArgs [][]string
		wantErr  error
		wantLine string
	}{
		{name: "blank", line: "   "},
		{name: "no args", line: "help", wantArgs: [][]string{{}}, wantLine: "[INFO] cmd: help"},
		{name: "one arg", line: "t_msaa 4", wantArgs: [][]string{{"4"}}, wantLine: "[INFO] cmd: t_msaa 4"},
		{name: "quoted arg", line: `say "a b" c`, wantArgs: [][]string{{"a b", "c"}}},
		{name: "unknown", line: "foo 1", wantErr: ErrUnknownCommand, wantLine: "[WARNING] unknown cmd: foo"},
		{name: "unterminated quote", line: `say "open`, wantErr: ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := newTestConsole(t)

			err := c.Execute(tt.line)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Execute(%q) error = %v, want %v", tt.line, err, tt.wantErr)
			}
			if len(*calls) != len(tt.wantArgs) {
				t.Fatalf("Execute(%q) ran %d commands, want %d", tt.line, len(*calls), len(tt.wantArgs))
			}
			for i, args := range tt.wantArgs {
				if len(args) == 0 && len((*calls)[i]) == 0 {
					continue
				}
				if !reflect.DeepEqual((*calls)[i], args) {
					t.Errorf("Execute(%q) args = %q, want %q", tt.line, (*calls)[i], args)
				}
			}
			if tt.wantLine != "" && !containsLine(c.Lines(), tt.wantLine) {
				t.Errorf("Lines() = %q, want to contain %q", c.Lines(), tt.wantLine)
			}
			if strings.TrimSpace(tt.line) == "" && len(c.Lines()) != 0 {
				t.Errorf("Lines() = %q, want nothing logged for a blank line", c.Lines())
			}
		})
	}
}

func TestCommandError(t *testing.T) {
	c := NewConsole(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	want := errors.New("boom")
	c.Register(Command{Name: "fail", Run: func([]string) error { return want }})

	if err := c.Execute("fail"); !errors.Is(err, want) {
		t.Errorf("Execute(fail) error = %v, want %v", err, want)
	}
}

func TestEnterLogsCommandError(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantLog string
	}{
		{"command error", "fail now", "cmd failed: boom"},
		{"unknown command", "nope", "cmd failed: nope: unknown command"},
		{"success", "ok", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf strings.Builder
			c := NewConsole(WithVisible(true), WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))))
			c.Register(Command{Name: "fail", Run: func([]string) error { return errors.New("boom") }})
			c.Register(Command{Name: "ok", Run: func([]string) error { return nil }})

			typeLine(c, tt.line)
			c.HandleKey(common.KeyEnter, common.KeyPress)

			failed := strings.Contains(buf.String(), "cmd failed")
			if failed != (tt.wantLog != "") {
				t.Errorf("log %q, want cmd failed = %v", buf.String(), tt.wantLog != "")
			}
			if tt.wantLog != "" && !strings.Contains(buf.String(), tt.wantLog) {
				t.Errorf("log %q does not contain %q", buf.String(), tt.wantLog)
			}
		})
	}
}

func TestInputEditing(t *testing.T) {
	c, calls := newTestConsole(t, WithVisible(true))

	typeLine(c, "t_msaa 88")
	c.HandleKey(common.KeyBackspace, common.KeyPress)
	if got := c.Input(); got != "t_msaa 8" {
		t.Errorf("Input() after Backspace = %q, want %q", got, "t_msaa 8")
	}

	c.HandleKey(common.KeyEsc, common.KeyPress)
	if got := c.Input(); got != "" {
		t.Errorf("Input() after Escape = %q, want empty", got)
	}

	typeLine(c, "t_msaa 2")
	c.HandleKey(common.KeyEnter, common.KeyPress)
	if got := c.Input(); got != "" {
		t.Errorf("Input() after Enter = %q, want empty", got)
	}
	if len(*calls) != 1 || (*calls)[0][0] != "2" {
		t.Errorf("Enter ran %q, want [[2]]", *calls)
	}

	c.HandleKey(common.KeyEnter, common.KeyRepeat)
	c.HandleKey(common.KeyEnter, common.KeyPress)
	if len(*calls) != 1 {
		t.Errorf("empty Enter ran %d commands, want 1 total", len(*calls))
	}
	if got := c.History(); !reflect.DeepEqual(got, []string{"t_msaa 2"}) {
		t.Errorf("History() = %q, want [t_msaa 2]", got)
	}
}

func TestHandleCharFilters(t *testing.T) {
	c := NewConsole(WithVisible(true), WithMaxInput(3))

	c.HandleChar('\n')
	c.HandleChar('\t')
	typeLine(c, "abcd")
	if got := c.Input(); got != "abc" {
		t.Errorf("Input() = %q, want %q", got, "abc")
	}
}

func TestHistoryNavigation(t *testing.T) {
	c, _ := newTestConsole(t, WithVisible(true))
	for _, line := range []string{"help", "t_msaa 4", "t_msaa 4", "say hi"} {
		typeLine(c, line)
		c.HandleKey(common.KeyEnter, common.KeyPress)
	}
	if got, want := c.History(), []string{"help", "t_msaa 4", "say hi"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("History() = %q, want %q", got, want)
	}

	steps := []struct {
		key  int
		want string
	}{
		{common.KeyUp, "say hi"},
		{common.KeyUp, "t_msaa 4"},
		{common.KeyUp, "help"},
		{common.KeyUp, "help"},
		{common.KeyDown, "t_msaa 4"},
		{common.KeyDown, "say hi"},
		{common.KeyDown, ""},
		{common.KeyDown, ""},
		{common.KeyUp, "say hi"},
	}
	for i, s := range steps {
		c.HandleKey(s.key, common.KeyPress)
		if got := c.Input(); got != s.want {
			t.Errorf("step %d: Input() = %q, want %q", i, got, s.want)
		}
	}
}

func TestHistoryLimit(t *testing.T) {
	c := NewConsole(WithVisible(true), WithMaxHistory(2), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	for _, line := range []string{"a", "b", "c"} {
		typeLine(c, line)
		c.HandleKey(common.KeyEnter, common.KeyPress)
	}
	if got, want := c.History(), []string{"b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("History() = %q, want %q", got, want)
	}
}

func TestToggle(t *testing.T) {
	c := NewConsole()

	c.HandleChar('x')
	c.HandleKey(common.KeyUp, common.KeyPress)
	if c.Visible() || c.Input() != "" {
		t.Errorf("hidden console accepted input %q", c.Input())
	}

	tests := []struct {
		action common.KeyAction
		want   bool
	}{
		{common.KeyPress, true},
		{common.KeyRepeat, true},
		{common.KeyRelease, true},
		{common.KeyPress, false},
		{common.KeyRelease, false},
	}
	for i, tt := range tests {
		c.HandleKey(common.KeyF1, tt.action)
		if got := c.Visible(); got != tt.want {
			t.Errorf("step %d: Visible() = %v, want %v", i, got, tt.want)
		}
	}
}

func TestSinkKeepsRecentLines(t *testing.T) {
	c := NewConsole(WithMaxLines(2))
	sink := c.Sink()
	for i, msg := range []string{"one", "two", "three"} {
		level := slog.LevelInfo
		if i == 2 {
			level = slog.LevelError
		}
		sink(logger.Record{Level: level, Message: msg})
	}

	if got, want := c.Lines(), []string{"[INFO] two", "[ERROR] three"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Lines() = %q, want %q", got, want)
	}
}

func TestRegister(t *testing.T) {
	noop := func([]string) error { return nil }
	tests := []struct {
		name    string
		cmd     Command
		wantErr bool
	}{
		{"ok", Command{Name: "info", Run: noop}, false},
		{"duplicate", Command{Name: "help", Run: noop}, true},
		{"empty name", Command{Name: "  ", Run: noop}, true},
		{"no handler", Command{Name: "nop"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConsole()
			c.Register(Command{Name: "help", Run: noop})
			if err := c.Register(tt.cmd); (err != nil) != tt.wantErr {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	c := NewConsole()
	c.Register(Command{Name: "t_msaa", Run: noop})
	c.Register(Command{Name: "help", Run: noop})
	if got, want := c.Commands(), []string{"help", "t_msaa"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Commands() = %q, want %q", got, want)
	}
}

func containsLine(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}
