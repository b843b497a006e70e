package console

import "log/slog"

// ConsoleBuilderOption is a functional option for configuring a Console via NewConsole.
type ConsoleBuilderOption func(*console)

// WithLogger sets the logger used for "cmd:" and dispatch warnings. Defaults to slog.Default().
//
// Parameters:
//   - logger: the structured logger
//
// Returns:
//   - ConsoleBuilderOption: a function that applies the logger option to a console
func WithLogger(logger *slog.Logger) ConsoleBuilderOption {
	return func(c *console) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxLines sets how many log lines the scrollback keeps.
func WithMaxLines(n int) ConsoleBuilderOption {
	return func(c *console) {
		if n > 0 {
			c.maxLines = n
		}
	}
}

// WithMaxHistory sets how many submitted lines are kept for recall.
func WithMaxHistory(n int) ConsoleBuilderOption {
	return func(c *console) {
		if n > 0 {
			c.maxHistory = n
		}
	}
}

// WithMaxInput sets the longest accepted input line, in runes.
func WithMaxInput(n int) ConsoleBuilderOption {
	return func(c *console) {
		if n > 0 {
			c.maxInput = n
		}
	}
}

// WithVisible sets the initial visibility. Consoles start hidden.
func WithVisible(visible bool) ConsoleBuilderOption {
	return func(c *console) {
		c.visible = visible
	}
}
