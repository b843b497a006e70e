package console

import (
	"fmt"
	"sort"
	"strings"
)

// CommandFunc runs a command with the tokens following its name.
type CommandFunc func(args []string) error

// Command is one entry of the console command table.
type Command struct {
	Name  string
	Usage string
	Run   CommandFunc
}

type registry struct {
	commands map[string]Command
}

func newRegistry() *registry {
	return &registry{
		commands: make(map[string]Command),
	}
}

func (r *registry) register(cmd Command) error {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if cmd.Name == "" {
		return fmt.Errorf("console registry: empty command name")
	}
	if cmd.Run == nil {
		return fmt.Errorf("console registry: %q has no handler", cmd.Name)
	}
	if _, ok := r.commands[cmd.Name]; ok {
		return fmt.Errorf("console registry: duplicate command %q", cmd.Name)
	}

	r.commands[cmd.Name] = cmd
	return nil
}

func (r *registry) resolve(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

func (r *registry) names() []string {
	out := make([]string, 0, len(r.commands))
	for name := range r.commands {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
