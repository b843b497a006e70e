package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-msaa/engine/console"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/render_target"
)

// HelpText is the line logged by the help command.
const HelpText = "commands: help, info, t_msaa X"

// commands are the console commands of the demo.
type commands struct {
	log     *slog.Logger
	target  render_target.RenderTarget
	adapter func() renderer.AdapterInfo
}

// registerCommands adds help, info and t_msaa to con.
//
// Parameters:
//   - con: the console to register with
//   - log: the logger commands report to
//   - target: the render target t_msaa recreates
//   - adapter: returns the GPU adapter description for info
//
// Returns:
//   - error: an error if a command could not be registered
func registerCommands(con console.Console, log *slog.Logger, target render_target.RenderTarget, adapter func() renderer.AdapterInfo) error {
	cmds := &commands{log: log, target: target, adapter: adapter}

	for _, cmd := range []console.Command{
		{Name: "help", Usage: "help", Run: cmds.help},
		{Name: "info", Usage: "info", Run: cmds.info},
		{Name: "t_msaa", Usage: "t_msaa <0|2|4|8>", Run: cmds.msaa},
	} {
		if err := con.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (c *commands) help([]string) error {
	c.log.Info(HelpText)
	return nil
}

func (c *commands) info([]string) error {
	if c.adapter == nil {
		c.log.Warn("no gpu adapter")
		return nil
	}
	info := c.adapter()
	c.log.Info("GPU: " + info.Name)
	c.log.Info("Driver: " + info.Driver)
	c.log.Info("Backend: " + info.Backend)
	c.log.Info("Adapter type: " + info.AdapterType)
	return nil
}

// msaa recreates the render target at a new sample count. The target logs the new count itself.
// Counts the device cannot allocate are rejected before the target is touched.
// A failed recreate is retried once at the previous count so the frame loop keeps a live target.
func (c *commands) msaa(args []string) error {
	if len(args) != 1 {
		c.log.Warn("invalid msaa")
		return fmt.Errorf("t_msaa takes one argument: %w", console.ErrInvalidArgument)
	}

	samples, err := render_target.ParseSampleCount(args[0])
	if err != nil {
		c.log.Warn("invalid msaa")
		return fmt.Errorf("%w: %w", console.ErrInvalidArgument, err)
	}
	if !c.target.Supports(samples) {
		c.log.Warn(fmt.Sprintf("msaa %d not supported (supported: %s)",
			int(samples), render_target.FormatSampleCounts(c.target.SampleCounts())))
		return fmt.Errorf("%w: %w", console.ErrInvalidArgument, render_target.ErrUnsupportedSampleCount)
	}

	previous := c.target.SampleCount()
	if err := c.target.Recreate(samples); err != nil {
		c.log.Error("msaa recreate failed: " + err.Error())
		if restoreErr := c.target.Recreate(previous); restoreErr != nil {
			c.log.Error("msaa restore failed: " + restoreErr.Error())
			return errors.Join(err, restoreErr)
		}
		c.log.Warn(fmt.Sprintf("Restored MSAA FBO with %d samples", int(previous)))
		return err
	}
	return nil
}
