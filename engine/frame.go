package engine

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-msaa/engine/overlay"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	sceneClear   = wgpu.Color{R: 0.1, G: 0.1, B: 0.2, A: 1}
	surfaceClear = wgpu.Color{R: 0, G: 0, B: 0, A: 1}
)

// inputPrompt prefixes the console input line on the overlay.
const inputPrompt = "> "

// frame renders one frame: the scene into the multisample target, the resolve, then the composite and
// overlay onto the window surface.
//
// A failing model, skybox, composite or overlay draw is logged and the frame goes on. Errors opening,
// closing or submitting a pass and resolve failures are returned and end the run.
//
// Parameters:
//   - dt: seconds since the previous frame
//
// Returns:
//   - error: the first frame-level failure
func (c *Context) frame(dt float64) error {
	r := c.Renderer

	if c.Profiler != nil {
		c.Profiler.Tick(dt)
	}
	c.Model.Advance(dt)

	view := c.Camera.View()
	projection := c.Camera.Projection()

	if err := r.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}

	if err := r.BeginOffscreenPass(c.Target.MultisampleFramebuffer(), sceneClear); err != nil {
		return fmt.Errorf("scene pass: %w", err)
	}
	if err := setLighting(c.Programs.Phong, view, projection, c.Camera.Position()); err != nil {
		c.Log.Error("model render fail: " + err.Error())
	} else if err := c.Model.Draw(r, PipelinePhong); err != nil {
		c.Log.Error("model render fail: " + err.Error())
	}
	if err := c.Skybox.Draw(r, PipelineSkybox, c.Camera.SkyboxView(), projection); err != nil {
		c.Log.Error("skybox fail: " + err.Error())
	}
	if err := r.EndPass(); err != nil {
		return fmt.Errorf("scene pass: %w", err)
	}
	if err := r.Submit(); err != nil {
		return fmt.Errorf("scene submit: %w", err)
	}

	if err := c.Target.Resolve(); err != nil {
		return err
	}

	if err := r.BeginSurfacePass(surfaceClear); err != nil {
		return fmt.Errorf("surface pass: %w", err)
	}
	if composite := c.composite(); composite != nil {
		if err := r.DrawCall(PipelineScreen, composite); err != nil {
			c.Log.Error("composite fail: " + err.Error())
		}
	}
	c.drawOverlay()
	if err := r.EndPass(); err != nil {
		return fmt.Errorf("surface pass: %w", err)
	}
	if err := r.Submit(); err != nil {
		return fmt.Errorf("surface submit: %w", err)
	}
	r.Present()

	return nil
}

// drawOverlay re-rasterises and draws the debug overlay while the console is visible.
func (c *Context) drawOverlay() {
	if c.Overlay == nil || c.Console == nil || !c.Console.Visible() {
		return
	}

	if err := c.Overlay.Update(c.Renderer, c.overlayLines()); err != nil {
		c.Log.Error("overlay fail: " + err.Error())
		return
	}
	if err := c.Overlay.Draw(c.Renderer, PipelineOverlay, c.Target.Width(), c.Target.Height()); err != nil {
		c.Log.Error("overlay fail: " + err.Error())
	}
}

// overlayLines returns the stats block, the recent console lines and the input line.
func (c *Context) overlayLines() []string {
	var lines []string
	if c.Stats != nil && c.Profiler != nil {
		lines = c.Stats.Lines(overlay.Stats{
			FPS:         c.Profiler.FPS(),
			AverageFPS:  c.Profiler.AverageFPS(),
			FrameTimeMS: c.Profiler.FrameTimeMS(),
			MSAA:        int(c.Target.SampleCount()),
		})
	}
	lines = append(lines, c.Console.Lines()...)
	return append(lines, inputPrompt+c.Console.Input())
}
