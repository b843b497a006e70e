package engine

import (
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-msaa/engine/camera"
	"github.com/Carmen-Shannon/oxy-msaa/engine/config"
	"github.com/Carmen-Shannon/oxy-msaa/engine/console"
	"github.com/Carmen-Shannon/oxy-msaa/engine/logger"
	"github.com/Carmen-Shannon/oxy-msaa/engine/model"
	"github.com/Carmen-Shannon/oxy-msaa/engine/overlay"
	"github.com/Carmen-Shannon/oxy-msaa/engine/profiler"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-msaa/engine/skybox"
	"github.com/Carmen-Shannon/oxy-msaa/engine/window"
)

// Programs holds the four shader programs of the demo.
type Programs struct {
	Phong   shader.ShaderProgram
	Skybox  shader.ShaderProgram
	Screen  shader.ShaderProgram
	Overlay shader.ShaderProgram
}

// Context owns every resource of a run. Fields are filled in construction order by the engine
// and released in reverse order by Release.
type Context struct {
	Config config.Config
	Log    *slog.Logger
	RunLog logger.Logger

	Window   window.Window
	Renderer renderer.Renderer
	Pool     worker.DynamicWorkerPool
	Programs Programs

	Camera    camera.Camera
	Model     model.Model
	Skybox    skybox.Skybox
	Target    render_target.RenderTarget
	Composite bind_group_provider.BindGroupProvider
	Overlay   overlay.Overlay
	Console   console.Console
	Profiler  *profiler.Profiler
	Stats     *overlay.StatsFormatter

	mu       *sync.Mutex
	releases []release
}

type release struct {
	name string
	fn   func()
}

// NewContext creates an empty Context logging to log.
func NewContext(cfg config.Config, log *slog.Logger) *Context {
	if log == nil {
		log = slog.Default()
	}
	return &Context{
		Config: cfg,
		Log:    log,
		mu:     &sync.Mutex{},
	}
}

// Own registers fn to run when the Context is released. Resources are released in reverse registration order.
//
// Parameters:
//   - name: the resource name, used in the teardown log
//   - fn: the release function
func (c *Context) Own(name string, fn func()) {
	if fn == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.releases = append(c.releases, release{name: name, fn: fn})
}

// Release frees every owned resource, newest first. A panicking release is logged and does not stop the others.
// Calling Release again is a no-op.
func (c *Context) Release() {
	c.mu.Lock()
	releases := c.releases
	c.releases = nil
	c.mu.Unlock()

	if len(releases) == 0 {
		return
	}

	c.Log.Info("cleanup...")
	for i := len(releases) - 1; i >= 0; i-- {
		c.runRelease(releases[i])
	}
}

func (c *Context) runRelease(r release) {
	defer func() {
		if rec := recover(); rec != nil {
			c.Log.Error("release failed", slog.String("resource", r.name), slog.Any("panic", rec))
		}
	}()
	c.Log.Debug("release", slog.String("resource", r.name))
	r.fn()
}
