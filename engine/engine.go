package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-msaa/common"
	"github.com/Carmen-Shannon/oxy-msaa/engine/camera"
	"github.com/Carmen-Shannon/oxy-msaa/engine/config"
	"github.com/Carmen-Shannon/oxy-msaa/engine/console"
	"github.com/Carmen-Shannon/oxy-msaa/engine/loader"
	"github.com/Carmen-Shannon/oxy-msaa/engine/logger"
	"github.com/Carmen-Shannon/oxy-msaa/engine/model"
	"github.com/Carmen-Shannon/oxy-msaa/engine/overlay"
	"github.com/Carmen-Shannon/oxy-msaa/engine/profiler"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-msaa/engine/skybox"
	"github.com/Carmen-Shannon/oxy-msaa/engine/window"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/text/language"
)

const (
	// ModelKey identifies the demo model.
	ModelKey = "model_nvidia"

	// SkyboxKey identifies the demo skybox.
	SkyboxKey = "skybox"

	// OverlayKey identifies the debug overlay.
	OverlayKey = "console"

	// OverlayWidth and OverlayHeight are the debug overlay panel size in pixels.
	OverlayWidth  = 480
	OverlayHeight = 220

	faceWorkers   = 6
	faceQueueSize = 6
	faceIdle      = 2 * time.Second
)

// engine is the implementation of the Engine interface.
type engine struct {
	config config.Config
	logger *slog.Logger
	runLog logger.Logger

	window    window.Window
	profiling bool

	ctx *Context
}

// Engine runs the demo: it builds every resource into a Context, drives the frame loop and tears the
// Context down on every exit path.
type Engine interface {
	// Run initialises the demo and renders frames until the window closes or ctx is cancelled.
	// Start-up failures are logged as "fatal: ..." and returned after teardown.
	//
	// Parameters:
	//   - ctx: cancels the frame loop when done
	//
	// Returns:
	//   - error: the start-up or frame failure that ended the run, or nil on a normal close
	Run(ctx context.Context) error

	// Context returns the resources of the current or last run, or nil before Run.
	//
	// Returns:
	//   - *Context: the application context
	Context() *Context
}

var _ Engine = &engine{}

// NewEngine creates a new Engine with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		logger: slog.Default(),
	}

	for _, opt := range options {
		opt(e)
	}

	return e
}

func (e *engine) Context() *Context {
	return e.ctx
}

func (e *engine) Run(ctx context.Context) (err error) {
	c := NewContext(e.config, e.logger)
	c.RunLog = e.runLog
	e.ctx = c

	defer c.Release()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
			c.Log.Error("fatal: "+err.Error(), slog.String("stack", string(debug.Stack())))
		}
	}()

	if err := e.init(c); err != nil {
		c.Log.Error("resource init failed: " + err.Error())
		c.Log.Error("fatal: " + err.Error())
		return err
	}

	if err := e.loop(ctx, c); err != nil {
		c.Log.Error("fatal: " + err.Error())
		return err
	}
	return nil
}

// loop renders frames from the window update callback. A frame error cancels the loop.
func (e *engine) loop(ctx context.Context, c *Context) error {
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var fatal error
	last := c.Window.Time()
	c.Window.SetUpdateCallback(func() {
		now := c.Window.Time()
		dt := now - last
		last = now

		if err := c.frame(dt); err != nil {
			fatal = err
			cancel()
		}
	})
	defer c.Window.SetUpdateCallback(nil)

	c.Log.Info("entering main loop")
	c.Window.ProcessMessages(loopCtx)

	return fatal
}

// init builds every resource in dependency order, registering each with the Context as it is created.
func (e *engine) init(c *Context) error {
	cfg := c.Config
	logSystemInfo(c.Log)

	if err := e.initWindow(c); err != nil {
		return err
	}

	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, c.Window,
		renderer.WithLogger(c.Log),
		renderer.WithNativeLogLevel(cfg.Render.NativeLogLevel()),
		renderer.WithPresentMode(presentMode(cfg.Render.VSync)),
		renderer.WithForceSoftwareRenderer(cfg.Render.FallbackAdapter),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	c.Renderer = r
	c.Own("renderer", r.Release)

	info := r.AdapterInfo()
	c.Log.Info("GPU: " + info.Name)
	c.Log.Info("Backend: " + info.Backend)

	if err := initPrograms(c, r); err != nil {
		return err
	}

	c.Camera = camera.NewCamera(c.Window.Width(), c.Window.Height())

	if err := initModel(c, r); err != nil {
		return err
	}
	if err := initSkybox(c, r); err != nil {
		return err
	}
	if err := initTarget(c, r); err != nil {
		return err
	}
	if err := initOverlay(c, r); err != nil {
		return err
	}
	if err := initConsole(c, r); err != nil {
		return err
	}

	profileLog := slog.New(slog.DiscardHandler)
	if e.profiling {
		profileLog = c.Log
	}
	c.Profiler = profiler.NewProfiler(profiler.WithLogger(profileLog))
	c.Stats = overlay.NewStatsFormatter(language.English)

	return nil
}

// initWindow opens the window unless one was injected, and applies the icon.
func (e *engine) initWindow(c *Context) error {
	cfg := c.Config

	win := e.window
	if win == nil {
		var err error
		win, err = window.NewWindow(
			window.WithTitle(common.Coalesce(cfg.Window.Title, AppName)),
			window.WithWidth(cfg.Window.Width),
			window.WithHeight(cfg.Window.Height),
			window.WithResizable(false),
		)
		if err != nil {
			return fmt.Errorf("failed to create window: %w", err)
		}
	}
	c.Window = win
	c.Own("window", func() {
		if err := win.Close(); err != nil {
			c.Log.Warn("window close failed: " + err.Error())
		}
	})

	if cfg.Assets.Icon == "" {
		return nil
	}
	icon, err := common.DecodeImageFile(cfg.Assets.Icon)
	if err != nil {
		c.Log.Warn("icon load failed: " + err.Error())
		return nil
	}
	if err := win.SetIcon(icon.Image()); err != nil {
		c.Log.Warn("icon set failed: " + err.Error())
	}
	return nil
}

func presentMode(vsync bool) renderer.PresentMode {
	if vsync {
		return renderer.PresentModeVSync
	}
	return renderer.PresentModeUncapped
}

func initPrograms(c *Context, r renderer.Renderer) error {
	programs, err := loadPrograms(c.Config.Assets)
	if err != nil {
		return err
	}
	c.Programs = programs
	c.Own("programs", programs.Release)

	for _, p := range programs.All() {
		if err := r.CompileProgram(p); err != nil {
			return fmt.Errorf("failed to compile %s program: %w", p.Key(), err)
		}
	}
	if err := r.RegisterPipelines(programs.pipelines()...); err != nil {
		return fmt.Errorf("failed to register pipelines: %w", err)
	}
	c.Log.Info("shaders ok")
	return nil
}

func initModel(c *Context, r renderer.Renderer) error {
	l := loader.NewLoader(loader.BackendTypeGLTF, loader.WithLogger(c.Log))
	mesh, err := l.Load(c.Config.Assets.Model)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	m := model.NewModel(ModelKey, mesh)
	if err := m.Init(r, c.Programs.Phong); err != nil {
		return err
	}
	c.Model = m
	c.Own("model", m.Release)
	c.Log.Info(fmt.Sprintf("model ok: %d vertices, %d indices", len(mesh.Vertices), len(mesh.Indices)))
	return nil
}

func initSkybox(c *Context, r renderer.Renderer) error {
	pool := worker.NewDynamicWorkerPool(faceWorkers, faceQueueSize, faceIdle)
	// Idle workers exit after faceIdle, so the pool needs no release.
	c.Pool = pool

	faces, err := skybox.LoadFaces(c.Config.Assets.SkyboxDir, pool)
	if err != nil {
		return fmt.Errorf("failed to load skybox: %w", err)
	}

	s := skybox.NewSkybox(SkyboxKey, faces)
	if err := s.Init(r, c.Programs.Skybox); err != nil {
		return err
	}
	c.Skybox = s
	c.Own("skybox", s.Release)
	c.Log.Info("skybox ok")
	return nil
}

func initTarget(c *Context, r renderer.Renderer) error {
	supported := r.SampleCounts()
	samples := targetSampleCount(c.Log, render_target.SampleCount(c.Config.Render.MSAA), supported)
	target := render_target.NewRenderTarget(r.RenderTargetBackend(), c.Window.Width(), c.Window.Height(),
		render_target.WithLabel("Scene"),
		render_target.WithSampleCount(samples),
		render_target.WithSupportedSampleCounts(supported...),
		render_target.WithLogger(c.Log),
	)
	if err := target.Create(); err != nil {
		return fmt.Errorf("failed to create msaa target: %w", err)
	}
	c.Target = target
	c.Own("msaa target", target.Destroy)
	c.Log.Info(fmt.Sprintf("MSAA FBO ready with %d samples", int(samples)))

	composite, err := buildComposite(r, target, c.Programs.Screen)
	if err != nil {
		return err
	}
	c.Composite = composite
	c.Own("composite", func() {
		if p := c.composite(); p != nil {
			p.Release()
		}
	})
	target.OnRecreate(func(t render_target.RenderTarget) {
		c.rebindComposite(r, t)
	})
	return nil
}

// targetSampleCount returns requested when the device supports it, and 4x otherwise, which every
// WebGPU device allows.
func targetSampleCount(log *slog.Logger, requested render_target.SampleCount, supported []render_target.SampleCount) render_target.SampleCount {
	if slices.Contains(supported, requested) {
		return requested
	}
	log.Warn(fmt.Sprintf("msaa %d not supported by this adapter (supported: %s), using %d",
		int(requested), render_target.FormatSampleCounts(supported), int(render_target.MSAA4x)))
	return render_target.MSAA4x
}

func initOverlay(c *Context, r renderer.Renderer) error {
	var face font.Face = basicfont.Face7x13
	if mono, err := overlay.NewMonoFace(overlay.DefaultFontSize); err == nil {
		face = mono
	} else {
		c.Log.Warn("overlay font failed, using basic font: " + err.Error())
	}

	o := overlay.NewOverlay(OverlayKey, OverlayWidth, OverlayHeight, overlay.WithFace(face))
	if err := o.Init(r, c.Programs.Overlay); err != nil {
		return err
	}
	c.Overlay = o
	c.Own("overlay", o.Release)
	return nil
}

func initConsole(c *Context, r renderer.Renderer) error {
	con := console.NewConsole(console.WithLogger(c.Log))
	if err := registerCommands(con, c.Log, c.Target, r.AdapterInfo); err != nil {
		return err
	}
	c.Console = con
	if c.RunLog != nil {
		c.RunLog.AddSink(con.Sink())
	}

	c.Window.SetKeyCallback(con.HandleKey)
	c.Window.SetCharCallback(con.HandleChar)
	c.Own("input", func() {
		c.Window.SetKeyCallback(nil)
		c.Window.SetCharCallback(nil)
	})
	return nil
}
