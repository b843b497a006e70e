package engine

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-msaa/common"
	"github.com/Carmen-Shannon/oxy-msaa/engine/camera"
	"github.com/Carmen-Shannon/oxy-msaa/engine/config"
	"github.com/Carmen-Shannon/oxy-msaa/engine/console"
	"github.com/Carmen-Shannon/oxy-msaa/engine/model"
	"github.com/Carmen-Shannon/oxy-msaa/engine/overlay"
	"github.com/Carmen-Shannon/oxy-msaa/engine/profiler"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-msaa/engine/skybox"
	"github.com/cogentcore/webgpu/wgpu"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/text/language"
)

var errInjected = errors.New("injected failure")

// fakeRenderer records the frame sequence without a GPU. Methods not overridden panic through the nil
// embedded interface.
type fakeRenderer struct {
	renderer.Renderer

	events  []string
	uploads int
	groups  []string

	// fail makes the named event return errInjected.
	fail map[string]bool
}

func (f *fakeRenderer) record(event string) error {
	f.events = append(f.events, event)
	if f.fail[event] {
		return fmt.Errorf("%s: %w", event, errInjected)
	}
	return nil
}

func (f *fakeRenderer) AdapterInfo() renderer.AdapterInfo {
	return renderer.AdapterInfo{Name: "Fake GPU", Driver: "fake 1.0", Backend: "Vulkan", AdapterType: "DiscreteGPU"}
}

func (f *fakeRenderer) InitMeshBuffers(bind_group_provider.BindGroupProvider, []byte, int, []byte, int) error {
	return nil
}

func (f *fakeRenderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, program shader.ShaderProgram, group int) error {
	f.groups = append(f.groups, fmt.Sprintf("%s/%s/%d", provider.Label(), program.Key(), group))
	return f.record("bind " + provider.Label())
}

func (f *fakeRenderer) InitTexture2D(bind_group_provider.BindGroupProvider, bind_group_provider.Slot, common.TextureStagingData) error {
	return nil
}

func (f *fakeRenderer) UpdateTexture2D(bind_group_provider.BindGroupProvider, bind_group_provider.Slot, common.TextureStagingData) error {
	return f.record("overlay texture")
}

func (f *fakeRenderer) InitCubeTexture(bind_group_provider.BindGroupProvider, bind_group_provider.Slot, [6]common.TextureStagingData) error {
	return nil
}

func (f *fakeRenderer) InitSampler(bind_group_provider.BindGroupProvider, bind_group_provider.Slot, common.SamplerStagingData) error {
	return nil
}

func (f *fakeRenderer) WriteUniforms(bind_group_provider.BindGroupProvider, shader.ShaderProgram) error {
	f.uploads++
	return nil
}

func (f *fakeRenderer) BeginFrame() error {
	return f.record("begin frame")
}

func (f *fakeRenderer) BeginOffscreenPass(fb render_target.Framebuffer, _ wgpu.Color) error {
	if fb == nil {
		return f.record("offscreen pass without framebuffer")
	}
	return f.record("offscreen pass")
}

func (f *fakeRenderer) BeginSurfacePass(wgpu.Color) error {
	return f.record("surface pass")
}

func (f *fakeRenderer) DrawCall(pipelineKey string, _ bind_group_provider.BindGroupProvider) error {
	return f.record("draw " + pipelineKey)
}

func (f *fakeRenderer) EndPass() error {
	return f.record("end pass")
}

func (f *fakeRenderer) Submit() error {
	return f.record("submit")
}

func (f *fakeRenderer) Present() {
	_ = f.record("present")
}

// fakeAttachment hands out placeholder wgpu handles. They are only borrowed by bind group providers
// and never released.
type fakeAttachment struct {
	backend  *fakeTargetBackend
	label    string
	width    int
	height   int
	samples  uint32
	format   render_target.AttachmentFormat
	handles  render_target.WGPUHandles
	released bool
}

func (a *fakeAttachment) Label() string                          { return a.label }
func (a *fakeAttachment) Width() int                             { return a.width }
func (a *fakeAttachment) Height() int                            { return a.height }
func (a *fakeAttachment) SampleCount() uint32                    { return a.samples }
func (a *fakeAttachment) Format() render_target.AttachmentFormat { return a.format }
func (a *fakeAttachment) Handle() any                            { return a.handles }

func (a *fakeAttachment) Release() {
	if !a.released {
		a.released = true
		a.backend.live--
	}
}

type fakeFramebuffer struct {
	backend      *fakeTargetBackend
	label        string
	color        render_target.Attachment
	depthStencil render_target.Attachment
	released     bool
}

func (f *fakeFramebuffer) Label() string                                    { return f.label }
func (f *fakeFramebuffer) ColorAttachment() render_target.Attachment        { return f.color }
func (f *fakeFramebuffer) DepthStencilAttachment() render_target.Attachment { return f.depthStencil }

func (f *fakeFramebuffer) Release() {
	if !f.released {
		f.released = true
		f.backend.live--
	}
}

// fakeTargetBackend counts live handles and fails creations whose label contains failOn.
type fakeTargetBackend struct {
	live   int
	blits  int
	failOn string

	// failSamples makes renderbuffers with this GPU sample count fail when non-zero.
	failSamples uint32
}

var _ render_target.RenderTargetBackend = &fakeTargetBackend{}

func (b *fakeTargetBackend) fail(label string) error {
	if b.failOn != "" && strings.Contains(label, b.failOn) {
		return fmt.Errorf("%s: %w", label, errInjected)
	}
	return nil
}

func (b *fakeTargetBackend) CreateRenderbuffer(label string, width, height int, samples uint32, format render_target.AttachmentFormat) (render_target.Attachment, error) {
	if err := b.fail(label); err != nil {
		return nil, err
	}
	if b.failSamples != 0 && samples == b.failSamples {
		return nil, fmt.Errorf("%s: %d samples: %w", label, samples, errInjected)
	}
	b.live++
	return &fakeAttachment{backend: b, label: label, width: width, height: height, samples: samples, format: format}, nil
}

func (b *fakeTargetBackend) CreateTexture(label string, width, height int, format render_target.AttachmentFormat) (render_target.Attachment, error) {
	if err := b.fail(label); err != nil {
		return nil, err
	}
	b.live++
	return &fakeAttachment{
		backend: b, label: label, width: width, height: height, samples: 1, format: format,
		handles: render_target.WGPUHandles{View: &wgpu.TextureView{}, Sampler: &wgpu.Sampler{}},
	}, nil
}

func (b *fakeTargetBackend) CreateFramebuffer(label string, color, depthStencil render_target.Attachment) (render_target.Framebuffer, error) {
	if err := b.fail(label); err != nil {
		return nil, err
	}
	b.live++
	return &fakeFramebuffer{backend: b, label: label, color: color, depthStencil: depthStencil}, nil
}

func (b *fakeTargetBackend) Blit(_, _ render_target.Framebuffer, _, _ int) error {
	if err := b.fail("Blit"); err != nil {
		return err
	}
	b.blits++
	return nil
}

const (
	testVertexSource   = "@vertex fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }"
	testFragmentSource = "@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }"
)

func testPrograms(t *testing.T) Programs {
	t.Helper()
	options := programOptions()
	build := func(name string) shader.ShaderProgram {
		p, err := shader.NewShaderProgramFromSource(name, testVertexSource, testFragmentSource, options[name]...)
		if err != nil {
			t.Fatalf("NewShaderProgramFromSource(%s) error = %v", name, err)
		}
		return p
	}
	return Programs{
		Phong:   build(PipelinePhong),
		Skybox:  build(PipelineSkybox),
		Screen:  build(PipelineScreen),
		Overlay: build(PipelineOverlay),
	}
}

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

// newTestContext wires a Context the way the engine does, on the fake renderer and target backend.
// Extra target options are applied after the defaults.
func newTestContext(t *testing.T, r *fakeRenderer, backend *fakeTargetBackend, options ...render_target.RenderTargetBuilderOption) (*Context, *bytes.Buffer) {
	t.Helper()
	log, buf := newTestLogger()

	c := NewContext(config.Config{}, log)
	c.Renderer = r
	c.Programs = testPrograms(t)
	c.Camera = camera.NewCamera(320, 240)

	c.Model = model.NewModel(ModelKey, model.Mesh{
		Vertices: make([]model.Vertex, 3),
		Indices:  []uint32{0, 1, 2},
	})
	if err := c.Model.Init(r, c.Programs.Phong); err != nil {
		t.Fatalf("Model.Init() error = %v", err)
	}

	c.Skybox = skybox.NewSkybox(SkyboxKey, [6]common.TextureStagingData{})
	if err := c.Skybox.Init(r, c.Programs.Skybox); err != nil {
		t.Fatalf("Skybox.Init() error = %v", err)
	}

	c.Target = render_target.NewRenderTarget(backend, 320, 240, append([]render_target.RenderTargetBuilderOption{
		render_target.WithLabel("Scene"),
		render_target.WithSampleCount(render_target.MSAA4x),
		render_target.WithLogger(log),
	}, options...)...)
	if err := c.Target.Create(); err != nil {
		t.Fatalf("Target.Create() error = %v", err)
	}
	composite, err := buildComposite(r, c.Target, c.Programs.Screen)
	if err != nil {
		t.Fatalf("buildComposite() error = %v", err)
	}
	c.Composite = composite
	c.Target.OnRecreate(func(target render_target.RenderTarget) {
		c.rebindComposite(r, target)
	})

	c.Overlay = overlay.NewOverlay(OverlayKey, 200, 100, overlay.WithFace(basicfont.Face7x13))
	if err := c.Overlay.Init(r, c.Programs.Overlay); err != nil {
		t.Fatalf("Overlay.Init() error = %v", err)
	}

	c.Console = console.NewConsole(console.WithLogger(log))
	if err := registerCommands(c.Console, log, c.Target, r.AdapterInfo); err != nil {
		t.Fatalf("registerCommands() error = %v", err)
	}
	c.Profiler = profiler.NewProfiler(profiler.WithLogger(log))
	c.Stats = overlay.NewStatsFormatter(language.English)

	r.events = nil
	r.groups = nil
	r.uploads = 0
	return c, buf
}
