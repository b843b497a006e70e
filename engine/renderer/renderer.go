package renderer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-msaa/common"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-msaa/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

const defaultPipelineCacheSize = 16

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelines map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend
	logger      *slog.Logger

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	nativeLogLevel       *wgpu.LogLevel
	pipelineCacheSize    int
}

// Renderer defines the interface for the rendering system.
//
// The Renderer owns the GPU device and the window surface. Frames are recorded as a sequence of passes:
// BeginFrame acquires the surface texture, BeginOffscreenPass or BeginSurfacePass opens a pass,
// DrawCall encodes draws, EndPass closes the pass and Submit sends the recorded work to the queue.
// Present shows the surface texture once all passes of the frame are submitted.
type Renderer interface {
	// AdapterInfo describes the GPU adapter in use.
	//
	// Returns:
	//   - AdapterInfo: the adapter name, driver, backend and type
	AdapterInfo() AdapterInfo

	// SampleCounts returns the MSAA sample counts the device can allocate. 2 and 8 are only
	// available when the adapter exposes format specific MSAA support.
	//
	// Returns:
	//   - []render_target.SampleCount: the supported counts in ascending order
	SampleCounts() []render_target.SampleCount

	// SurfaceFormat returns the texture format the window surface was configured with.
	SurfaceFormat() wgpu.TextureFormat

	// RenderTargetBackend returns a render target backend bound to this renderer's device.
	//
	// Returns:
	//   - render_target.RenderTargetBackend: the WGPU render target backend
	RenderTargetBackend() render_target.RenderTargetBackend

	// RegisterPipelines registers pipeline descriptions by key. Keys already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if a pipeline has no program
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// CompileProgram creates the shader modules, bind group layouts and pipeline layout of a program.
	//
	// Parameters:
	//   - program: the program to compile
	//
	// Returns:
	//   - error: a "vertex shader error", "fragment shader error" or "link error" describing the failure
	CompileProgram(program shader.ShaderProgram) error

	// InitMeshBuffers creates GPU vertex and index buffers and stores them on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers on
	//   - vertexData: the raw vertex data bytes to upload to the GPU
	//   - vertexCount: the number of vertices, used by non-indexed draws
	//   - indexData: the raw uint32 index bytes, nil for non-indexed meshes
	//   - indexCount: the number of indices, used by indexed draws
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int, indexData []byte, indexCount int) error

	// InitBindGroup creates one bind group of a compiled program from the provider's resources.
	// Uniform buffers are created on demand; textures and samplers must already be initialized.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created bind group on
	//   - program: the compiled program whose layout is used
	//   - group: the bind group index
	//
	// Returns:
	//   - error: an error if the program is not compiled, a resource is missing or creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, program shader.ShaderProgram, group int) error

	// InitTexture2D uploads an RGBA8 image as a sampled 2D texture.
	//
	// Parameters:
	//   - provider: the BindGroupProvider that owns the texture
	//   - slot: the slot the texture view is bound to
	//   - stagingData: the pixel data and dimensions
	//
	// Returns:
	//   - error: an error if the staging data is invalid or creation fails
	InitTexture2D(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, stagingData common.TextureStagingData) error

	// UpdateTexture2D re-uploads the pixels of a texture created by InitTexture2D. Dimensions must match.
	UpdateTexture2D(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, stagingData common.TextureStagingData) error

	// InitCubeTexture uploads six square faces as a cube texture in +X, -X, +Y, -Y, +Z, -Z order.
	//
	// Parameters:
	//   - provider: the BindGroupProvider that owns the texture
	//   - slot: the slot the cube view is bound to
	//   - faces: the six faces
	//
	// Returns:
	//   - error: an error if a face is invalid, faces differ in size or creation fails
	InitCubeTexture(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, faces [6]common.TextureStagingData) error

	// InitSampler creates a sampler and stores it on the provider.
	InitSampler(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, samplerStagingData common.SamplerStagingData) error

	// WriteUniforms uploads the program's uniform block to the provider's group 0, binding 0 buffer when dirty.
	//
	// Parameters:
	//   - provider: the BindGroupProvider holding the uniform buffer
	//   - program: the program whose staged uniforms are uploaded
	//
	// Returns:
	//   - error: an error if the provider has no uniform buffer
	WriteUniforms(provider bind_group_provider.BindGroupProvider, program shader.ShaderProgram) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the next surface texture. Must be paired with Present.
	//
	// Returns:
	//   - error: an error if the surface texture could not be acquired
	BeginFrame() error

	// BeginOffscreenPass opens a pass that clears and draws into a framebuffer.
	//
	// Parameters:
	//   - fb: the framebuffer, typically a render target's multisample framebuffer
	//   - clear: the colour clear value; depth clears to 1
	//
	// Returns:
	//   - error: an error if a pass is already open or the framebuffer has no WGPU views
	BeginOffscreenPass(fb render_target.Framebuffer, clear wgpu.Color) error

	// BeginSurfacePass opens a pass that clears and draws into the surface texture acquired by BeginFrame.
	BeginSurfacePass(clear wgpu.Color) error

	// DrawCall encodes one draw with the pipeline registered under pipelineKey.
	// The pipeline variant matching the open pass is created on first use.
	//
	// Parameters:
	//   - pipelineKey: the key of a registered pipeline
	//   - provider: the BindGroupProvider holding buffers and bind groups
	//
	// Returns:
	//   - error: shader.ErrProgramNotCompiled, ErrNoActivePass or a missing resource error
	DrawCall(pipelineKey string, provider bind_group_provider.BindGroupProvider) error

	// EndPass ends the open pass.
	EndPass() error

	// Submit finishes the recorded passes and submits them to the queue.
	Submit() error

	// Present presents the surface texture acquired by BeginFrame.
	Present()

	// Release frees the cached pipelines, the surface and the device.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer for the window's surface.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - win: the window providing the surface descriptor and framebuffer size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer with a configured surface
//   - error: an error if the adapter, device or surface cannot be created
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:                &sync.Mutex{},
		pipelines:         make(map[string]pipeline.Pipeline),
		backendType:       backendType,
		logger:            slog.Default(),
		pipelineCacheSize: defaultPipelineCacheSize,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	if r.nativeLogLevel != nil {
		wgpu.SetLogLevel(*r.nativeLogLevel)
	}

	var err error
	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend, err = newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, r.pipelineCacheSize, r.logger)
	}
	if err != nil {
		return nil, err
	}

	r.backend.SetPresentMode(r.presentMode)
	if err := r.backend.ConfigureSurface(win.Width(), win.Height()); err != nil {
		r.backend.Release()
		return nil, err
	}

	return r, nil
}

func (r *renderer) AdapterInfo() AdapterInfo {
	return r.backend.AdapterInfo()
}

func (r *renderer) SampleCounts() []render_target.SampleCount {
	return r.backend.SampleCounts()
}

func (r *renderer) SurfaceFormat() wgpu.TextureFormat {
	return r.backend.SurfaceFormat()
}

func (r *renderer) RenderTargetBackend() render_target.RenderTargetBackend {
	return r.backend.RenderTargetBackend()
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelines[key]; exists {
			continue
		}
		if p.Program() == nil {
			return fmt.Errorf("render pipeline %q has no shader program", key)
		}
		r.pipelines[key] = p
	}
	return nil
}

func (r *renderer) CompileProgram(program shader.ShaderProgram) error {
	return r.backend.CompileProgram(program)
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, vertexCount, indexData, indexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, program shader.ShaderProgram, group int) error {
	return r.backend.InitBindGroup(provider, program, group)
}

func (r *renderer) InitTexture2D(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, stagingData common.TextureStagingData) error {
	return r.backend.InitTexture2D(provider, slot, stagingData)
}

func (r *renderer) UpdateTexture2D(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, stagingData common.TextureStagingData) error {
	return r.backend.UpdateTexture2D(provider, slot, stagingData)
}

func (r *renderer) InitCubeTexture(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, faces [6]common.TextureStagingData) error {
	return r.backend.InitCubeTexture(provider, slot, faces)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, slot, samplerStagingData)
}

func (r *renderer) WriteUniforms(provider bind_group_provider.BindGroupProvider, program shader.ShaderProgram) error {
	write, ok, err := uniformWrite(provider, program)
	if err != nil || !ok {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.WriteBuffers([]bind_group_provider.BufferWrite{write})
	program.ClearDirty()
	return nil
}

// uniformWrite builds the upload of a program's dirty uniform block.
// ok is false when there is nothing to upload.
func uniformWrite(provider bind_group_provider.BindGroupProvider, program shader.ShaderProgram) (bind_group_provider.BufferWrite, bool, error) {
	if !program.Dirty() {
		return bind_group_provider.BufferWrite{}, false, nil
	}
	slot := bind_group_provider.Slot{Group: 0, Binding: 0}
	if provider.Buffer(slot) == nil {
		return bind_group_provider.BufferWrite{}, false, fmt.Errorf("%s: no uniform buffer, call InitBindGroup first", provider.Label())
	}
	return bind_group_provider.BufferWrite{
		Provider: provider,
		Slot:     slot,
		Offset:   0,
		Data:     program.UniformBytes(),
	}, true, nil
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) BeginOffscreenPass(fb render_target.Framebuffer, clear wgpu.Color) error {
	return r.backend.BeginOffscreenPass(fb, clear)
}

func (r *renderer) BeginSurfacePass(clear wgpu.Color) error {
	return r.backend.BeginSurfacePass(clear)
}

func (r *renderer) DrawCall(pipelineKey string, provider bind_group_provider.BindGroupProvider) error {
	r.mu.Lock()
	p, exists := r.pipelines[pipelineKey]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("render pipeline %q not registered", pipelineKey)
	}
	if !p.Program().Compiled() {
		return fmt.Errorf("%s: %w", pipelineKey, shader.ErrProgramNotCompiled)
	}

	return r.backend.DrawCall(p, provider)
}

func (r *renderer) EndPass() error {
	return r.backend.EndPass()
}

func (r *renderer) Submit() error {
	return r.backend.Submit()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.backend.Release()
}
