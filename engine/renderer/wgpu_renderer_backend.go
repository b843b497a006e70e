package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-msaa/common"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	lru "github.com/hashicorp/golang-lru/v2"
)

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	logger *slog.Logger
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	adapterInfo   AdapterInfo
	sampleCounts  []render_target.SampleCount
	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode // defaults to PresentModeFifo (VSync)

	// Render pipeline variants keyed by pipeline key and pass target.
	variants *lru.Cache[string, *wgpu.RenderPipeline]

	targetBackend render_target.RenderTargetBackend

	// Frame state for batched rendering across multiple passes
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	passTarget   pipeline.Target
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

type wgpuRendererBackend interface {
	// AdapterInfo describes the adapter the device was requested from.
	AdapterInfo() AdapterInfo

	// SampleCounts returns the MSAA sample counts render targets may allocate on the device.
	SampleCounts() []render_target.SampleCount

	// SurfaceFormat returns the format chosen in the last ConfigureSurface call.
	SurfaceFormat() wgpu.TextureFormat

	// RenderTargetBackend returns the render target backend bound to the device and queue.
	RenderTargetBackend() render_target.RenderTargetBackend

	// ConfigureSurface is a wrapper for boilerplate logic required when calling ConfigureSurface on a surface.
	// This is required when the surface size changes, such as when the window is resized.
	// A zero width or height leaves the surface untouched.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the surface reports no supported formats
	ConfigureSurface(width, height int) error

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// CompileProgram creates the shader modules and layouts of a program and stores them on it.
	// Programs that are already compiled are left untouched.
	//
	// Parameters:
	//   - program: the program to compile
	//
	// Returns:
	//   - error: a vertex, fragment or link error; partially created objects are released
	CompileProgram(program shader.ShaderProgram) error

	// InitMeshBuffers creates vertex and index buffers on the provider.
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int, indexData []byte, indexCount int) error

	// InitBindGroup creates the bind group for one group of a compiled program.
	InitBindGroup(provider bind_group_provider.BindGroupProvider, program shader.ShaderProgram, group int) error

	// InitTexture2D creates and uploads a sampled RGBA8 texture.
	InitTexture2D(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, stagingData common.TextureStagingData) error

	// UpdateTexture2D re-uploads the pixels of an existing texture.
	UpdateTexture2D(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, stagingData common.TextureStagingData) error

	// InitCubeTexture creates and uploads a six-layer cube texture.
	InitCubeTexture(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, faces [6]common.TextureStagingData) error

	// InitSampler creates a sampler, filling unset fields with linear repeat defaults.
	InitSampler(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers writes staged data to provider buffers. Writes to missing buffers are skipped.
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the surface texture for this frame.
	BeginFrame() error

	// BeginOffscreenPass opens a pass over a framebuffer's attachments.
	BeginOffscreenPass(fb render_target.Framebuffer, clear wgpu.Color) error

	// BeginSurfacePass opens a pass over the acquired surface texture.
	BeginSurfacePass(clear wgpu.Color) error

	// DrawCall encodes a draw into the open pass.
	//
	// Parameters:
	//   - p: the pipeline description; the variant for the open pass is created on demand
	//   - provider: the BindGroupProvider holding buffers and bind groups
	//
	// Returns:
	//   - error: an error if no pass is open, a resource is missing or the variant cannot be created
	DrawCall(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider) error

	// EndPass ends the open pass.
	EndPass() error

	// Submit finishes the frame encoder and submits it.
	Submit() error

	// Present presents and releases the acquired surface texture.
	Present()

	// Release frees every device object held by the backend.
	Release()
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, cacheSize int, logger *slog.Logger) (wgpuRendererBackend, error) {
	if surfaceDescriptor == nil {
		return nil, errors.New("window has no surface descriptor")
	}

	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		logger:      logger,
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	w.adapter = a

	info := a.GetInfo()
	w.adapterInfo = AdapterInfo{
		Name:        info.Name,
		Driver:      info.DriverDescription,
		Backend:     fmt.Sprint(info.BackendType),
		AdapterType: fmt.Sprint(info.AdapterType),
	}
	logger.Info("gpu adapter selected",
		"name", w.adapterInfo.Name,
		"driver", w.adapterInfo.Driver,
		"backend", w.adapterInfo.Backend,
		"type", w.adapterInfo.AdapterType,
	)

	features, counts := deviceFeatures(a.EnumerateFeatures())
	w.sampleCounts = counts
	if len(features) == 0 {
		logger.Warn("adapter lacks format specific MSAA support, sample counts limited to " + render_target.FormatSampleCounts(counts))
	}

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "Main Device",
		RequiredFeatures: features,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()

	w.variants, err = lru.NewWithEvict[string, *wgpu.RenderPipeline](cacheSize, func(key string, rp *wgpu.RenderPipeline) {
		logger.Debug("render pipeline released", "variant", key)
		rp.Release()
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("pipeline cache: %w", err)
	}

	return w, nil
}

// msaaFeature lets textures use every sample count the adapter reports for their format.
// Without it WebGPU only allows 1 and 4.
const msaaFeature = wgpu.NativeFeatureTextureAdapterSpecificFormatFeatures

// deviceFeatures picks the optional device features to request from those the adapter offers,
// and the sample counts render targets may use on the resulting device.
//
// Parameters:
//   - available: the adapter's features
//
// Returns:
//   - []wgpu.FeatureName: the features to require, nil when none apply
//   - []render_target.SampleCount: the usable sample counts in ascending order
func deviceFeatures(available []wgpu.FeatureName) ([]wgpu.FeatureName, []render_target.SampleCount) {
	if slices.Contains(available, msaaFeature) {
		return []wgpu.FeatureName{msaaFeature}, slices.Clone(render_target.SupportedSampleCounts)
	}
	return nil, []render_target.SampleCount{render_target.MSAAOff, render_target.MSAA4x}
}

func (b *wgpuRendererBackendImpl) AdapterInfo() AdapterInfo {
	return b.adapterInfo
}

func (b *wgpuRendererBackendImpl) SampleCounts() []render_target.SampleCount {
	return slices.Clone(b.sampleCounts)
}

func (b *wgpuRendererBackendImpl) SurfaceFormat() wgpu.TextureFormat {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surfaceFormat
}

func (b *wgpuRendererBackendImpl) RenderTargetBackend() render_target.RenderTargetBackend {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.targetBackend == nil {
		b.targetBackend = render_target.NewWGPUBackend(b.device, b.queue)
	}
	return b.targetBackend
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= 0 || height <= 0 {
		return nil
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	format := chooseSurfaceFormat(capabilities.Formats)
	if format == wgpu.TextureFormatUndefined {
		return errors.New("surface reports no supported formats")
	}
	alphaMode := wgpu.CompositeAlphaModeAuto
	if len(capabilities.AlphaModes) > 0 {
		alphaMode = capabilities.AlphaModes[0]
	}

	if format != b.surfaceFormat && b.surfaceFormat != wgpu.TextureFormatUndefined {
		// Variants built for the old format can never match again.
		b.variants.Purge()
	}
	b.surfaceFormat = format

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   alphaMode,
	})

	return nil
}

// chooseSurfaceFormat picks a linear 8-bit format when the surface offers one so the composite
// writes colours unchanged, falling back to the surface's preferred format.
func chooseSurfaceFormat(formats []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, want := range []wgpu.TextureFormat{wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatRGBA8Unorm} {
		for _, f := range formats {
			if f == want {
				return f
			}
		}
	}
	if len(formats) > 0 {
		return formats[0]
	}
	return wgpu.TextureFormatUndefined
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	case PresentModeVSync:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) CompileProgram(program shader.ShaderProgram) error {
	if program.Compiled() {
		return nil
	}

	groups := program.Groups()
	if err := contiguousGroups(groups); err != nil {
		return fmt.Errorf("%s: link error: %w", program.Key(), err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vs, err := b.device.CreateShaderModule(program.Vertex().Module())
	if err != nil {
		return fmt.Errorf("%s: vertex shader error: %w", program.Key(), err)
	}

	fs, err := b.device.CreateShaderModule(program.Fragment().Module())
	if err != nil {
		vs.Release()
		return fmt.Errorf("%s: fragment shader error: %w", program.Key(), err)
	}

	layouts := make(map[int]*wgpu.BindGroupLayout, len(groups))
	ordered := make([]*wgpu.BindGroupLayout, 0, len(groups))
	release := func() {
		for _, l := range ordered {
			l.Release()
		}
		fs.Release()
		vs.Release()
	}

	for _, g := range groups {
		desc := program.BindGroupLayoutDescriptor(g)
		layout, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			release()
			return fmt.Errorf("%s: link error: group %d layout: %w", program.Key(), g, err)
		}
		layouts[g] = layout
		ordered = append(ordered, layout)
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            program.Key() + " Pipeline Layout",
		BindGroupLayouts: ordered,
	})
	if err != nil {
		release()
		return fmt.Errorf("%s: link error: %w", program.Key(), err)
	}

	program.SetCompiled(vs, fs, layouts, pipelineLayout)
	b.logger.Debug("shader program compiled", "program", program.Key(), "groups", len(groups))

	return nil
}

// contiguousGroups checks that bind group indices run 0..n-1, as required by a pipeline layout.
func contiguousGroups(groups []int) error {
	for i, g := range groups {
		if g != i {
			return fmt.Errorf("bind groups must be contiguous from 0, got %v", groups)
		}
	}
	return nil
}

func (b *wgpuRendererBackendImpl) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int, indexData []byte, indexCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(vertexData) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            provider.Label() + " Vertex Buffer",
			Size:             uint64(len(vertexData)),
			Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return err
		}
		b.queue.WriteBuffer(buf, 0, vertexData)
		provider.SetVertexBuffer(buf, vertexCount)
	}

	if len(indexData) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            provider.Label() + " Index Buffer",
			Size:             uint64(len(indexData)),
			Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return err
		}
		b.queue.WriteBuffer(buf, 0, indexData)
		provider.SetIndexBuffer(buf, indexCount)
	}

	return nil
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, program shader.ShaderProgram, group int) error {
	layout := program.BindGroupLayout(group)
	if layout == nil {
		return fmt.Errorf("%s: group %d: %w", program.Key(), group, shader.ErrProgramNotCompiled)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var entries []wgpu.BindGroupEntry
	for _, binding := range program.Bindings() {
		if binding.Group != group {
			continue
		}
		slot := bind_group_provider.Slot{Group: binding.Group, Binding: binding.Binding}

		switch binding.Kind {
		case shader.BindingTexture2D, shader.BindingTextureCube:
			tv := provider.TextureView(slot)
			if tv == nil {
				return fmt.Errorf("%s: texture binding %d/%d has no texture view, initialize the texture first", provider.Label(), slot.Group, slot.Binding)
			}
			entries = append(entries, wgpu.BindGroupEntry{
				Binding:     binding.Binding,
				TextureView: tv,
			})
		case shader.BindingSampler:
			samp := provider.Sampler(slot)
			if samp == nil {
				return fmt.Errorf("%s: sampler binding %d/%d has no sampler, call InitSampler first", provider.Label(), slot.Group, slot.Binding)
			}
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: binding.Binding,
				Sampler: samp,
			})
		case shader.BindingUniform:
			buf := provider.Buffer(slot)
			if buf == nil {
				if program.Uniforms() == nil || slot != (bind_group_provider.Slot{}) {
					return fmt.Errorf("%s: uniform binding %d/%d: %w", provider.Label(), slot.Group, slot.Binding, shader.ErrNoUniformBlock)
				}
				var err error
				buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
					Label: provider.Label() + " Uniform Buffer",
					Size:  program.Uniforms().Size(),
					Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
				})
				if err != nil {
					return err
				}
				provider.SetBuffer(slot, buf)
			}
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: binding.Binding,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			})
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   fmt.Sprintf("%s Group %d", provider.Label(), group),
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(group, bindGroup)

	return nil
}

func (b *wgpuRendererBackendImpl) InitTexture2D(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, stagingData common.TextureStagingData) error {
	if err := stagingData.Validate(); err != nil {
		return fmt.Errorf("%s: %w", provider.Label(), err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     provider.Label() + " Texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              stagingData.Width,
			Height:             stagingData.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}

	b.writeLayer(tex, 0, stagingData)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	provider.SetTexture(slot, tex, view)

	return nil
}

func (b *wgpuRendererBackendImpl) UpdateTexture2D(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, stagingData common.TextureStagingData) error {
	if err := stagingData.Validate(); err != nil {
		return fmt.Errorf("%s: %w", provider.Label(), err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tex := provider.Texture(slot)
	if tex == nil {
		return fmt.Errorf("%s: no texture at %d/%d, call InitTexture2D first", provider.Label(), slot.Group, slot.Binding)
	}
	if tex.GetWidth() != stagingData.Width || tex.GetHeight() != stagingData.Height {
		return fmt.Errorf("%s: texture is %dx%d, update is %dx%d", provider.Label(), tex.GetWidth(), tex.GetHeight(), stagingData.Width, stagingData.Height)
	}

	b.writeLayer(tex, 0, stagingData)

	return nil
}

func (b *wgpuRendererBackendImpl) InitCubeTexture(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, faces [6]common.TextureStagingData) error {
	if err := validateCubeFaces(faces); err != nil {
		return fmt.Errorf("%s: %w", provider.Label(), err)
	}
	size := faces[0].Width

	b.mu.Lock()
	defer b.mu.Unlock()

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     provider.Label() + " Cube Texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              size,
			Height:             size,
			DepthOrArrayLayers: 6,
		},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}

	for i, face := range faces {
		b.writeLayer(tex, uint32(i), face)
	}

	view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           provider.Label() + " Cube View",
		Format:          wgpu.TextureFormatRGBA8Unorm,
		Dimension:       wgpu.TextureViewDimensionCube,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 6,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		tex.Release()
		return err
	}
	provider.SetTexture(slot, tex, view)

	return nil
}

// validateCubeFaces checks that all six faces are valid, square and the same size.
func validateCubeFaces(faces [6]common.TextureStagingData) error {
	size := faces[0].Width
	for i, face := range faces {
		if err := face.Validate(); err != nil {
			return fmt.Errorf("cube face %d: %w", i, err)
		}
		if face.Width != face.Height {
			return fmt.Errorf("cube face %d is not square: %dx%d", i, face.Width, face.Height)
		}
		if face.Width != size {
			return fmt.Errorf("cube face %d is %dx%d, want %dx%d", i, face.Width, face.Height, size, size)
		}
	}
	return nil
}

// writeLayer uploads RGBA8 pixels into one array layer of a texture.
func (b *wgpuRendererBackendImpl) writeLayer(tex *wgpu.Texture, layer uint32, stagingData common.TextureStagingData) {
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{Z: layer},
			Aspect:   wgpu.TextureAspectAll,
		},
		stagingData.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  stagingData.Width * 4,
			RowsPerImage: stagingData.Height,
		},
		&wgpu.Extent3D{
			Width:              stagingData.Width,
			Height:             stagingData.Height,
			DepthOrArrayLayers: 1,
		},
	)
}

func (b *wgpuRendererBackendImpl) InitSampler(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, samplerStagingData common.SamplerStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         provider.Label() + " Sampler",
		AddressModeU:  common.Coalesce(samplerStagingData.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(samplerStagingData.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(samplerStagingData.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(samplerStagingData.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(samplerStagingData.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(samplerStagingData.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(samplerStagingData.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(samplerStagingData.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(samplerStagingData.MaxAnisotropy, 1),
	})
	if err != nil {
		return err
	}
	provider.SetSampler(slot, samp, true)

	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf := w.Provider.Buffer(w.Slot)
		if buf == nil {
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A surface texture still held from the previous frame would make the acquire fail
	// with "Surface image is already acquired".
	if b.frameSurface != nil {
		return errors.New("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuRendererBackendImpl) BeginOffscreenPass(fb render_target.Framebuffer, clear wgpu.Color) error {
	target, err := framebufferTarget(fb)
	if err != nil {
		return err
	}
	colorView, err := attachmentView(fb.ColorAttachment())
	if err != nil {
		return err
	}

	desc := &wgpu.RenderPassDescriptor{
		Label: fb.Label() + " Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       colorView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore, // kept for the resolve
				ClearValue: clear,
			},
		},
	}

	if ds := fb.DepthStencilAttachment(); ds != nil {
		depthView, err := attachmentView(ds)
		if err != nil {
			return err
		}
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:              depthView,
			DepthLoadOp:       wgpu.LoadOpClear,
			DepthStoreOp:      wgpu.StoreOpDiscard,
			DepthClearValue:   1.0,
			StencilLoadOp:     wgpu.LoadOpClear,
			StencilStoreOp:    wgpu.StoreOpDiscard,
			StencilClearValue: 0,
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.beginPass(desc, target)
}

func (b *wgpuRendererBackendImpl) BeginSurfacePass(clear wgpu.Color) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameView == nil {
		return ErrNoSurfaceFrame
	}

	desc := &wgpu.RenderPassDescriptor{
		Label: "Surface Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       b.frameView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: clear,
			},
		},
	}

	return b.beginPass(desc, pipeline.Target{SampleCount: 1, ColorFormat: b.surfaceFormat})
}

// beginPass opens a pass on the frame encoder, creating the encoder when the previous one was submitted.
// Callers hold b.mu.
func (b *wgpuRendererBackendImpl) beginPass(desc *wgpu.RenderPassDescriptor, target pipeline.Target) error {
	if b.framePass != nil {
		return ErrPassOpen
	}

	if b.frameEncoder == nil {
		encoder, err := b.device.CreateCommandEncoder(nil)
		if err != nil {
			return err
		}
		b.frameEncoder = encoder
	}

	b.framePass = b.frameEncoder.BeginRenderPass(desc)
	b.passTarget = target

	return nil
}

// framebufferTarget describes the attachments of a framebuffer as a pipeline target.
func framebufferTarget(fb render_target.Framebuffer) (pipeline.Target, error) {
	if fb == nil || fb.ColorAttachment() == nil {
		return pipeline.Target{}, fmt.Errorf("offscreen pass: %w", render_target.ErrFramebufferIncomplete)
	}

	color := fb.ColorAttachment()
	target := pipeline.Target{
		SampleCount: color.SampleCount(),
		ColorFormat: render_target.WGPUFormat(color.Format()),
	}
	if ds := fb.DepthStencilAttachment(); ds != nil {
		if ds.SampleCount() != color.SampleCount() {
			return pipeline.Target{}, fmt.Errorf("%s: depth has %d samples, color has %d: %w", fb.Label(), ds.SampleCount(), color.SampleCount(), render_target.ErrFramebufferIncomplete)
		}
		target.DepthFormat = render_target.WGPUFormat(ds.Format())
	}

	return target, nil
}

// attachmentView extracts the texture view of an attachment created by the WGPU render target backend.
func attachmentView(a render_target.Attachment) (*wgpu.TextureView, error) {
	handles, ok := a.Handle().(render_target.WGPUHandles)
	if !ok {
		return nil, fmt.Errorf("attachment %s was not created by the wgpu backend", a.Label())
	}
	if handles.View == nil {
		return nil, fmt.Errorf("attachment %s: %w", a.Label(), render_target.ErrNotLive)
	}
	return handles.View, nil
}

func (b *wgpuRendererBackendImpl) DrawCall(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return ErrNoActivePass
	}

	program := p.Program()
	for _, g := range program.Groups() {
		if provider.BindGroup(g) == nil {
			return fmt.Errorf("%s: bind group %d not initialized for %s", provider.Label(), g, p.PipelineKey())
		}
	}

	needsVertices := len(p.VertexLayouts()) > 0
	if needsVertices && provider.VertexBuffer() == nil {
		return fmt.Errorf("%s: no vertex buffer for %s", provider.Label(), p.PipelineKey())
	}
	indexed := provider.IndexBuffer() != nil
	if indexed && provider.IndexCount() == 0 || !indexed && provider.VertexCount() == 0 {
		return fmt.Errorf("%s: nothing to draw", provider.Label())
	}

	renderPipeline, err := b.variant(p)
	if err != nil {
		return err
	}

	b.framePass.SetPipeline(renderPipeline)
	for _, g := range program.Groups() {
		b.framePass.SetBindGroup(uint32(g), provider.BindGroup(g), nil)
	}
	if needsVertices {
		b.framePass.SetVertexBuffer(0, provider.VertexBuffer(), 0, wgpu.WholeSize)
	}

	if indexed {
		b.framePass.SetIndexBuffer(provider.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		b.framePass.DrawIndexed(uint32(provider.IndexCount()), 1, 0, 0, 0)
	} else {
		b.framePass.Draw(uint32(provider.VertexCount()), 1, 0, 0)
	}

	return nil
}

// variant returns the render pipeline of p for the open pass, creating it on a cache miss.
// Callers hold b.mu.
func (b *wgpuRendererBackendImpl) variant(p pipeline.Pipeline) (*wgpu.RenderPipeline, error) {
	key := p.VariantKey(b.passTarget)
	if rp, ok := b.variants.Get(key); ok {
		return rp, nil
	}

	desc, err := p.Descriptor(b.passTarget)
	if err != nil {
		return nil, err
	}
	rp, err := b.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("%s: create render pipeline: %w", key, err)
	}
	b.variants.Add(key, rp)
	b.logger.Debug("render pipeline created", "variant", key)

	return rp, nil
}

func (b *wgpuRendererBackendImpl) EndPass() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return ErrNoActivePass
	}
	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil

	return nil
}

func (b *wgpuRendererBackendImpl) Submit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass != nil {
		return ErrPassOpen
	}
	if b.frameEncoder == nil {
		return nil
	}

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		return err
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If no frame surface is held, nothing to present.
	if b.frameSurface == nil {
		return
	}

	b.surface.Present()
	b.releaseFrame()
}

// releaseFrame drops the surface texture references of the current frame. Callers hold b.mu.
func (b *wgpuRendererBackendImpl) releaseFrame() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.variants != nil {
		b.variants.Purge()
	}

	if b.framePass != nil {
		b.framePass.End()
		b.framePass.Release()
		b.framePass = nil
	}
	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	b.releaseFrame()

	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
