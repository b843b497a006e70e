package render_target

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// WGPUHandles is the Handle value of attachments created by the WGPU backend.
// Sampler is only set for sampleable textures.
type WGPUHandles struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Sampler *wgpu.Sampler
}

// WGPUFormat maps an AttachmentFormat onto the wgpu texture format backing it.
func WGPUFormat(format AttachmentFormat) wgpu.TextureFormat {
	if format == FormatDepth24Stencil8 {
		return wgpu.TextureFormatDepth24PlusStencil8
	}
	return wgpu.TextureFormatRGBA8Unorm
}

// wgpuAttachment is a texture plus its default view, optionally with a sampler.
type wgpuAttachment struct {
	mu *sync.Mutex

	label   string
	width   int
	height  int
	samples uint32
	format  AttachmentFormat

	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

var _ Attachment = &wgpuAttachment{}

func (a *wgpuAttachment) Label() string            { return a.label }
func (a *wgpuAttachment) Width() int               { return a.width }
func (a *wgpuAttachment) Height() int              { return a.height }
func (a *wgpuAttachment) SampleCount() uint32      { return a.samples }
func (a *wgpuAttachment) Format() AttachmentFormat { return a.format }

func (a *wgpuAttachment) Handle() any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return WGPUHandles{Texture: a.texture, View: a.view, Sampler: a.sampler}
}

func (a *wgpuAttachment) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sampler != nil {
		a.sampler.Release()
		a.sampler = nil
	}
	if a.view != nil {
		a.view.Release()
		a.view = nil
	}
	if a.texture != nil {
		a.texture.Release()
		a.texture = nil
	}
}

// wgpuFramebuffer is a pairing of attachments. WebGPU has no framebuffer object; the pairing is turned
// into a render pass descriptor when a pass begins.
type wgpuFramebuffer struct {
	label        string
	color        Attachment
	depthStencil Attachment
}

var _ Framebuffer = &wgpuFramebuffer{}

func (f *wgpuFramebuffer) Label() string                      { return f.label }
func (f *wgpuFramebuffer) ColorAttachment() Attachment        { return f.color }
func (f *wgpuFramebuffer) DepthStencilAttachment() Attachment { return f.depthStencil }

func (f *wgpuFramebuffer) Release() {
	f.color = nil
	f.depthStencil = nil
}

// wgpuRenderTargetBackend is the RenderTargetBackend implementation on a wgpu device.
type wgpuRenderTargetBackend struct {
	device *wgpu.Device
	queue  *wgpu.Queue
}

var _ RenderTargetBackend = &wgpuRenderTargetBackend{}

// NewWGPUBackend creates a RenderTargetBackend that allocates textures on the given device.
//
// Parameters:
//   - device: the wgpu device to allocate on
//   - queue: the device queue used to submit resolve work
//
// Returns:
//   - RenderTargetBackend: the WGPU backend
func NewWGPUBackend(device *wgpu.Device, queue *wgpu.Queue) RenderTargetBackend {
	return &wgpuRenderTargetBackend{device: device, queue: queue}
}

func (b *wgpuRenderTargetBackend) CreateRenderbuffer(label string, width, height int, samples uint32, format AttachmentFormat) (Attachment, error) {
	usage := wgpu.TextureUsageRenderAttachment
	if samples == 1 && format.ColorRenderable() {
		// Single-sampled colour is copied, not resolved, into the resolve texture.
		usage |= wgpu.TextureUsageCopySrc
	}

	tex, view, err := b.createTexture(label, width, height, samples, format, usage)
	if err != nil {
		return nil, err
	}

	return &wgpuAttachment{
		mu:      &sync.Mutex{},
		label:   label,
		width:   width,
		height:  height,
		samples: samples,
		format:  format,
		texture: tex,
		view:    view,
	}, nil
}

func (b *wgpuRenderTargetBackend) CreateTexture(label string, width, height int, format AttachmentFormat) (Attachment, error) {
	usage := wgpu.TextureUsageTextureBinding | wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst
	tex, view, err := b.createTexture(label, width, height, 1, format, usage)
	if err != nil {
		return nil, err
	}

	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   1,
		MaxAnisotropy: 1,
	})
	if err != nil {
		view.Release()
		tex.Release()
		return nil, fmt.Errorf("failed to create sampler for %s: %w", label, err)
	}

	return &wgpuAttachment{
		mu:      &sync.Mutex{},
		label:   label,
		width:   width,
		height:  height,
		samples: 1,
		format:  format,
		texture: tex,
		view:    view,
		sampler: samp,
	}, nil
}

func (b *wgpuRenderTargetBackend) CreateFramebuffer(label string, color, depthStencil Attachment) (Framebuffer, error) {
	if color == nil {
		return nil, errors.New("framebuffer requires a color attachment")
	}
	return &wgpuFramebuffer{label: label, color: color, depthStencil: depthStencil}, nil
}

func (b *wgpuRenderTargetBackend) Blit(src, dst Framebuffer, width, height int) error {
	srcColor, ok := src.ColorAttachment().Handle().(WGPUHandles)
	if !ok {
		return fmt.Errorf("source %s was not created by the wgpu backend", src.Label())
	}
	dstColor, ok := dst.ColorAttachment().Handle().(WGPUHandles)
	if !ok {
		return fmt.Errorf("destination %s was not created by the wgpu backend", dst.Label())
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}

	if src.ColorAttachment().SampleCount() > 1 {
		// An empty pass that keeps the multisampled contents and resolves them into the destination.
		pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			ColorAttachments: []wgpu.RenderPassColorAttachment{
				{
					View:          srcColor.View,
					ResolveTarget: dstColor.View,
					LoadOp:        wgpu.LoadOpLoad,
					StoreOp:       wgpu.StoreOpStore,
				},
			},
		})
		if err := endPass(pass); err != nil {
			encoder.Release()
			return fmt.Errorf("resolve %s into %s: %w", src.Label(), dst.Label(), err)
		}
	} else {
		encoder.CopyTextureToTexture(
			&wgpu.ImageCopyTexture{
				Texture:  srcColor.Texture,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			&wgpu.ImageCopyTexture{
				Texture:  dstColor.Texture,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			&wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
		)
	}

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		return err
	}

	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	encoder.Release()

	return nil
}

func (b *wgpuRenderTargetBackend) createTexture(label string, width, height int, samples uint32, format AttachmentFormat, usage wgpu.TextureUsage) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        WGPUFormat(format),
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create texture %s: %w", label, err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("failed to create view for %s: %w", label, err)
	}

	return tex, view, nil
}

// passEncoder is the part of a render pass encoder needed to close it.
type passEncoder interface {
	End() error
	Release()
}

// endPass ends the pass and releases its handle, even when End reports an error.
func endPass(pass passEncoder) error {
	defer pass.Release()
	return pass.End()
}
