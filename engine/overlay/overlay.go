// Package overlay draws the debug console panel: text rasterised on the CPU into an RGBA image,
// uploaded to a 2D texture and composited over the frame with alpha blending.
package overlay

import (
	"errors"
	"fmt"
	"image"

	"github.com/Carmen-Shannon/oxy-msaa/common"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// UniformRect is the uniform block field holding the panel rectangle in clip space (x0, y0, x1, y1).
	UniformRect = "rect"

	// QuadVertexCount is the number of vertices the overlay shader expands into a quad.
	QuadVertexCount = 6
)

var (
	// TextureSlot is where the panel texture is bound.
	TextureSlot = bind_group_provider.Slot{Group: 0, Binding: 1}

	// SamplerSlot is where the panel sampler is bound.
	SamplerSlot = bind_group_provider.Slot{Group: 0, Binding: 2}
)

// ErrNotInitialized is returned by Update and Draw before Init succeeded.
var ErrNotInitialized = errors.New("overlay not initialized")

// PanelRenderer is the part of the renderer the overlay uploads and draws through.
type PanelRenderer interface {
	InitTexture2D(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, stagingData common.TextureStagingData) error
	UpdateTexture2D(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, stagingData common.TextureStagingData) error
	InitSampler(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, samplerStagingData common.SamplerStagingData) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, program shader.ShaderProgram, group int) error
	WriteUniforms(provider bind_group_provider.BindGroupProvider, program shader.ShaderProgram) error
	DrawCall(pipelineKey string, provider bind_group_provider.BindGroupProvider) error
}

type overlay struct {
	key    string
	width  int
	height int

	panel *textPanel
	img   *image.RGBA

	provider bind_group_provider.BindGroupProvider
	program  shader.ShaderProgram
}

// Overlay is a fixed-size text panel anchored to the top-left corner of the screen.
type Overlay interface {
	// Key returns the overlay identifier.
	Key() string

	// Size returns the panel size in pixels.
	Size() (int, int)

	// Capacity returns how many text lines fit in the panel.
	Capacity() int

	// Image returns the CPU copy of the panel as last rendered.
	Image() *image.RGBA

	// Provider returns the BindGroupProvider holding the panel texture and bind group.
	Provider() bind_group_provider.BindGroupProvider

	// Init creates the panel texture, its sampler and the program's bind groups.
	//
	// Parameters:
	//   - r: the renderer to upload through
	//   - program: the compiled overlay program
	//
	// Returns:
	//   - error: an error if any GPU resource could not be created
	Init(r PanelRenderer, program shader.ShaderProgram) error

	// Update rasterises lines into the panel and uploads it. Lines that do not fit are dropped.
	//
	// Parameters:
	//   - r: the renderer to upload through
	//   - lines: the text, top line first
	//
	// Returns:
	//   - error: ErrNotInitialized before Init, or the upload error
	Update(r PanelRenderer, lines []string) error

	// Draw places the panel in the top-left corner of a screen of the given size and draws it.
	//
	// Parameters:
	//   - r: the renderer with an open surface pass
	//   - pipelineKey: the key of the registered blended overlay pipeline
	//   - screenWidth: the surface width in pixels
	//   - screenHeight: the surface height in pixels
	//
	// Returns:
	//   - error: ErrNotInitialized before Init, or the renderer's error
	Draw(r PanelRenderer, pipelineKey string, screenWidth, screenHeight int) error

	// Release frees the GPU resources.
	Release()
}

var _ Overlay = &overlay{}

// NewOverlay creates an Overlay panel of the given size. GPU resources are created by Init.
//
// Parameters:
//   - key: the overlay identifier, also used as the GPU resource label
//   - width: the panel width in pixels
//   - height: the panel height in pixels
//   - options: a variadic list of OverlayBuilderOption functions to configure the Overlay
//
// Returns:
//   - Overlay: the new overlay
func NewOverlay(key string, width, height int, options ...OverlayBuilderOption) Overlay {
	o := &overlay{
		key:    key,
		width:  max(width, 1),
		height: max(height, 1),
		panel:  newTextPanel(nil),
	}

	for _, opt := range options {
		opt(o)
	}

	o.img = image.NewRGBA(image.Rect(0, 0, o.width, o.height))
	o.panel.render(o.img, nil)

	return o
}

// PanelRect maps a panel of the given size, anchored top-left, onto clip space.
//
// Parameters:
//   - width, height: the panel size in pixels
//   - screenWidth, screenHeight: the surface size in pixels
//
// Returns:
//   - mgl32.Vec4: x0, y0 (top-left) and x1, y1 (bottom-right) in clip space
func PanelRect(width, height, screenWidth, screenHeight int) mgl32.Vec4 {
	if screenWidth <= 0 || screenHeight <= 0 {
		return mgl32.Vec4{-1, 1, -1, 1}
	}
	w := min(float32(width)/float32(screenWidth), 1)
	h := min(float32(height)/float32(screenHeight), 1)
	return mgl32.Vec4{-1, 1, -1 + 2*w, 1 - 2*h}
}

func (o *overlay) Key() string {
	return o.key
}

func (o *overlay) Size() (int, int) {
	return o.width, o.height
}

func (o *overlay) Capacity() int {
	return o.panel.capacity(o.height)
}

func (o *overlay) Image() *image.RGBA {
	return o.img
}

func (o *overlay) Provider() bind_group_provider.BindGroupProvider {
	return o.provider
}

func (o *overlay) Init(r PanelRenderer, program shader.ShaderProgram) error {
	provider := bind_group_provider.NewBindGroupProvider(o.key, bind_group_provider.WithVertexCount(QuadVertexCount))
	fail := func(err error) error {
		provider.Release()
		return fmt.Errorf("overlay %s: %w", o.key, err)
	}

	if err := r.InitTexture2D(provider, TextureSlot, common.ToStagingData(o.img)); err != nil {
		return fail(err)
	}
	if err := r.InitSampler(provider, SamplerSlot, common.SamplerStagingData{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeNearest,
		MinFilter:    wgpu.FilterModeNearest,
		LodMaxClamp:  1,
	}); err != nil {
		return fail(err)
	}
	for _, g := range program.Groups() {
		if err := r.InitBindGroup(provider, program, g); err != nil {
			return fail(err)
		}
	}

	if o.provider != nil {
		o.provider.Release()
	}
	o.provider = provider
	o.program = program

	return nil
}

func (o *overlay) Update(r PanelRenderer, lines []string) error {
	if o.provider == nil {
		return fmt.Errorf("%s: %w", o.key, ErrNotInitialized)
	}

	o.panel.render(o.img, lines)
	return r.UpdateTexture2D(o.provider, TextureSlot, common.ToStagingData(o.img))
}

func (o *overlay) Draw(r PanelRenderer, pipelineKey string, screenWidth, screenHeight int) error {
	if o.provider == nil || o.program == nil {
		return fmt.Errorf("%s: %w", o.key, ErrNotInitialized)
	}

	if err := o.program.SetVec4(UniformRect, PanelRect(o.width, o.height, screenWidth, screenHeight)); err != nil {
		return err
	}
	if err := r.WriteUniforms(o.provider, o.program); err != nil {
		return err
	}
	return r.DrawCall(pipelineKey, o.provider)
}

func (o *overlay) Release() {
	if o.provider != nil {
		o.provider.Release()
		o.provider = nil
	}
	o.program = nil
}

