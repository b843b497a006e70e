package engine

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/shader"
)

var (
	// compositeTextureSlot is where the resolved scene texture is bound for the screen program.
	compositeTextureSlot = bind_group_provider.Slot{Group: 0, Binding: 0}

	// compositeSamplerSlot is where the resolve sampler is bound for the screen program.
	compositeSamplerSlot = bind_group_provider.Slot{Group: 0, Binding: 1}
)

// compositeVertexCount is the number of vertices the screen shader expands into a full screen quad.
const compositeVertexCount = 6

// compositeBinder is the part of the renderer the composite pass needs to bind the resolve texture.
type compositeBinder interface {
	InitBindGroup(provider bind_group_provider.BindGroupProvider, program shader.ShaderProgram, group int) error
}

// buildComposite binds the resolve texture of target for sampling by the screen program.
// The texture view and sampler are borrowed from the target and stay owned by it.
//
// Parameters:
//   - r: the renderer creating the bind group
//   - target: a live render target
//   - program: the compiled screen program
//
// Returns:
//   - bind_group_provider.BindGroupProvider: the provider drawn with the screen pipeline
//   - error: ErrNotLive if the target has no sampleable resolve texture, or the bind group error
func buildComposite(r compositeBinder, target render_target.RenderTarget, program shader.ShaderProgram) (bind_group_provider.BindGroupProvider, error) {
	resolve := target.ResolveTexture()
	if resolve == nil {
		return nil, fmt.Errorf("composite: %w", render_target.ErrNotLive)
	}
	handles, ok := resolve.Handle().(render_target.WGPUHandles)
	if !ok || handles.View == nil || handles.Sampler == nil {
		return nil, fmt.Errorf("composite: resolve texture is not sampleable: %w", render_target.ErrNotLive)
	}

	provider := bind_group_provider.NewBindGroupProvider("composite",
		bind_group_provider.WithVertexCount(compositeVertexCount),
		bind_group_provider.WithBorrowedTextureView(compositeTextureSlot, handles.View),
		bind_group_provider.WithBorrowedSampler(compositeSamplerSlot, handles.Sampler),
	)
	for _, g := range program.Groups() {
		if err := r.InitBindGroup(provider, program, g); err != nil {
			provider.Release()
			return nil, fmt.Errorf("composite: %w", err)
		}
	}
	return provider, nil
}

// rebindComposite replaces the composite provider after the render target was recreated.
// On failure the composite stays empty and is skipped until the next successful recreate.
func (c *Context) rebindComposite(r compositeBinder, target render_target.RenderTarget) {
	provider, err := buildComposite(r, target, c.Programs.Screen)

	c.mu.Lock()
	old := c.Composite
	c.Composite = provider
	c.mu.Unlock()

	if old != nil {
		old.Release()
	}
	if err != nil {
		c.Log.Error("composite rebind failed: " + err.Error())
	}
}

// composite returns the current composite provider.
func (c *Context) composite() bind_group_provider.BindGroupProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Composite
}
