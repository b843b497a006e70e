package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBuffer sets an owned buffer for a specific slot.
//
// Parameters:
//   - slot: the group and binding for this buffer
//   - buf: the buffer to associate with this slot
//
// Returns:
//   - BindGroupProviderOption: a function that sets the buffer for the specified slot
func WithBuffer(slot Slot, buf *wgpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[slot] = buf
	}
}

// WithBorrowedTextureView binds a view owned by another component.
//
// Parameters:
//   - slot: the group and binding for this view
//   - view: the texture view, released by its owner
//
// Returns:
//   - BindGroupProviderOption: a function that stores the borrowed view
func WithBorrowedTextureView(slot Slot, view *wgpu.TextureView) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.textureViews[slot] = view
		p.borrowed[slot] = true
	}
}

// WithBorrowedSampler binds a sampler owned by another component.
//
// Parameters:
//   - slot: the group and binding for this sampler
//   - s: the sampler, released by its owner
//
// Returns:
//   - BindGroupProviderOption: a function that stores the borrowed sampler
func WithBorrowedSampler(slot Slot, s *wgpu.Sampler) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.samplers[slot] = s
		p.borrowed[slot] = true
	}
}

// WithVertexCount sets the vertex count for non-indexed draws that generate vertices in the shader.
//
// Parameters:
//   - count: the number of vertices to draw
//
// Returns:
//   - BindGroupProviderOption: a function that sets the vertex count
func WithVertexCount(count int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.vertexCount = count
	}
}
