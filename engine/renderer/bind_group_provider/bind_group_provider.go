package bind_group_provider

import (
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// Slot addresses one binding inside one bind group.
type Slot struct {
	Group   int
	Binding uint32
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources and must be released when no longer needed. They are populated by the Renderer during initialization, not by user-creation.

	// bindGroups holds the GPU bind groups created for this provider, keyed by group index.
	bindGroups map[int]*wgpu.BindGroup
	// buffers holds the GPU buffers created for this provider, keyed by slot.
	buffers map[Slot]*wgpu.Buffer
	// textures holds the GPU textures owned by this provider, keyed by slot.
	textures map[Slot]*wgpu.Texture
	// textureViews holds the GPU texture views bound by this provider, keyed by slot.
	textureViews map[Slot]*wgpu.TextureView
	// borrowed marks texture views owned by another component; Release leaves them alone.
	borrowed map[Slot]bool
	// samplers holds the GPU samplers created for this provider, keyed by slot.
	samplers map[Slot]*wgpu.Sampler

	// vertexBuffer is the GPU vertex buffer created for this provider, or nil if not initialized with the Renderer.
	vertexBuffer *wgpu.Buffer
	// indexBuffer is the GPU index buffer created for this provider, or nil for non-indexed draws.
	indexBuffer *wgpu.Buffer
	// indexCount is the number of indices for DrawIndexed calls.
	indexCount int
	// vertexCount is the number of vertices for non-indexed Draw calls.
	vertexCount int
}

// BindGroupProvider holds the GPU resources one draw call needs: the vertex and index buffers
// and one bind group per shader group, along with the buffers, textures and samplers behind them.
//
// Usage pattern:
//  1. Component creates a BindGroupProvider with a debug label
//  2. Renderer.InitMeshBuffers / InitTexture / InitSampler fill the slots
//  3. Renderer.InitBindGroup(provider, program, group) creates each bind group from the program's layout
//  4. Renderer.WriteUniforms(provider, program) uploads dirty uniform data
//  5. Renderer.DrawCall binds every group and issues the draw
type BindGroupProvider interface {
	// Release releases every GPU resource the provider owns. Borrowed texture views are dropped without release.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the bind group for a group index, or nil if not initialized.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup(group int) *wgpu.BindGroup

	// Groups returns the initialized group indices in ascending order.
	Groups() []int

	// Buffer returns the buffer bound at a slot, or nil.
	Buffer(slot Slot) *wgpu.Buffer

	// Texture returns the owned texture at a slot, or nil.
	Texture(slot Slot) *wgpu.Texture

	// TextureView returns the texture view bound at a slot, or nil.
	TextureView(slot Slot) *wgpu.TextureView

	// Borrowed reports whether the view at a slot belongs to another component.
	Borrowed(slot Slot) bool

	// Sampler returns the sampler bound at a slot, or nil.
	Sampler(slot Slot) *wgpu.Sampler

	// VertexBuffer returns the GPU vertex buffer, or nil if not initialized.
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the GPU index buffer, or nil for non-indexed draws.
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns the number of indices for indexed draws.
	IndexCount() int

	// VertexCount returns the number of vertices for non-indexed draws.
	VertexCount() int

	// SetBindGroup stores a bind group, releasing any previous one at the same index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - bg: the created bind group
	SetBindGroup(group int, bg *wgpu.BindGroup)

	// SetBuffer stores a buffer the provider owns.
	SetBuffer(slot Slot, buf *wgpu.Buffer)

	// SetTexture stores a texture and its view, both owned by the provider.
	//
	// Parameters:
	//   - slot: the slot the view is bound to
	//   - tex: the texture
	//   - view: the view created from tex
	SetTexture(slot Slot, tex *wgpu.Texture, view *wgpu.TextureView)

	// BorrowTextureView stores a view owned elsewhere, such as a render target's resolve texture.
	//
	// Parameters:
	//   - slot: the slot the view is bound to
	//   - view: the borrowed view
	BorrowTextureView(slot Slot, view *wgpu.TextureView)

	// SetSampler stores a sampler. Borrowed samplers are passed with owned set to false.
	//
	// Parameters:
	//   - slot: the slot the sampler is bound to
	//   - s: the sampler
	//   - owned: whether Release should free the sampler
	SetSampler(slot Slot, s *wgpu.Sampler, owned bool)

	// SetVertexBuffer stores the GPU vertex buffer and its vertex count.
	SetVertexBuffer(buf *wgpu.Buffer, vertexCount int)

	// SetIndexBuffer stores the GPU index buffer and its index count.
	SetIndexBuffer(buf *wgpu.Buffer, indexCount int)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label used for every GPU object the renderer creates for this provider
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		bindGroups:   make(map[int]*wgpu.BindGroup),
		buffers:      make(map[Slot]*wgpu.Buffer),
		textures:     make(map[Slot]*wgpu.Texture),
		textureViews: make(map[Slot]*wgpu.TextureView),
		borrowed:     make(map[Slot]bool),
		samplers:     make(map[Slot]*wgpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup(group int) *wgpu.BindGroup {
	return p.bindGroups[group]
}

func (p *bindGroupProvider) Groups() []int {
	groups := make([]int, 0, len(p.bindGroups))
	for g, bg := range p.bindGroups {
		if bg != nil {
			groups = append(groups, g)
		}
	}
	sort.Ints(groups)
	return groups
}

func (p *bindGroupProvider) Buffer(slot Slot) *wgpu.Buffer {
	return p.buffers[slot]
}

func (p *bindGroupProvider) Texture(slot Slot) *wgpu.Texture {
	return p.textures[slot]
}

func (p *bindGroupProvider) TextureView(slot Slot) *wgpu.TextureView {
	return p.textureViews[slot]
}

func (p *bindGroupProvider) Borrowed(slot Slot) bool {
	return p.borrowed[slot]
}

func (p *bindGroupProvider) Sampler(slot Slot) *wgpu.Sampler {
	return p.samplers[slot]
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) VertexCount() int {
	return p.vertexCount
}

func (p *bindGroupProvider) SetBindGroup(group int, bg *wgpu.BindGroup) {
	if old := p.bindGroups[group]; old != nil && old != bg {
		old.Release()
	}
	p.bindGroups[group] = bg
}

func (p *bindGroupProvider) SetBuffer(slot Slot, buf *wgpu.Buffer) {
	p.buffers[slot] = buf
}

func (p *bindGroupProvider) SetTexture(slot Slot, tex *wgpu.Texture, view *wgpu.TextureView) {
	p.textures[slot] = tex
	p.textureViews[slot] = view
	delete(p.borrowed, slot)
}

func (p *bindGroupProvider) BorrowTextureView(slot Slot, view *wgpu.TextureView) {
	p.textureViews[slot] = view
	p.borrowed[slot] = true
}

func (p *bindGroupProvider) SetSampler(slot Slot, s *wgpu.Sampler, owned bool) {
	p.samplers[slot] = s
	if owned {
		delete(p.borrowed, slot)
	} else {
		p.borrowed[slot] = true
	}
}

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer, vertexCount int) {
	p.vertexBuffer = buf
	p.vertexCount = vertexCount
}

func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer, indexCount int) {
	p.indexBuffer = buf
	p.indexCount = indexCount
}

func (p *bindGroupProvider) Release() {
	for g, bg := range p.bindGroups {
		if bg != nil {
			bg.Release()
		}
		delete(p.bindGroups, g)
	}
	for slot, tv := range p.textureViews {
		if tv != nil && !p.borrowed[slot] {
			tv.Release()
		}
		delete(p.textureViews, slot)
	}
	for slot, tex := range p.textures {
		if tex != nil {
			tex.Release()
		}
		delete(p.textures, slot)
	}
	for slot, s := range p.samplers {
		if s != nil && !p.borrowed[slot] {
			s.Release()
		}
		delete(p.samplers, slot)
	}
	for slot, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, slot)
	}
	for slot := range p.borrowed {
		delete(p.borrowed, slot)
	}

	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
	p.vertexCount = 0
	p.indexCount = 0
}
