package shader

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrProgramNotCompiled is returned when a program is used for drawing before the device compiled it.
var ErrProgramNotCompiled = errors.New("shader program not compiled")

// ErrNoUniformBlock is returned by uniform setters on programs that declare no uniform block.
var ErrNoUniformBlock = errors.New("shader program has no uniform block")

// BindingKind is the resource type bound at one slot of a bind group.
type BindingKind int

const (
	// BindingUniform is a uniform buffer.
	BindingUniform BindingKind = iota
	// BindingTexture2D is a sampled texture_2d<f32>.
	BindingTexture2D
	// BindingTextureCube is a sampled texture_cube<f32>.
	BindingTextureCube
	// BindingSampler is a filtering sampler.
	BindingSampler
)

func (k BindingKind) String() string {
	switch k {
	case BindingUniform:
		return "uniform"
	case BindingTexture2D:
		return "texture_2d"
	case BindingTextureCube:
		return "texture_cube"
	case BindingSampler:
		return "sampler"
	}
	return "unknown"
}

// Binding declares one resource slot of a program.
type Binding struct {
	Group      int
	Binding    uint32
	Kind       BindingKind
	Visibility wgpu.ShaderStage
}

// shaderProgram is the implementation of the ShaderProgram interface.
type shaderProgram struct {
	mu       *sync.Mutex
	key      string
	vertex   Shader
	fragment Shader
	uniforms UniformBlock
	bindings []Binding

	vertexModule   *wgpu.ShaderModule
	fragmentModule *wgpu.ShaderModule
	layouts        map[int]*wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
}

// ShaderProgram pairs a vertex and a fragment stage with the resources they bind.
//
// The program is created from source on the CPU; the renderer compiles it on the device and
// hands the resulting modules and layouts back through SetCompiled.
type ShaderProgram interface {
	// Key returns the program's unique identifier.
	Key() string

	// Vertex returns the vertex stage.
	Vertex() Shader

	// Fragment returns the fragment stage.
	Fragment() Shader

	// Uniforms returns the program's uniform block, or nil when none was declared.
	//
	// Returns:
	//   - UniformBlock: the CPU staging block bound at group 0, binding 0
	Uniforms() UniformBlock

	// Bindings returns a copy of the declared bindings ordered by group then binding.
	Bindings() []Binding

	// Groups returns the sorted list of bind group indices the program uses.
	//
	// Returns:
	//   - []int: group indices in ascending order
	Groups() []int

	// BindGroupLayoutDescriptor builds the layout descriptor for one group.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor with one entry per declared binding
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// SetFloat writes an f32 uniform.
	SetFloat(name string, v float32) error

	// SetInt writes an i32 uniform.
	SetInt(name string, v int32) error

	// SetVec3 writes a vec3<f32> uniform.
	SetVec3(name string, v mgl32.Vec3) error

	// SetVec4 writes a vec4<f32> uniform.
	SetVec4(name string, v mgl32.Vec4) error

	// SetMat4 writes a mat4x4<f32> uniform.
	SetMat4(name string, v mgl32.Mat4) error

	// UniformBytes returns a copy of the staged uniform data, nil without a uniform block.
	UniformBytes() []byte

	// Dirty reports whether the uniform block changed since the last upload.
	Dirty() bool

	// ClearDirty marks the uniform block as uploaded.
	ClearDirty()

	// SetCompiled stores the device objects produced by compiling the program.
	//
	// Parameters:
	//   - vertex: the vertex shader module
	//   - fragment: the fragment shader module
	//   - layouts: the bind group layouts keyed by group index
	//   - pipelineLayout: the pipeline layout over those groups
	SetCompiled(vertex, fragment *wgpu.ShaderModule, layouts map[int]*wgpu.BindGroupLayout, pipelineLayout *wgpu.PipelineLayout)

	// Compiled reports whether SetCompiled has been called since the last Release.
	Compiled() bool

	// VertexModule returns the compiled vertex module, nil before compilation.
	VertexModule() *wgpu.ShaderModule

	// FragmentModule returns the compiled fragment module, nil before compilation.
	FragmentModule() *wgpu.ShaderModule

	// BindGroupLayout returns the compiled layout for a group, nil when unknown.
	BindGroupLayout(group int) *wgpu.BindGroupLayout

	// PipelineLayout returns the compiled pipeline layout, nil before compilation.
	PipelineLayout() *wgpu.PipelineLayout

	// Release frees the device objects and returns the program to the uncompiled state.
	Release()
}

var _ ShaderProgram = &shaderProgram{}

// NewShaderProgram reads the vertex and fragment WGSL files of a program.
//
// Parameters:
//   - key: the unique identifier for the program
//   - vertexPath: the WGSL file providing the @vertex entry point
//   - fragmentPath: the WGSL file providing the @fragment entry point
//   - options: ShaderProgramBuilderOption functions declaring the uniform block and bindings
//
// Returns:
//   - ShaderProgram: the uncompiled program
//   - error: an error if either file is missing, empty or lacks its entry point
func NewShaderProgram(key, vertexPath, fragmentPath string, options ...ShaderProgramBuilderOption) (ShaderProgram, error) {
	vs, err := NewShader(key+" Vertex", ShaderTypeVertex, vertexPath)
	if err != nil {
		return nil, err
	}
	fs, err := NewShader(key+" Fragment", ShaderTypeFragment, fragmentPath)
	if err != nil {
		return nil, err
	}

	return newShaderProgram(key, vs, fs, options...)
}

// NewShaderProgramFromSource builds a program from in-memory WGSL sources.
//
// Parameters:
//   - key: the unique identifier for the program
//   - vertexSource: WGSL containing the @vertex entry point
//   - fragmentSource: WGSL containing the @fragment entry point
//   - options: ShaderProgramBuilderOption functions declaring the uniform block and bindings
//
// Returns:
//   - ShaderProgram: the uncompiled program
//   - error: an error if either source is empty or lacks its entry point
func NewShaderProgramFromSource(key, vertexSource, fragmentSource string, options ...ShaderProgramBuilderOption) (ShaderProgram, error) {
	vs, err := NewShaderFromSource(key+" Vertex", ShaderTypeVertex, vertexSource)
	if err != nil {
		return nil, err
	}
	fs, err := NewShaderFromSource(key+" Fragment", ShaderTypeFragment, fragmentSource)
	if err != nil {
		return nil, err
	}

	return newShaderProgram(key, vs, fs, options...)
}

func newShaderProgram(key string, vs, fs Shader, options ...ShaderProgramBuilderOption) (ShaderProgram, error) {
	p := &shaderProgram{
		mu:       &sync.Mutex{},
		key:      key,
		vertex:   vs,
		fragment: fs,
	}
	for _, opt := range options {
		opt(p)
	}

	seen := make(map[[2]uint32]bool, len(p.bindings))
	for _, b := range p.bindings {
		if b.Group < 0 {
			return nil, fmt.Errorf("link error: %s: negative bind group %d", key, b.Group)
		}
		slot := [2]uint32{uint32(b.Group), b.Binding}
		if seen[slot] {
			return nil, fmt.Errorf("link error: %s: binding %d declared twice in group %d", key, b.Binding, b.Group)
		}
		seen[slot] = true
	}
	sort.SliceStable(p.bindings, func(i, j int) bool {
		if p.bindings[i].Group != p.bindings[j].Group {
			return p.bindings[i].Group < p.bindings[j].Group
		}
		return p.bindings[i].Binding < p.bindings[j].Binding
	})

	return p, nil
}

func (p *shaderProgram) Key() string {
	return p.key
}

func (p *shaderProgram) Vertex() Shader {
	return p.vertex
}

func (p *shaderProgram) Fragment() Shader {
	return p.fragment
}

func (p *shaderProgram) Uniforms() UniformBlock {
	return p.uniforms
}

func (p *shaderProgram) Bindings() []Binding {
	return append([]Binding(nil), p.bindings...)
}

func (p *shaderProgram) Groups() []int {
	var groups []int
	for _, b := range p.bindings {
		if len(groups) == 0 || groups[len(groups)-1] != b.Group {
			groups = append(groups, b.Group)
		}
	}
	return groups
}

func (p *shaderProgram) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	desc := wgpu.BindGroupLayoutDescriptor{
		Label: fmt.Sprintf("%s Group %d Layout", p.key, group),
	}

	for _, b := range p.bindings {
		if b.Group != group {
			continue
		}
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    b.Binding,
			Visibility: b.Visibility,
		}
		switch b.Kind {
		case BindingUniform:
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
			if p.uniforms != nil && group == 0 && b.Binding == 0 {
				entry.Buffer.MinBindingSize = p.uniforms.Size()
			}
		case BindingTexture2D:
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		case BindingTextureCube:
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
			entry.Texture.ViewDimension = wgpu.TextureViewDimensionCube
		case BindingSampler:
			entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		}
		desc.Entries = append(desc.Entries, entry)
	}

	return desc
}

func (p *shaderProgram) SetFloat(name string, v float32) error {
	if p.uniforms == nil {
		return fmt.Errorf("%s: %w", p.key, ErrNoUniformBlock)
	}
	return p.uniforms.SetFloat(name, v)
}

func (p *shaderProgram) SetInt(name string, v int32) error {
	if p.uniforms == nil {
		return fmt.Errorf("%s: %w", p.key, ErrNoUniformBlock)
	}
	return p.uniforms.SetInt(name, v)
}

func (p *shaderProgram) SetVec3(name string, v mgl32.Vec3) error {
	if p.uniforms == nil {
		return fmt.Errorf("%s: %w", p.key, ErrNoUniformBlock)
	}
	return p.uniforms.SetVec3(name, v)
}

func (p *shaderProgram) SetVec4(name string, v mgl32.Vec4) error {
	if p.uniforms == nil {
		return fmt.Errorf("%s: %w", p.key, ErrNoUniformBlock)
	}
	return p.uniforms.SetVec4(name, v)
}

func (p *shaderProgram) SetMat4(name string, v mgl32.Mat4) error {
	if p.uniforms == nil {
		return fmt.Errorf("%s: %w", p.key, ErrNoUniformBlock)
	}
	return p.uniforms.SetMat4(name, v)
}

func (p *shaderProgram) UniformBytes() []byte {
	if p.uniforms == nil {
		return nil
	}
	return p.uniforms.Bytes()
}

func (p *shaderProgram) Dirty() bool {
	return p.uniforms != nil && p.uniforms.Dirty()
}

func (p *shaderProgram) ClearDirty() {
	if p.uniforms != nil {
		p.uniforms.ClearDirty()
	}
}

func (p *shaderProgram) SetCompiled(vertex, fragment *wgpu.ShaderModule, layouts map[int]*wgpu.BindGroupLayout, pipelineLayout *wgpu.PipelineLayout) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.vertexModule = vertex
	p.fragmentModule = fragment
	p.layouts = layouts
	p.pipelineLayout = pipelineLayout
}

func (p *shaderProgram) Compiled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vertexModule != nil && p.fragmentModule != nil && p.pipelineLayout != nil
}

func (p *shaderProgram) VertexModule() *wgpu.ShaderModule {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vertexModule
}

func (p *shaderProgram) FragmentModule() *wgpu.ShaderModule {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fragmentModule
}

func (p *shaderProgram) BindGroupLayout(group int) *wgpu.BindGroupLayout {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.layouts[group]
}

func (p *shaderProgram) PipelineLayout() *wgpu.PipelineLayout {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pipelineLayout
}

func (p *shaderProgram) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pipelineLayout != nil {
		p.pipelineLayout.Release()
		p.pipelineLayout = nil
	}
	for group, layout := range p.layouts {
		if layout != nil {
			layout.Release()
		}
		delete(p.layouts, group)
	}
	if p.fragmentModule != nil {
		p.fragmentModule.Release()
		p.fragmentModule = nil
	}
	if p.vertexModule != nil {
		p.vertexModule.Release()
		p.vertexModule = nil
	}
}
