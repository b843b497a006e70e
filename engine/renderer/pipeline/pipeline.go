package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Target describes the attachments of the pass a pipeline variant draws into.
// A zero DepthFormat means the pass has no depth/stencil attachment.
type Target struct {
	SampleCount uint32
	ColorFormat wgpu.TextureFormat
	DepthFormat wgpu.TextureFormat
}

func (t Target) String() string {
	return fmt.Sprintf("%dx/%v/%v", t.SampleCount, t.ColorFormat, t.DepthFormat)
}

// pipeline is the implementation of the Pipeline interface.
// It holds the fixed-function state; the renderer creates one wgpu.RenderPipeline per Target it is drawn into.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string
	program     shader.ShaderProgram

	vertexLayouts []wgpu.VertexBufferLayout

	depthTestEnabled  bool
	depthWriteEnabled bool
	depthCompare      wgpu.CompareFunction
	blendEnabled      bool
	blendState        *wgpu.BlendState
	cullMode          wgpu.CullMode
	frontFace         wgpu.FrontFace
}

// Pipeline describes a render pipeline: the shader program it runs, the vertex buffer layouts it reads,
// and the depth, blend and face culling settings used when a concrete variant is created.
// Every variant draws triangle lists into all color channels.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Program returns the shader program the pipeline runs.
	//
	// Returns:
	//   - shader.ShaderProgram: the program, nil if none was set
	Program() shader.ShaderProgram

	// VertexLayouts returns the vertex buffer layouts, empty for pipelines that generate vertices in the shader.
	VertexLayouts() []wgpu.VertexBufferLayout

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	DepthWriteEnabled() bool

	// DepthCompare returns the compare function used when depth testing is enabled.
	DepthCompare() wgpu.CompareFunction

	// BlendEnabled returns whether blending is enabled for this pipeline.
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	CullMode() wgpu.CullMode

	// FrontFace returns the front face winding order configured for this pipeline.
	FrontFace() wgpu.FrontFace

	// BlendState returns the blend state used when blending is enabled.
	BlendState() *wgpu.BlendState

	// VariantKey returns the cache key of the variant drawing into the given target.
	//
	// Parameters:
	//   - target: the pass attachments
	//
	// Returns:
	//   - string: a key unique per pipeline and target
	VariantKey(target Target) string

	// Descriptor builds the wgpu.RenderPipelineDescriptor of the variant drawing into the given target.
	//
	// Parameters:
	//   - target: the pass attachments
	//
	// Returns:
	//   - *wgpu.RenderPipelineDescriptor: the descriptor ready for device.CreateRenderPipeline
	//   - error: shader.ErrProgramNotCompiled if the program has no device modules yet
	Descriptor(target Target) (*wgpu.RenderPipelineDescriptor, error)
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new render Pipeline description.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		depthCompare:      wgpu.CompareFunctionLess,
		blendEnabled:      false,
		cullMode:          wgpu.CullModeNone,
		frontFace:         wgpu.FrontFaceCCW,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Program() shader.ShaderProgram {
	return p.program
}

func (p *pipeline) VertexLayouts() []wgpu.VertexBufferLayout {
	return p.vertexLayouts
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthCompare() wgpu.CompareFunction {
	return p.depthCompare
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) VariantKey(target Target) string {
	return p.pipelineKey + "@" + target.String()
}

func (p *pipeline) Descriptor(target Target) (*wgpu.RenderPipelineDescriptor, error) {
	if p.program == nil {
		return nil, fmt.Errorf("%s: no shader program", p.pipelineKey)
	}
	if !p.program.Compiled() {
		return nil, fmt.Errorf("%s: %w", p.pipelineKey, shader.ErrProgramNotCompiled)
	}

	samples := target.SampleCount
	if samples == 0 {
		samples = 1
	}

	colorTarget := wgpu.ColorTargetState{
		Format:    target.ColorFormat,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if p.blendEnabled {
		colorTarget.Blend = p.blendState
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.VariantKey(target) + " Render Pipeline",
		Layout: p.program.PipelineLayout(),
		Vertex: wgpu.VertexState{
			Module:     p.program.VertexModule(),
			EntryPoint: p.program.Vertex().EntryPoint(),
			Buffers:    p.vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.program.FragmentModule(),
			EntryPoint: p.program.Fragment().EntryPoint(),
			Targets:    []wgpu.ColorTargetState{colorTarget},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: samples,
			Mask:  0xFFFFFFFF,
		},
	}

	if target.DepthFormat != wgpu.TextureFormatUndefined {
		depthCompare := p.depthCompare
		if !p.depthTestEnabled {
			depthCompare = wgpu.CompareFunctionAlways
		}
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:            target.DepthFormat,
			DepthWriteEnabled: p.depthWriteEnabled,
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	return desc, nil
}
