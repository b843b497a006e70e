package pipeline

import (
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption configures a Pipeline in NewPipeline.
type PipelineBuilderOption func(*pipeline)

// WithProgram sets the shader program the pipeline runs.
//
// Parameters:
//   - program: the compiled or pending vertex/fragment pair
//
// Returns:
//   - PipelineBuilderOption: the option
func WithProgram(program shader.ShaderProgram) PipelineBuilderOption {
	return func(p *pipeline) {
		p.program = program
	}
}

// WithVertexLayouts sets one layout per vertex buffer slot.
// Pipelines that generate their vertices in the shader leave this empty.
func WithVertexLayouts(layouts ...wgpu.VertexBufferLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexLayouts = layouts
	}
}

// WithDepthTestEnabled toggles the depth test. A disabled test compares with Always.
func WithDepthTestEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthTestEnabled = enabled
	}
}

// WithDepthWriteEnabled toggles depth writes.
func WithDepthWriteEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthWriteEnabled = enabled
	}
}

// WithDepthCompare sets the depth compare function.
//
// Parameters:
//   - compare: LessEqual lets a skybox at the far plane pass against a cleared depth of 1.0
//
// Returns:
//   - PipelineBuilderOption: the option
func WithDepthCompare(compare wgpu.CompareFunction) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthCompare = compare
	}
}

// WithBlendEnabled toggles blending of the fragment output with the color attachment.
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = enabled
	}
}

// WithBlendState replaces the default straight alpha blend state. It only applies when blending is enabled.
func WithBlendState(blendState *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendState = blendState
	}
}

// WithCullMode sets which faces are discarded before rasterization.
//
// Parameters:
//   - mode: wgpu.CullModeBack for closed meshes, wgpu.CullModeNone for screen quads
//
// Returns:
//   - PipelineBuilderOption: the option
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithFrontFace sets the winding that counts as front facing.
// Geometry seen from the inside, like a skybox cube, flips it to wgpu.FrontFaceCW.
func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.frontFace = frontFace
	}
}
