package engine

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-msaa/engine/config"
	"github.com/Carmen-Shannon/oxy-msaa/engine/model"
	"github.com/Carmen-Shannon/oxy-msaa/engine/overlay"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-msaa/engine/skybox"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Pipeline keys.
const (
	PipelinePhong   = "phong"
	PipelineSkybox  = "skybox"
	PipelineScreen  = "screen"
	PipelineOverlay = "overlay"
)

// Phong uniform block fields not written by the model itself.
const (
	UniformView            = "view"
	UniformProjection      = "projection"
	UniformLightPosition   = "light_pos"
	UniformAmbientStrength = "ambient_strength"
	UniformLightColor      = "light_color"
	UniformViewPosition    = "view_pos"
)

// Scene lighting.
var (
	LightPosition   = mgl32.Vec3{0, 2, 2}
	LightColor      = mgl32.Vec3{1, 1, 1}
	AmbientStrength = float32(0.4)
)

var premultipliedBlend = &wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

const fragmentStage = wgpu.ShaderStageFragment

// programOptions returns the binding declarations of each named program.
// A uniform block is always bound at group 0, binding 0.
func programOptions() map[string][]shader.ShaderProgramBuilderOption {
	return map[string][]shader.ShaderProgramBuilderOption{
		PipelinePhong: {
			shader.WithUniformBlock(
				shader.UniformField{Name: model.UniformModel, Type: shader.UniformMat4},
				shader.UniformField{Name: UniformView, Type: shader.UniformMat4},
				shader.UniformField{Name: UniformProjection, Type: shader.UniformMat4},
				shader.UniformField{Name: model.UniformNormalMatrix, Type: shader.UniformMat4},
				shader.UniformField{Name: UniformLightPosition, Type: shader.UniformVec3},
				shader.UniformField{Name: UniformAmbientStrength, Type: shader.UniformFloat},
				shader.UniformField{Name: UniformLightColor, Type: shader.UniformVec3},
				shader.UniformField{Name: UniformViewPosition, Type: shader.UniformVec3},
			),
		},
		PipelineSkybox: {
			shader.WithUniformBlock(
				shader.UniformField{Name: skybox.UniformView, Type: shader.UniformMat4},
				shader.UniformField{Name: skybox.UniformProjection, Type: shader.UniformMat4},
			),
			shader.WithBinding(skybox.TextureSlot.Group, skybox.TextureSlot.Binding, shader.BindingTextureCube, fragmentStage),
			shader.WithBinding(skybox.SamplerSlot.Group, skybox.SamplerSlot.Binding, shader.BindingSampler, fragmentStage),
		},
		PipelineScreen: {
			shader.WithBinding(compositeTextureSlot.Group, compositeTextureSlot.Binding, shader.BindingTexture2D, fragmentStage),
			shader.WithBinding(compositeSamplerSlot.Group, compositeSamplerSlot.Binding, shader.BindingSampler, fragmentStage),
		},
		PipelineOverlay: {
			shader.WithUniformBlock(
				shader.UniformField{Name: overlay.UniformRect, Type: shader.UniformVec4},
			),
			shader.WithBinding(overlay.TextureSlot.Group, overlay.TextureSlot.Binding, shader.BindingTexture2D, fragmentStage),
			shader.WithBinding(overlay.SamplerSlot.Group, overlay.SamplerSlot.Binding, shader.BindingSampler, fragmentStage),
		},
	}
}

// loadPrograms reads the four WGSL program pairs from the asset shader directory.
//
// Parameters:
//   - assets: the asset locations
//
// Returns:
//   - Programs: the uncompiled programs
//   - error: an error naming the first program that failed to load
func loadPrograms(assets config.AssetConfig) (Programs, error) {
	options := programOptions()
	load := func(name string) (shader.ShaderProgram, error) {
		vs, fs := assets.ShaderPaths(name)
		p, err := shader.NewShaderProgram(name, vs, fs, options[name]...)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s program: %w", name, err)
		}
		return p, nil
	}

	var (
		programs Programs
		err      error
	)
	if programs.Phong, err = load(PipelinePhong); err != nil {
		return Programs{}, err
	}
	if programs.Skybox, err = load(PipelineSkybox); err != nil {
		return Programs{}, err
	}
	if programs.Screen, err = load(PipelineScreen); err != nil {
		return Programs{}, err
	}
	if programs.Overlay, err = load(PipelineOverlay); err != nil {
		return Programs{}, err
	}
	return programs, nil
}

// All returns the programs in draw order.
func (p Programs) All() []shader.ShaderProgram {
	return []shader.ShaderProgram{p.Phong, p.Skybox, p.Screen, p.Overlay}
}

// Release frees the GPU modules and layouts of every non-nil program.
func (p Programs) Release() {
	for _, program := range p.All() {
		if program != nil {
			program.Release()
		}
	}
}

// pipelines describes the four render pipelines of a frame.
func (p Programs) pipelines() []pipeline.Pipeline {
	return []pipeline.Pipeline{
		pipeline.NewPipeline(PipelinePhong,
			pipeline.WithProgram(p.Phong),
			pipeline.WithVertexLayouts(model.VertexLayout()),
			pipeline.WithCullMode(wgpu.CullModeBack),
		),
		pipeline.NewPipeline(PipelineSkybox,
			pipeline.WithProgram(p.Skybox),
			pipeline.WithVertexLayouts(model.PositionLayout()),
			pipeline.WithDepthCompare(wgpu.CompareFunctionLessEqual),
			pipeline.WithDepthWriteEnabled(false),
			// the cube is wound for the outside and drawn from within
			pipeline.WithFrontFace(wgpu.FrontFaceCW),
			pipeline.WithCullMode(wgpu.CullModeBack),
		),
		pipeline.NewPipeline(PipelineScreen,
			pipeline.WithProgram(p.Screen),
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithDepthWriteEnabled(false),
		),
		pipeline.NewPipeline(PipelineOverlay,
			pipeline.WithProgram(p.Overlay),
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithDepthWriteEnabled(false),
			pipeline.WithBlendEnabled(true),
			pipeline.WithBlendState(premultipliedBlend),
		),
	}
}

// setLighting writes the per-frame phong uniforms that do not belong to the model.
func setLighting(program shader.ShaderProgram, view, projection mgl32.Mat4, eye mgl32.Vec3) error {
	if err := program.SetMat4(UniformView, view); err != nil {
		return err
	}
	if err := program.SetMat4(UniformProjection, projection); err != nil {
		return err
	}
	if err := program.SetVec3(UniformLightPosition, LightPosition); err != nil {
		return err
	}
	if err := program.SetFloat(UniformAmbientStrength, AmbientStrength); err != nil {
		return err
	}
	if err := program.SetVec3(UniformLightColor, LightColor); err != nil {
		return err
	}
	return program.SetVec3(UniformViewPosition, eye)
}
