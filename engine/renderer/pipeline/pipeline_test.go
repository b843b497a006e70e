package pipeline

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const testSource = `
@vertex
fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
}
`

func newProgram(t *testing.T, compiled bool) shader.ShaderProgram {
	t.Helper()
	p, err := shader.NewShaderProgramFromSource("test", testSource, testSource)
	if err != nil {
		t.Fatalf("NewShaderProgramFromSource() error = %v", err)
	}
	if compiled {
		// handles are never dereferenced by Descriptor
		p.SetCompiled(&wgpu.ShaderModule{}, &wgpu.ShaderModule{}, nil, &wgpu.PipelineLayout{})
	}
	return p
}

var msaaTarget = Target{
	SampleCount: 4,
	ColorFormat: wgpu.TextureFormatRGBA8Unorm,
	DepthFormat: wgpu.TextureFormatDepth24PlusStencil8,
}

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("phong")

	if !p.DepthTestEnabled() || !p.DepthWriteEnabled() {
		t.Errorf("depth test/write = %v/%v, want true/true", p.DepthTestEnabled(), p.DepthWriteEnabled())
	}
	if p.DepthCompare() != wgpu.CompareFunctionLess {
		t.Errorf("DepthCompare() = %v, want %v", p.DepthCompare(), wgpu.CompareFunctionLess)
	}
	if p.BlendEnabled() {
		t.Errorf("BlendEnabled() = true, want false")
	}
	if p.CullMode() != wgpu.CullModeNone || p.FrontFace() != wgpu.FrontFaceCCW {
		t.Errorf("CullMode()/FrontFace() = %v/%v, want %v/%v", p.CullMode(), p.FrontFace(), wgpu.CullModeNone, wgpu.FrontFaceCCW)
	}
	if p.Program() != nil {
		t.Errorf("Program() = %v, want nil", p.Program())
	}
}

func TestDescriptorErrors(t *testing.T) {
	if _, err := NewPipeline("empty").Descriptor(msaaTarget); err == nil {
		t.Errorf("Descriptor() without program error = nil, want error")
	}

	p := NewPipeline("phong", WithProgram(newProgram(t, false)))
	if _, err := p.Descriptor(msaaTarget); !errors.Is(err, shader.ErrProgramNotCompiled) {
		t.Errorf("Descriptor() error = %v, want %v", err, shader.ErrProgramNotCompiled)
	}
}

func TestDescriptor(t *testing.T) {
	layout := wgpu.VertexBufferLayout{
		ArrayStride: 32,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		},
	}
	p := NewPipeline("skybox",
		WithProgram(newProgram(t, true)),
		WithVertexLayouts(layout),
		WithDepthWriteEnabled(false),
		WithDepthCompare(wgpu.CompareFunctionLessEqual),
	)

	desc, err := p.Descriptor(msaaTarget)
	if err != nil {
		t.Fatalf("Descriptor() error = %v", err)
	}
	if desc.Multisample.Count != 4 {
		t.Errorf("Multisample.Count = %d, want 4", desc.Multisample.Count)
	}
	if desc.Vertex.EntryPoint != "vs_main" || desc.Fragment.EntryPoint != "fs_main" {
		t.Errorf("entry points = %q/%q, want vs_main/fs_main", desc.Vertex.EntryPoint, desc.Fragment.EntryPoint)
	}
	if len(desc.Vertex.Buffers) != 1 || desc.Vertex.Buffers[0].ArrayStride != 32 {
		t.Errorf("Vertex.Buffers = %+v, want one layout of stride 32", desc.Vertex.Buffers)
	}
	if desc.DepthStencil == nil {
		t.Fatalf("DepthStencil = nil, want state")
	}
	if desc.DepthStencil.DepthCompare != wgpu.CompareFunctionLessEqual || desc.DepthStencil.DepthWriteEnabled {
		t.Errorf("DepthStencil = %+v, want LessEqual without writes", desc.DepthStencil)
	}
	if desc.Fragment.Targets[0].Blend != nil {
		t.Errorf("Targets[0].Blend = %+v, want nil", desc.Fragment.Targets[0].Blend)
	}
}

func TestDescriptorSurfaceTarget(t *testing.T) {
	p := NewPipeline("overlay",
		WithProgram(newProgram(t, true)),
		WithDepthTestEnabled(false),
		WithBlendEnabled(true),
	)

	desc, err := p.Descriptor(Target{ColorFormat: wgpu.TextureFormatBGRA8Unorm})
	if err != nil {
		t.Fatalf("Descriptor() error = %v", err)
	}
	if desc.Multisample.Count != 1 {
		t.Errorf("Multisample.Count = %d, want 1", desc.Multisample.Count)
	}
	if desc.DepthStencil != nil {
		t.Errorf("DepthStencil = %+v, want nil without a depth attachment", desc.DepthStencil)
	}
	if desc.Fragment.Targets[0].Format != wgpu.TextureFormatBGRA8Unorm {
		t.Errorf("Targets[0].Format = %v, want %v", desc.Fragment.Targets[0].Format, wgpu.TextureFormatBGRA8Unorm)
	}
	if desc.Fragment.Targets[0].Blend == nil {
		t.Errorf("Targets[0].Blend = nil, want alpha blending")
	}
}

func TestVariantKey(t *testing.T) {
	p := NewPipeline("phong")

	keys := map[string]bool{}
	for _, n := range []uint32{1, 2, 4, 8} {
		target := msaaTarget
		target.SampleCount = n
		keys[p.VariantKey(target)] = true
	}
	if len(keys) != 4 {
		t.Errorf("distinct VariantKey() = %d, want 4", len(keys))
	}
	if p.VariantKey(msaaTarget) != p.VariantKey(msaaTarget) {
		t.Errorf("VariantKey() is not stable")
	}
}

func TestDescriptorPrimitive(t *testing.T) {
	tests := []struct {
		name          string
		options       []PipelineBuilderOption
		wantCull      wgpu.CullMode
		wantFrontFace wgpu.FrontFace
	}{
		{"defaults", nil, wgpu.CullModeNone, wgpu.FrontFaceCCW},
		{"back faces", []PipelineBuilderOption{WithCullMode(wgpu.CullModeBack)}, wgpu.CullModeBack, wgpu.FrontFaceCCW},
		{"viewed from inside", []PipelineBuilderOption{WithCullMode(wgpu.CullModeBack), WithFrontFace(wgpu.FrontFaceCW)}, wgpu.CullModeBack, wgpu.FrontFaceCW},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline("mesh", append([]PipelineBuilderOption{WithProgram(newProgram(t, true))}, tt.options...)...)

			desc, err := p.Descriptor(msaaTarget)
			if err != nil {
				t.Fatalf("Descriptor() error = %v", err)
			}
			if desc.Primitive.CullMode != tt.wantCull {
				t.Errorf("Primitive.CullMode = %v, want %v", desc.Primitive.CullMode, tt.wantCull)
			}
			if desc.Primitive.FrontFace != tt.wantFrontFace {
				t.Errorf("Primitive.FrontFace = %v, want %v", desc.Primitive.FrontFace, tt.wantFrontFace)
			}
			if desc.Primitive.Topology != wgpu.PrimitiveTopologyTriangleList {
				t.Errorf("Primitive.Topology = %v, want %v", desc.Primitive.Topology, wgpu.PrimitiveTopologyTriangleList)
			}
			if desc.Fragment.Targets[0].WriteMask != wgpu.ColorWriteMaskAll {
				t.Errorf("Targets[0].WriteMask = %v, want %v", desc.Fragment.Targets[0].WriteMask, wgpu.ColorWriteMaskAll)
			}
		})
	}
}
