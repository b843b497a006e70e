package shader

import "github.com/cogentcore/webgpu/wgpu"

// ShaderProgramBuilderOption is a functional option used to configure a ShaderProgram during construction.
type ShaderProgramBuilderOption func(*shaderProgram)

// WithUniformBlock declares the program's uniform block, bound at group 0, binding 0 and visible to both stages.
//
// Parameters:
//   - fields: the block members in declaration order
//
// Returns:
//   - ShaderProgramBuilderOption: a function that sets the uniform block for this program
func WithUniformBlock(fields ...UniformField) ShaderProgramBuilderOption {
	return func(p *shaderProgram) {
		p.uniforms = NewUniformBlock(fields...)
		p.bindings = append(p.bindings, Binding{
			Group:      0,
			Binding:    0,
			Kind:       BindingUniform,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
		})
	}
}

// WithBinding declares one additional resource slot.
//
// Parameters:
//   - group: the bind group index
//   - binding: the binding index inside the group
//   - kind: the resource type
//   - visibility: the stages that access the resource
//
// Returns:
//   - ShaderProgramBuilderOption: a function that adds the binding to this program
func WithBinding(group int, binding uint32, kind BindingKind, visibility wgpu.ShaderStage) ShaderProgramBuilderOption {
	return func(p *shaderProgram) {
		p.bindings = append(p.bindings, Binding{
			Group:      group,
			Binding:    binding,
			Kind:       kind,
			Visibility: visibility,
		})
	}
}
