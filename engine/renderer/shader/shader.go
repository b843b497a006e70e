package shader

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader source provides.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	if t == ShaderTypeFragment {
		return "fragment"
	}
	return "vertex"
}

func (t ShaderType) attribute() string {
	if t == ShaderTypeFragment {
		return "@fragment"
	}
	return "@vertex"
}

var entryPointPattern = regexp.MustCompile(`@(vertex|fragment)\s+fn\s+([A-Za-z_][A-Za-z0-9_]*)`)

// shader is the implementation of the Shader interface.
type shader struct {
	key        string
	path       string
	source     string
	shaderType ShaderType
	entryPoint string
}

// Shader defines the interface for one loaded WGSL stage.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for labels and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Path returns the file the source was read from, empty for in-memory sources.
	Path() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// EntryPoint returns the name of the function carrying the stage attribute.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// ShaderType returns the stage of the shader.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// Module returns the wgpu.ShaderModuleDescriptor for creating the GPU module.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader reads a WGSL file and locates the entry point for the requested stage.
//
// Parameters:
//   - key: the unique identifier for the shader
//   - shaderType: the stage the file provides
//   - path: the WGSL file path
//
// Returns:
//   - Shader: the loaded shader
//   - error: an error if the file cannot be read, is empty, or has no entry point for the stage
func NewShader(key string, shaderType ShaderType, path string) (Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s shader error: %w", shaderType, err)
	}

	s, err := NewShaderFromSource(key, shaderType, string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.(*shader).path = path

	return s, nil
}

// NewShaderFromSource creates a Shader from in-memory WGSL.
//
// Parameters:
//   - key: the unique identifier for the shader
//   - shaderType: the stage the source provides
//   - source: the WGSL source code
//
// Returns:
//   - Shader: the shader
//   - error: an error if the source is empty or has no entry point for the stage
func NewShaderFromSource(key string, shaderType ShaderType, source string) (Shader, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%s shader error: empty source", shaderType)
	}

	entry := ""
	for _, m := range entryPointPattern.FindAllStringSubmatch(source, -1) {
		if "@"+m[1] == shaderType.attribute() {
			entry = m[2]
			break
		}
	}
	if entry == "" {
		return nil, fmt.Errorf("%s shader error: no %s entry point", shaderType, shaderType.attribute())
	}

	return &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
		entryPoint: entry,
	}, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Path() string {
	return s.path
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
}
