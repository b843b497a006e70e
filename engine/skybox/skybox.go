// Package skybox draws a cube-mapped environment behind the scene.
package skybox

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-msaa/common"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// UniformView is the uniform block field receiving the translation-free view matrix.
	UniformView = "view"

	// UniformProjection is the uniform block field receiving the projection matrix.
	UniformProjection = "projection"
)

var (
	// TextureSlot is where the cube texture is bound.
	TextureSlot = bind_group_provider.Slot{Group: 0, Binding: 1}

	// SamplerSlot is where the cube sampler is bound.
	SamplerSlot = bind_group_provider.Slot{Group: 0, Binding: 2}
)

// ErrNotInitialized is returned by Draw before Init succeeded.
var ErrNotInitialized = errors.New("skybox not initialized")

// CubeRenderer is the part of the renderer the skybox uploads and draws through.
type CubeRenderer interface {
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int, indexData []byte, indexCount int) error
	InitCubeTexture(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, faces [6]common.TextureStagingData) error
	InitSampler(provider bind_group_provider.BindGroupProvider, slot bind_group_provider.Slot, samplerStagingData common.SamplerStagingData) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, program shader.ShaderProgram, group int) error
	WriteUniforms(provider bind_group_provider.BindGroupProvider, program shader.ShaderProgram) error
	DrawCall(pipelineKey string, provider bind_group_provider.BindGroupProvider) error
}

type skybox struct {
	key      string
	faces    [6]common.TextureStagingData
	sampler  common.SamplerStagingData
	provider bind_group_provider.BindGroupProvider
	program  shader.ShaderProgram
}

// Skybox is a unit cube textured with a cube map and drawn with the camera translation removed.
type Skybox interface {
	// Key returns the skybox identifier.
	Key() string

	// Provider returns the BindGroupProvider holding the cube buffers, texture and bind group.
	Provider() bind_group_provider.BindGroupProvider

	// Init uploads the cube vertices and faces, creates the sampler and the program's bind groups.
	// The CPU copy of the faces is dropped once uploaded.
	//
	// Parameters:
	//   - r: the renderer to upload through
	//   - program: the compiled skybox program
	//
	// Returns:
	//   - error: an error if any GPU resource could not be created
	Init(r CubeRenderer, program shader.ShaderProgram) error

	// Draw uploads the view and projection matrices and draws the cube.
	// The pipeline is expected to test depth with LessEqual and not write depth.
	//
	// Parameters:
	//   - r: the renderer with an open pass
	//   - pipelineKey: the key of the registered skybox pipeline
	//   - view: the camera view matrix with its translation removed
	//   - projection: the camera projection matrix
	//
	// Returns:
	//   - error: ErrNotInitialized before Init, or the renderer's error
	Draw(r CubeRenderer, pipelineKey string, view, projection mgl32.Mat4) error

	// Release frees the GPU resources.
	Release()
}

var _ Skybox = &skybox{}

// NewSkybox creates a Skybox from six decoded faces. GPU resources are created by Init.
//
// Parameters:
//   - key: the skybox identifier, also used as the GPU resource label
//   - faces: the faces in FaceNames order
//   - options: a variadic list of SkyboxBuilderOption functions to configure the Skybox
//
// Returns:
//   - Skybox: the new skybox
func NewSkybox(key string, faces [6]common.TextureStagingData, options ...SkyboxBuilderOption) Skybox {
	s := &skybox{
		key:   key,
		faces: faces,
		sampler: common.SamplerStagingData{
			AddressModeU: wgpu.AddressModeClampToEdge,
			AddressModeV: wgpu.AddressModeClampToEdge,
			AddressModeW: wgpu.AddressModeClampToEdge,
			MagFilter:    wgpu.FilterModeLinear,
			MinFilter:    wgpu.FilterModeLinear,
			LodMaxClamp:  1,
		},
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *skybox) Key() string {
	return s.key
}

func (s *skybox) Provider() bind_group_provider.BindGroupProvider {
	return s.provider
}

func (s *skybox) Init(r CubeRenderer, program shader.ShaderProgram) error {
	provider := bind_group_provider.NewBindGroupProvider(s.key)
	fail := func(err error) error {
		provider.Release()
		return fmt.Errorf("skybox %s: %w", s.key, err)
	}

	if err := r.InitMeshBuffers(provider, CubeVertexBytes(), CubeVertexCount, nil, 0); err != nil {
		return fail(err)
	}
	if err := r.InitCubeTexture(provider, TextureSlot, s.faces); err != nil {
		return fail(err)
	}
	if err := r.InitSampler(provider, SamplerSlot, s.sampler); err != nil {
		return fail(err)
	}
	for _, g := range program.Groups() {
		if err := r.InitBindGroup(provider, program, g); err != nil {
			return fail(err)
		}
	}

	if s.provider != nil {
		s.provider.Release()
	}
	s.provider = provider
	s.program = program
	s.faces = [6]common.TextureStagingData{}

	return nil
}

func (s *skybox) Draw(r CubeRenderer, pipelineKey string, view, projection mgl32.Mat4) error {
	if s.provider == nil || s.program == nil {
		return fmt.Errorf("%s: %w", s.key, ErrNotInitialized)
	}

	if err := s.program.SetMat4(UniformView, view); err != nil {
		return err
	}
	if err := s.program.SetMat4(UniformProjection, projection); err != nil {
		return err
	}
	if err := r.WriteUniforms(s.provider, s.program); err != nil {
		return err
	}

	return r.DrawCall(pipelineKey, s.provider)
}

func (s *skybox) Release() {
	if s.provider != nil {
		s.provider.Release()
		s.provider = nil
	}
	s.program = nil
}
