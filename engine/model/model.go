package model

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// UniformModel is the uniform block field receiving ModelMatrix.
	UniformModel = "model"

	// UniformNormalMatrix is the uniform block field receiving NormalMatrix.
	UniformNormalMatrix = "normal_matrix"

	defaultRotationSpeed = 0.5
	defaultScale         = 0.1
)

// ErrNotInitialized is returned by Draw before Init succeeded.
var ErrNotInitialized = errors.New("model not initialized")

// MeshRenderer is the part of the renderer a Model uploads and draws through.
type MeshRenderer interface {
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int, indexData []byte, indexCount int) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, program shader.ShaderProgram, group int) error
	WriteUniforms(provider bind_group_provider.BindGroupProvider, program shader.ShaderProgram) error
	DrawCall(pipelineKey string, provider bind_group_provider.BindGroupProvider) error
}

// model is the implementation of the Model interface.
type model struct {
	key           string
	mesh          Mesh
	provider      bind_group_provider.BindGroupProvider
	program       shader.ShaderProgram
	angle         float32
	rotationSpeed float32
	scale         float32
}

// Model is a GPU-ready mesh that turns about its own axis over time.
//
// The model matrix is a fixed orientation (-90° about X, then 90° about Y), followed by the
// animated rotation about X and a uniform scale.
type Model interface {
	// Key returns the model identifier.
	Key() string

	// Mesh returns the CPU-side geometry the model was created from.
	Mesh() Mesh

	// Provider returns the BindGroupProvider holding the model's GPU buffers and bind groups.
	Provider() bind_group_provider.BindGroupProvider

	// Angle returns the current animated rotation in radians.
	Angle() float32

	// Init uploads the vertex and index buffers and creates the bind groups of the program.
	//
	// Parameters:
	//   - r: the renderer to upload through
	//   - program: the compiled program the model is drawn with
	//
	// Returns:
	//   - error: an error if the mesh is empty or a GPU resource could not be created
	Init(r MeshRenderer, program shader.ShaderProgram) error

	// Advance moves the animated rotation forward.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Advance(dt float64)

	// ModelMatrix returns the model-to-world transform for the current angle.
	ModelMatrix() mgl32.Mat4

	// NormalMatrix returns the inverse-transpose of ModelMatrix.
	NormalMatrix() mgl32.Mat4

	// Draw writes the model and normal matrices into the program's uniforms, uploads them and draws.
	// The caller sets the remaining uniforms (camera, light) before drawing.
	//
	// Parameters:
	//   - r: the renderer with an open pass
	//   - pipelineKey: the key of the registered pipeline to draw with
	//
	// Returns:
	//   - error: ErrNotInitialized before Init, or the renderer's error
	Draw(r MeshRenderer, pipelineKey string) error

	// Release frees the GPU buffers and bind groups.
	Release()
}

var _ Model = &model{}

// NewModel creates a new Model over a mesh. GPU resources are created by Init.
//
// Parameters:
//   - key: the model identifier, also used as the GPU resource label
//   - mesh: the geometry to draw
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(key string, mesh Mesh, options ...ModelBuilderOption) Model {
	m := &model{
		key:           key,
		mesh:          mesh,
		rotationSpeed: defaultRotationSpeed,
		scale:         defaultScale,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Key() string {
	return m.key
}

func (m *model) Mesh() Mesh {
	return m.mesh
}

func (m *model) Provider() bind_group_provider.BindGroupProvider {
	return m.provider
}

func (m *model) Angle() float32 {
	return m.angle
}

func (m *model) Init(r MeshRenderer, program shader.ShaderProgram) error {
	if len(m.mesh.Vertices) == 0 || len(m.mesh.Indices) == 0 {
		return fmt.Errorf("model %s: empty mesh", m.key)
	}

	provider := bind_group_provider.NewBindGroupProvider(m.key)
	if err := r.InitMeshBuffers(provider, m.mesh.VertexBytes(), len(m.mesh.Vertices), m.mesh.IndexBytes(), len(m.mesh.Indices)); err != nil {
		provider.Release()
		return fmt.Errorf("model %s: %w", m.key, err)
	}
	for _, g := range program.Groups() {
		if err := r.InitBindGroup(provider, program, g); err != nil {
			provider.Release()
			return fmt.Errorf("model %s: %w", m.key, err)
		}
	}

	if m.provider != nil {
		m.provider.Release()
	}
	m.provider = provider
	m.program = program

	return nil
}

func (m *model) Advance(dt float64) {
	m.angle += float32(dt) * m.rotationSpeed
}

func (m *model) ModelMatrix() mgl32.Mat4 {
	return mgl32.HomogRotate3DX(mgl32.DegToRad(-90)).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(90))).
		Mul4(mgl32.HomogRotate3DX(m.angle)).
		Mul4(mgl32.Scale3D(m.scale, m.scale, m.scale))
}

func (m *model) NormalMatrix() mgl32.Mat4 {
	return m.ModelMatrix().Inv().Transpose()
}

func (m *model) Draw(r MeshRenderer, pipelineKey string) error {
	if m.provider == nil || m.program == nil {
		return fmt.Errorf("%s: %w", m.key, ErrNotInitialized)
	}

	if err := m.program.SetMat4(UniformModel, m.ModelMatrix()); err != nil {
		return err
	}
	if err := m.program.SetMat4(UniformNormalMatrix, m.NormalMatrix()); err != nil {
		return err
	}
	if err := r.WriteUniforms(m.provider, m.program); err != nil {
		return err
	}

	return r.DrawCall(pipelineKey, m.provider)
}

func (m *model) Release() {
	if m.provider != nil {
		m.provider.Release()
		m.provider = nil
	}
	m.program = nil
}
