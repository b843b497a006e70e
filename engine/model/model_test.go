package model

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	testVertexSource   = "@vertex fn vs_main(@location(0) p: vec3<f32>) -> @builtin(position) vec4<f32> { return vec4<f32>(p, 1.0); }"
	testFragmentSource = "@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }"
)

// recordingRenderer records calls without touching a GPU.
type recordingRenderer struct {
	meshVertices int
	meshIndices  int
	groups       []int
	uploads      int
	draws        []string
	failGroup    bool
}

func (r *recordingRenderer) InitMeshBuffers(_ bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int, indexData []byte, indexCount int) error {
	if len(vertexData) != vertexCount*VertexSize || len(indexData) != indexCount*4 {
		return errors.New("byte length mismatch")
	}
	r.meshVertices = vertexCount
	r.meshIndices = indexCount
	return nil
}

func (r *recordingRenderer) InitBindGroup(_ bind_group_provider.BindGroupProvider, _ shader.ShaderProgram, group int) error {
	if r.failGroup {
		return errors.New("bind group failed")
	}
	r.groups = append(r.groups, group)
	return nil
}

func (r *recordingRenderer) WriteUniforms(_ bind_group_provider.BindGroupProvider, program shader.ShaderProgram) error {
	r.uploads++
	program.ClearDirty()
	return nil
}

func (r *recordingRenderer) DrawCall(pipelineKey string, _ bind_group_provider.BindGroupProvider) error {
	r.draws = append(r.draws, pipelineKey)
	return nil
}

func triangle() Mesh {
	return Mesh{
		Name: "triangle",
		Vertices: []Vertex{
			{Position: [3]float32{0, 0, 0}, Normal: [3]float32{0, 0, 1}},
			{Position: [3]float32{1, 0, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{1, 0}},
			{Position: [3]float32{0, 1, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{0, 1}},
		},
		Indices: []uint32{0, 1, 2},
	}
}

func testProgram(t *testing.T) shader.ShaderProgram {
	t.Helper()
	p, err := shader.NewShaderProgramFromSource("phong", testVertexSource, testFragmentSource,
		shader.WithUniformBlock(
			shader.UniformField{Name: UniformModel, Type: shader.UniformMat4},
			shader.UniformField{Name: UniformNormalMatrix, Type: shader.UniformMat4},
		),
	)
	if err != nil {
		t.Fatalf("NewShaderProgramFromSource() error = %v", err)
	}
	return p
}

func TestVertexMarshal(t *testing.T) {
	v := Vertex{Position: [3]float32{1, 2, 3}, Normal: [3]float32{4, 5, 6}, TexCoord: [2]float32{7, 8}}
	if v.Size() != VertexSize {
		t.Errorf("Size() = %d, want %d", v.Size(), VertexSize)
	}

	buf := v.Marshal()
	for i, want := range []float32{1, 2, 3, 4, 5, 6, 7, 8} {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
		if got != want {
			t.Errorf("Marshal() float %d = %v, want %v", i, got, want)
		}
	}
}

func TestVertexLayout(t *testing.T) {
	layout := VertexLayout()
	if layout.ArrayStride != VertexSize {
		t.Errorf("ArrayStride = %d, want %d", layout.ArrayStride, VertexSize)
	}
	wantOffsets := []uint64{0, 12, 24}
	for i, attr := range layout.Attributes {
		if attr.Offset != wantOffsets[i] || attr.ShaderLocation != uint32(i) {
			t.Errorf("attribute %d = offset %d location %d, want offset %d location %d", i, attr.Offset, attr.ShaderLocation, wantOffsets[i], i)
		}
	}
}

func TestMeshBytes(t *testing.T) {
	m := triangle()
	if got := len(m.VertexBytes()); got != 3*VertexSize {
		t.Errorf("len(VertexBytes()) = %d, want %d", got, 3*VertexSize)
	}
	idx := m.IndexBytes()
	for i, want := range m.Indices {
		if got := binary.LittleEndian.Uint32(idx[4*i:]); got != want {
			t.Errorf("IndexBytes()[%d] = %d, want %d", i, got, want)
		}
	}
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name  string
		opts  []ModelBuilderOption
		steps []float64
		want  float32
	}{
		{"default speed", nil, []float64{1, 1}, 1.0},
		{"custom speed", []ModelBuilderOption{WithRotationSpeed(2)}, []float64{0.25}, 0.5},
		{"starting angle", []ModelBuilderOption{WithAngle(1)}, []float64{0}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel("m", triangle(), tt.opts...)
			for _, dt := range tt.steps {
				m.Advance(dt)
			}
			if got := m.Angle(); math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("Angle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestModelMatrix(t *testing.T) {
	m := NewModel("m", triangle())

	got := m.ModelMatrix().Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	want := mgl32.Vec3{0, -0.1, 0}
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("ModelMatrix() * x = %v, want %v", got, want)
	}

	m.Advance(1.3)
	n := m.NormalMatrix().Mul4(m.ModelMatrix().Transpose())
	if !n.ApproxEqualThreshold(mgl32.Ident4(), 1e-4) {
		t.Errorf("NormalMatrix() * ModelMatrix()^T = %v, want identity", n)
	}
}

func TestDrawBeforeInit(t *testing.T) {
	m := NewModel("m", triangle())
	if err := m.Draw(&recordingRenderer{}, "phong"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Draw() error = %v, want %v", err, ErrNotInitialized)
	}
}

func TestInitAndDraw(t *testing.T) {
	r := &recordingRenderer{}
	program := testProgram(t)
	m := NewModel("m", triangle())

	if err := m.Init(r, program); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if r.meshVertices != 3 || r.meshIndices != 3 {
		t.Errorf("InitMeshBuffers() counts = %d, %d, want 3, 3", r.meshVertices, r.meshIndices)
	}
	if len(r.groups) != 1 || r.groups[0] != 0 {
		t.Errorf("InitBindGroup() groups = %v, want [0]", r.groups)
	}
	if m.Provider() == nil {
		t.Fatalf("Provider() = nil after Init")
	}

	if err := m.Draw(r, "phong@msaa"); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if r.uploads != 1 || len(r.draws) != 1 || r.draws[0] != "phong@msaa" {
		t.Errorf("Draw() uploads = %d draws = %v, want 1 [phong@msaa]", r.uploads, r.draws)
	}

	want := m.ModelMatrix()
	data := program.UniformBytes()
	for i := 0; i < 16; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
		if got != want[i] {
			t.Errorf("uniform model[%d] = %v, want %v", i, got, want[i])
		}
	}

	m.Release()
	if m.Provider() != nil {
		t.Errorf("Provider() != nil after Release")
	}
}

func TestInitErrors(t *testing.T) {
	program := testProgram(t)

	empty := NewModel("empty", Mesh{})
	if err := empty.Init(&recordingRenderer{}, program); err == nil {
		t.Errorf("Init(empty mesh) error = nil, want error")
	}

	failing := NewModel("failing", triangle())
	if err := failing.Init(&recordingRenderer{failGroup: true}, program); err == nil {
		t.Errorf("Init(failing bind group) error = nil, want error")
	}
	if failing.Provider() != nil {
		t.Errorf("Provider() != nil after failed Init")
	}
}
