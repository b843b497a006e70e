package model

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
)

// VertexSize is the byte size of one interleaved Vertex.
const VertexSize = 32

// Vertex is the GPU-aligned representation of a single mesh vertex.
// Matches the WGSL VertexInput struct of the phong shader: location 0 position, 1 normal, 2 uv.
// Size: 32 bytes, no padding.
type Vertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal for lighting (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
}

// Size returns the size of the Vertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (v *Vertex) Size() int {
	return int(unsafe.Sizeof(*v))
}

// Marshal serializes the Vertex into a little-endian byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (v *Vertex) Marshal() []byte {
	buf := make([]byte, VertexSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v.Normal[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(v.Normal[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(v.Normal[2]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(v.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(v.TexCoord[1]))
	return buf
}

// VertexLayout describes the interleaved Vertex to a render pipeline.
//
// Returns:
//   - wgpu.VertexBufferLayout: a per-vertex layout with position, normal and uv attributes
func VertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: VertexSize,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
		},
	}
}

// PositionLayout describes a tightly packed vec3<f32> position stream at location 0.
//
// Returns:
//   - wgpu.VertexBufferLayout: a per-vertex layout with a single position attribute
func PositionLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 12,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		},
	}
}
