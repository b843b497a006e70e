package model

import "encoding/binary"

// Mesh is the CPU-side geometry of a model: one interleaved vertex array and one triangle index list.
type Mesh struct {
	// Name is the mesh identifier.
	Name string

	// Vertices are the interleaved position, normal and uv vertices.
	Vertices []Vertex

	// Indices are the triangle indices into Vertices.
	Indices []uint32
}

// VertexBytes returns the vertex array as little-endian bytes ready for upload.
//
// Returns:
//   - []byte: len(Vertices) * VertexSize bytes
func (m Mesh) VertexBytes() []byte {
	buf := make([]byte, 0, len(m.Vertices)*VertexSize)
	for i := range m.Vertices {
		buf = append(buf, m.Vertices[i].Marshal()...)
	}
	return buf
}

// IndexBytes returns the index list as little-endian uint32 bytes.
func (m Mesh) IndexBytes() []byte {
	buf := make([]byte, 4*len(m.Indices))
	for i, idx := range m.Indices {
		binary.LittleEndian.PutUint32(buf[4*i:], idx)
	}
	return buf
}
