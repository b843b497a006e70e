package loader

import (
	"errors"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-msaa/engine/model"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var (
	// ErrMissingPosition is returned when the primitive has no POSITION attribute.
	ErrMissingPosition = errors.New("primitive has no POSITION attribute")

	// ErrMissingIndices is returned when the primitive is not indexed.
	ErrMissingIndices = errors.New("primitive has no indices")

	// ErrNoMesh is returned when the document contains no mesh primitive.
	ErrNoMesh = errors.New("document has no mesh primitive")

	// ErrUnsupportedPrimitive is returned for primitives that are not triangle lists.
	ErrUnsupportedPrimitive = errors.New("primitive is not a triangle list")
)

// gltfLoaderBackendImpl is the loaderBackend implementation for glTF/GLB files.
type gltfLoaderBackendImpl struct{}

var _ loaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Returns:
//   - loaderBackend: the loader backend for glTF/GLB files
func newGLTFLoaderBackend() loaderBackend {
	return &gltfLoaderBackendImpl{}
}

func (b *gltfLoaderBackendImpl) Load(path string) (model.Mesh, error) {
	return LoadGLB(path)
}

func (b *gltfLoaderBackendImpl) LoadReader(r io.Reader) (model.Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return model.Mesh{}, fmt.Errorf("decode gltf: %w", err)
	}
	return meshFromDocument(doc)
}

// LoadGLB parses a binary glTF file and returns the first primitive of its first mesh.
//
// POSITION and indices are required. NORMAL defaults to (0,1,0) and TEXCOORD_0 to (0,0).
//
// Parameters:
//   - path: the .glb (or .gltf) file path
//
// Returns:
//   - model.Mesh: the interleaved mesh
//   - error: ErrMissingPosition, ErrMissingIndices, ErrNoMesh or a read error
func LoadGLB(path string) (model.Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return model.Mesh{}, fmt.Errorf("open glb: %w", err)
	}
	return meshFromDocument(doc)
}

// meshFromDocument extracts the first primitive of the first mesh as an interleaved Mesh.
func meshFromDocument(doc *gltf.Document) (model.Mesh, error) {
	if len(doc.Meshes) == 0 || len(doc.Meshes[0].Primitives) == 0 {
		return model.Mesh{}, ErrNoMesh
	}
	mesh := doc.Meshes[0]
	prim := mesh.Primitives[0]

	if prim.Mode != gltf.PrimitiveTriangles {
		return model.Mesh{}, ErrUnsupportedPrimitive
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return model.Mesh{}, ErrMissingPosition
	}
	if prim.Indices == nil {
		return model.Mesh{}, ErrMissingIndices
	}

	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return model.Mesh{}, fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
		if err != nil {
			return model.Mesh{}, fmt.Errorf("read normals: %w", err)
		}
		if len(normals) != len(positions) {
			return model.Mesh{}, fmt.Errorf("NORMAL has %d elements, POSITION has %d", len(normals), len(positions))
		}
	}

	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
		if err != nil {
			return model.Mesh{}, fmt.Errorf("read texcoords: %w", err)
		}
		if len(uvs) != len(positions) {
			return model.Mesh{}, fmt.Errorf("TEXCOORD_0 has %d elements, POSITION has %d", len(uvs), len(positions))
		}
	}

	indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
	if err != nil {
		return model.Mesh{}, fmt.Errorf("read indices: %w", err)
	}
	if len(indices) == 0 {
		return model.Mesh{}, ErrMissingIndices
	}
	for _, i := range indices {
		if int(i) >= len(positions) {
			return model.Mesh{}, fmt.Errorf("index %d out of range for %d vertices", i, len(positions))
		}
	}

	vertices := make([]model.Vertex, len(positions))
	for i, p := range positions {
		vertices[i].Position = p
		vertices[i].Normal = [3]float32{0, 1, 0}
		if normals != nil {
			vertices[i].Normal = normals[i]
		}
		if uvs != nil {
			vertices[i].TexCoord = uvs[i]
		}
	}

	return model.Mesh{
		Name:     mesh.Name,
		Vertices: vertices,
		Indices:  indices,
	}, nil
}
