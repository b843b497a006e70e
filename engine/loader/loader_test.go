package loader

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-msaa/engine/model"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var (
	triPositions = [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	triNormals   = [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	triUVs       = [][2]float32{{0, 0}, {1, 0}, {0, 1}}
	triIndices   = []uint32{0, 1, 2}
)

// fixture describes a single-primitive document.
type fixture struct {
	positions [][3]float32
	normals   [][3]float32
	uvs       [][2]float32
	indices   []uint32
	noMesh    bool
}

func (f fixture) document() *gltf.Document {
	doc := gltf.NewDocument()
	if f.noMesh {
		return doc
	}

	attrs := map[string]int{}
	if f.positions != nil {
		attrs[gltf.POSITION] = modeler.WritePosition(doc, f.positions)
	}
	if f.normals != nil {
		attrs[gltf.NORMAL] = modeler.WriteNormal(doc, f.normals)
	}
	if f.uvs != nil {
		attrs[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, f.uvs)
	}

	prim := &gltf.Primitive{Attributes: attrs}
	if f.indices != nil {
		prim.Indices = gltf.Index(modeler.WriteIndices(doc, f.indices))
	}
	doc.Meshes = []*gltf.Mesh{{Name: "fixture", Primitives: []*gltf.Primitive{prim}}}
	return doc
}

func (f fixture) write(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.glb")
	if err := gltf.SaveBinary(f.document(), path); err != nil {
		t.Fatalf("SaveBinary() error = %v", err)
	}
	return path
}

func TestLoadGLB(t *testing.T) {
	path := fixture{positions: triPositions, normals: triNormals, uvs: triUVs, indices: triIndices}.write(t)

	mesh, err := LoadGLB(path)
	if err != nil {
		t.Fatalf("LoadGLB() error = %v", err)
	}
	if mesh.Name != "fixture" {
		t.Errorf("Name = %q, want %q", mesh.Name, "fixture")
	}
	if len(mesh.Vertices) != 3 {
		t.Fatalf("len(Vertices) = %d, want 3", len(mesh.Vertices))
	}
	for i, v := range mesh.Vertices {
		if v.Position != triPositions[i] || v.Normal != triNormals[i] || v.TexCoord != triUVs[i] {
			t.Errorf("Vertices[%d] = %+v, want position %v normal %v uv %v", i, v, triPositions[i], triNormals[i], triUVs[i])
		}
	}
	for i, idx := range mesh.Indices {
		if idx != triIndices[i] {
			t.Errorf("Indices[%d] = %d, want %d", i, idx, triIndices[i])
		}
	}
}

func TestLoadGLBDefaults(t *testing.T) {
	path := fixture{positions: triPositions, indices: triIndices}.write(t)

	mesh, err := LoadGLB(path)
	if err != nil {
		t.Fatalf("LoadGLB() error = %v", err)
	}
	for i, v := range mesh.Vertices {
		if v.Normal != [3]float32{0, 1, 0} {
			t.Errorf("Vertices[%d].Normal = %v, want [0 1 0]", i, v.Normal)
		}
		if v.TexCoord != [2]float32{0, 0} {
			t.Errorf("Vertices[%d].TexCoord = %v, want [0 0]", i, v.TexCoord)
		}
	}
}

func TestLoadGLBErrors(t *testing.T) {
	tests := []struct {
		name    string
		fixture fixture
		wantErr error
	}{
		{"missing position", fixture{normals: triNormals, indices: triIndices}, ErrMissingPosition},
		{"missing indices", fixture{positions: triPositions}, ErrMissingIndices},
		{"no mesh", fixture{noMesh: true}, ErrNoMesh},
		{"normal count mismatch", fixture{positions: triPositions, normals: triNormals[:2], indices: triIndices}, nil},
		{"uv count mismatch", fixture{positions: triPositions, uvs: triUVs[:1], indices: triIndices}, nil},
		{"index out of range", fixture{positions: triPositions, indices: []uint32{0, 1, 5}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadGLB(tt.fixture.write(t))
			if err == nil {
				t.Fatalf("LoadGLB() error = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadGLB() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadGLBMissingFile(t *testing.T) {
	if _, err := LoadGLB(filepath.Join(t.TempDir(), "absent.glb")); err == nil {
		t.Errorf("LoadGLB(missing) error = nil, want error")
	}
}

func TestLoaderCache(t *testing.T) {
	path := fixture{positions: triPositions, indices: triIndices}.write(t)
	l := NewLoader(BackendTypeGLTF)

	first, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cached, ok := l.Get(path)
	if !ok || len(cached.Vertices) != len(first.Vertices) {
		t.Errorf("Get() = %v, %v, want cached mesh", cached, ok)
	}
	if got := len(l.Meshes()); got != 1 {
		t.Errorf("len(Meshes()) = %d, want 1", got)
	}

	preset := model.Mesh{Name: "preset"}
	l = NewLoader(BackendTypeGLTF, WithMesh("scene.glb", preset))
	got, err := l.Load("scene.glb")
	if err != nil || got.Name != "preset" {
		t.Errorf("Load(preset) = %v, %v, want preset mesh", got.Name, err)
	}
}

func TestLoaderUnsupportedFormat(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)
	if _, err := l.Load("model.obj"); err == nil {
		t.Errorf("Load(.obj) error = nil, want error")
	}
}

func TestLoaderLoadReader(t *testing.T) {
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(fixture{positions: triPositions, indices: triIndices}.document()); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	l := NewLoader(BackendTypeGLTF)
	mesh, err := l.LoadReader("memory", &buf)
	if err != nil {
		t.Fatalf("LoadReader() error = %v", err)
	}
	if len(mesh.Indices) != 3 {
		t.Errorf("len(Indices) = %d, want 3", len(mesh.Indices))
	}
	if _, ok := l.Get("memory"); !ok {
		t.Errorf("Get(memory) ok = false, want true")
	}
}
