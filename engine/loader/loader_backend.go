package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-msaa/engine/model"
)

// loaderBackend defines the generic interface for loading meshes from files or streams.
// Concrete implementations (e.g., gltfLoaderBackendImpl) handle format-specific details.
type loaderBackend interface {
	// Load imports the first primitive of the first mesh from the given file path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - model.Mesh: the interleaved mesh
	//   - error: error if loading fails
	Load(path string) (model.Mesh, error)

	// LoadReader imports a mesh from a reader stream holding a self-contained document.
	//
	// Parameters:
	//   - r: the reader providing model data
	//
	// Returns:
	//   - model.Mesh: the interleaved mesh
	//   - error: error if loading fails
	LoadReader(r io.Reader) (model.Mesh, error)
}
