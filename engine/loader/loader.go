package loader

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-msaa/engine/model"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	logger *slog.Logger

	meshCache map[string]model.Mesh

	backend loaderBackend
}

// Loader defines the public-facing interface for loading and caching meshes.
// It abstracts the file format behind a backend and keeps every loaded mesh keyed by path or name.
type Loader interface {
	// Load imports a model file and caches the result.
	// If the mesh is already cached (by file path), the cached version is returned.
	// The backend is selected based on the file extension (.gltf/.glb → glTF backend).
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - model.Mesh: the loaded and cached mesh
	//   - error: error if loading fails
	Load(path string) (model.Mesh, error)

	// LoadReader imports a mesh from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded mesh
	//   - r: the reader providing model data
	//
	// Returns:
	//   - model.Mesh: the loaded mesh
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (model.Mesh, error)

	// Get retrieves a cached mesh by name.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - model.Mesh: the cached mesh
	//   - bool: false if no mesh is cached under name
	Get(name string) (model.Mesh, bool)

	// Meshes returns a copy of the mesh cache.
	//
	// Returns:
	//   - map[string]model.Mesh: all cached meshes keyed by name
	Meshes() map[string]model.Mesh
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:        sync.RWMutex{},
		logger:    slog.Default(),
		meshCache: make(map[string]model.Mesh),
	}

	switch backendType {
	case BackendTypeGLTF:
		fallthrough
	default:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (model.Mesh, error) {
	if cached, ok := l.Get(path); ok {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return model.Mesh{}, err
	}

	mesh, err := backend.Load(path)
	if err != nil {
		return model.Mesh{}, fmt.Errorf("failed to load %s: %w", path, err)
	}

	l.store(path, mesh)
	l.logger.Info("GLB loaded: "+path, "vertices", len(mesh.Vertices), "indices", len(mesh.Indices))

	return mesh, nil
}

func (l *loader) LoadReader(name string, r io.Reader) (model.Mesh, error) {
	if cached, ok := l.Get(name); ok {
		return cached, nil
	}

	mesh, err := l.backend.LoadReader(r)
	if err != nil {
		return model.Mesh{}, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}

	l.store(name, mesh)

	return mesh, nil
}

func (l *loader) Get(name string) (model.Mesh, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.meshCache[name]
	return m, ok
}

func (l *loader) Meshes() map[string]model.Mesh {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]model.Mesh, len(l.meshCache))
	for k, v := range l.meshCache {
		result[k] = v
	}
	return result
}

func (l *loader) store(name string, mesh model.Mesh) {
	l.mu.Lock()
	l.meshCache[name] = mesh
	l.mu.Unlock()
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("unsupported model format: %s", ext)
	}
}
