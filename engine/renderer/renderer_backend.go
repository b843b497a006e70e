package renderer

import "errors"

var (
	// ErrNoActivePass is returned by draw calls issued outside BeginOffscreenPass/BeginSurfacePass and EndPass.
	ErrNoActivePass = errors.New("no active render pass")

	// ErrPassOpen is returned when a pass is begun or a frame submitted while another pass is still recording.
	ErrPassOpen = errors.New("render pass already open")

	// ErrNoSurfaceFrame is returned when the surface pass is begun before BeginFrame acquired a surface texture.
	ErrNoSurfaceFrame = errors.New("no surface texture acquired")
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// AdapterInfo describes the GPU adapter the device was created on.
type AdapterInfo struct {
	Name        string
	Driver      string
	Backend     string
	AdapterType string
}

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}
