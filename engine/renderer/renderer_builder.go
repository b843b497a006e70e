package renderer

import (
	"log/slog"

	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithNativeLogLevel sets the log level of the native wgpu library before the instance is created.
//
// Parameters:
//   - level: the wgpu log level
//
// Returns:
//   - RendererBuilderOption: a function that applies the log level to a renderer
func WithNativeLogLevel(level wgpu.LogLevel) RendererBuilderOption {
	return func(r *renderer) {
		r.nativeLogLevel = &level
	}
}

// WithPipelineCacheSize sets how many pipeline variants are kept alive before the least recently used is released.
//
// Parameters:
//   - size: the maximum number of cached variants, values below 1 are ignored
//
// Returns:
//   - RendererBuilderOption: a function that applies the cache size to a renderer
func WithPipelineCacheSize(size int) RendererBuilderOption {
	return func(r *renderer) {
		if size > 0 {
			r.pipelineCacheSize = size
		}
	}
}

// WithLogger sets the logger used for device and pipeline diagnostics.
//
// Parameters:
//   - logger: the structured logger
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger to a renderer
func WithLogger(logger *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
