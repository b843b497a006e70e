package render_target

import (
	"log/slog"
	"slices"
)

// RenderTargetBuilderOption is a functional option used to configure a RenderTarget during construction.
type RenderTargetBuilderOption func(*renderTarget)

// WithLabel sets the debug label prefix for the target's GPU objects.
//
// Parameters:
//   - label: the label prefix
//
// Returns:
//   - RenderTargetBuilderOption: a function that sets the label
func WithLabel(label string) RenderTargetBuilderOption {
	return func(r *renderTarget) {
		r.label = label
	}
}

// WithSampleCount sets the initial sample count. Defaults to MSAA4x.
// Unsupported values are ignored so the target always starts from a valid count.
//
// Parameters:
//   - samples: the initial sample count
//
// Returns:
//   - RenderTargetBuilderOption: a function that sets the sample count
func WithSampleCount(samples SampleCount) RenderTargetBuilderOption {
	return func(r *renderTarget) {
		if samples.Valid() {
			r.sampleCount = samples
		}
	}
}

// WithSupportedSampleCounts limits the sample counts the target accepts to what the device can allocate.
// Invalid counts are dropped. Without this option every valid count is accepted.
//
// Parameters:
//   - counts: the counts the device supports
//
// Returns:
//   - RenderTargetBuilderOption: a function that sets the supported counts
func WithSupportedSampleCounts(counts ...SampleCount) RenderTargetBuilderOption {
	return func(r *renderTarget) {
		var supported []SampleCount
		for _, c := range counts {
			if c.Valid() && !slices.Contains(supported, c) {
				supported = append(supported, c)
			}
		}
		if len(supported) > 0 {
			slices.Sort(supported)
			r.sampleCounts = supported
		}
	}
}

// WithLogger sets the logger used for incompleteness and lifecycle messages. Defaults to slog.Default().
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - RenderTargetBuilderOption: a function that sets the logger
func WithLogger(logger *slog.Logger) RenderTargetBuilderOption {
	return func(r *renderTarget) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRecreateCallback registers a callback run after every successful Recreate.
//
// Parameters:
//   - cb: the callback to register
//
// Returns:
//   - RenderTargetBuilderOption: a function that registers the callback
func WithRecreateCallback(cb RecreateCallback) RenderTargetBuilderOption {
	return func(r *renderTarget) {
		r.onRecreate = append(r.onRecreate, cb)
	}
}
