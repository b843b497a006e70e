package skybox

import "github.com/Carmen-Shannon/oxy-msaa/common"

// SkyboxBuilderOption is a functional option for configuring a Skybox via NewSkybox.
type SkyboxBuilderOption func(*skybox)

// WithSampler overrides the default linear clamp-to-edge cube sampler.
//
// Parameters:
//   - sampler: the sampler settings, unset fields use the renderer defaults
//
// Returns:
//   - SkyboxBuilderOption: a function that applies the sampler option to a skybox
func WithSampler(sampler common.SamplerStagingData) SkyboxBuilderOption {
	return func(s *skybox) {
		s.sampler = sampler
	}
}
