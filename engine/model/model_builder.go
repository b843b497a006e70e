package model

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithRotationSpeed is an option builder that sets how fast the model turns.
//
// Parameters:
//   - radiansPerSecond: the rotation speed, 0.5 by default
//
// Returns:
//   - ModelBuilderOption: a function that applies the rotation speed option to a model
func WithRotationSpeed(radiansPerSecond float32) ModelBuilderOption {
	return func(m *model) {
		m.rotationSpeed = radiansPerSecond
	}
}

// WithScale is an option builder that sets the uniform scale applied last in the model matrix.
//
// Parameters:
//   - scale: the scale factor, 0.1 by default
//
// Returns:
//   - ModelBuilderOption: a function that applies the scale option to a model
func WithScale(scale float32) ModelBuilderOption {
	return func(m *model) {
		m.scale = scale
	}
}

// WithAngle is an option builder that sets the starting rotation.
//
// Parameters:
//   - radians: the initial angle
//
// Returns:
//   - ModelBuilderOption: a function that applies the angle option to a model
func WithAngle(radians float32) ModelBuilderOption {
	return func(m *model) {
		m.angle = radians
	}
}
