package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraBuilderOption is a functional option used to configure a Camera during construction.
type CameraBuilderOption func(*cameraImpl)

// WithPosition sets the eye position.
//
// Parameters:
//   - position: the eye position in world space
//
// Returns:
//   - CameraBuilderOption: a function that sets the eye position
func WithPosition(position mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = position
	}
}

// WithTarget sets the look-at target.
//
// Parameters:
//   - target: the point the camera looks at
//
// Returns:
//   - CameraBuilderOption: a function that sets the look-at target
func WithTarget(target mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.target = target
	}
}

// WithUp sets the camera's up vector.
func WithUp(up mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = up
	}
}

// WithFovDegrees sets the vertical field of view in degrees.
//
// Parameters:
//   - fov: the vertical field of view in degrees
//
// Returns:
//   - CameraBuilderOption: a function that sets the field of view
func WithFovDegrees(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fovDegrees = fov
	}
}

// WithClipPlanes sets the near and far clipping plane distances.
//
// Parameters:
//   - near: the near plane distance, must be > 0
//   - far: the far plane distance, must be > near
//
// Returns:
//   - CameraBuilderOption: a function that sets both clipping planes
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
		c.far = far
	}
}
