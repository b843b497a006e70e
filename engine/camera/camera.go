package camera

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Default camera placement and lens.
var (
	DefaultPosition = mgl32.Vec3{0, -0.5, 7}
	DefaultTarget   = mgl32.Vec3{0, -0.5, 0}
	DefaultUp       = mgl32.Vec3{0, 1, 0}
)

const (
	// DefaultFovDegrees is the vertical field of view in degrees.
	DefaultFovDegrees float32 = 35
	// DefaultNear is the near clipping plane distance.
	DefaultNear float32 = 0.1
	// DefaultFar is the far clipping plane distance.
	DefaultFar float32 = 100
)

// glToWebGPUDepth remaps clip-space depth from [-w, w] to [0, w].
var glToWebGPUDepth = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

type cameraImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	target   mgl32.Vec3
	up       mgl32.Vec3

	fovDegrees float32
	near       float32
	far        float32

	viewportWidth  int
	viewportHeight int
}

// Camera defines the interface for the demo camera.
// The camera looks from a fixed eye at a fixed target; matrices are derived from the current
// parameters on every call and never cached.
type Camera interface {
	// Position returns the eye position in world space.
	//
	// Returns:
	//   - mgl32.Vec3: the eye position
	Position() mgl32.Vec3

	// Target returns the look-at point in world space.
	//
	// Returns:
	//   - mgl32.Vec3: the look-at target
	Target() mgl32.Vec3

	// Up returns the camera's up vector.
	//
	// Returns:
	//   - mgl32.Vec3: the up vector
	Up() mgl32.Vec3

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height). A zero height yields 1.
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// View computes the world-to-view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	View() mgl32.Mat4

	// Projection computes the perspective projection matrix with WebGPU [0, 1] clip depth.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	Projection() mgl32.Mat4

	// SkyboxView computes the view matrix with its translation removed, so geometry drawn with it
	// stays centred on the eye.
	//
	// Returns:
	//   - mgl32.Mat4: the rotation-only view matrix
	SkyboxView() mgl32.Mat4
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera for a viewport of the given size.
//
// Parameters:
//   - viewportWidth: viewport width in pixels
//   - viewportHeight: viewport height in pixels
//   - options: functional options for overriding the default placement and lens
//
// Returns:
//   - Camera: the newly created Camera
func NewCamera(viewportWidth, viewportHeight int, options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:             &sync.Mutex{},
		position:       DefaultPosition,
		target:         DefaultTarget,
		up:             DefaultUp,
		fovDegrees:     DefaultFovDegrees,
		near:           DefaultNear,
		far:            DefaultFar,
		viewportWidth:  viewportWidth,
		viewportHeight: viewportHeight,
	}

	for _, option := range options {
		option(c)
	}

	return c
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return mgl32.DegToRad(c.fovDegrees)
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect()
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) View() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return mgl32.LookAtV(c.position, c.target, c.up)
}

func (c *cameraImpl) Projection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return glToWebGPUDepth.Mul4(mgl32.Perspective(mgl32.DegToRad(c.fovDegrees), c.aspect(), c.near, c.far))
}

func (c *cameraImpl) SkyboxView() mgl32.Mat4 {
	return c.View().Mat3().Mat4()
}

// aspect must be called with mu held.
func (c *cameraImpl) aspect() float32 {
	if c.viewportHeight <= 0 {
		return 1
	}
	return float32(c.viewportWidth) / float32(c.viewportHeight)
}
