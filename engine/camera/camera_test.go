package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const epsilon = 1e-4

func TestNewCamera_Defaults(t *testing.T) {
	c := NewCamera(1280, 720)

	if got := c.Position(); !got.ApproxEqual(mgl32.Vec3{0, -0.5, 7}) {
		t.Errorf("Position() = %v, want (0, -0.5, 7)", got)
	}
	if got := c.Target(); !got.ApproxEqual(mgl32.Vec3{0, -0.5, 0}) {
		t.Errorf("Target() = %v, want (0, -0.5, 0)", got)
	}
	if got := c.Fov(); !mgl32.FloatEqualThreshold(got, mgl32.DegToRad(35), epsilon) {
		t.Errorf("Fov() = %v, want 35 degrees", got)
	}
	if c.Near() != 0.1 || c.Far() != 100 {
		t.Errorf("Near(), Far() = %v, %v, want 0.1, 100", c.Near(), c.Far())
	}
	if got := c.Aspect(); !mgl32.FloatEqualThreshold(got, 1280.0/720.0, epsilon) {
		t.Errorf("Aspect() = %v, want %v", got, 1280.0/720.0)
	}
}

func TestCamera_AspectZeroHeight(t *testing.T) {
	c := NewCamera(800, 0)
	if got := c.Aspect(); got != 1 {
		t.Errorf("Aspect() = %v, want 1", got)
	}
}

func TestCamera_ViewMapsEyeToOrigin(t *testing.T) {
	c := NewCamera(1280, 720)
	view := c.View()

	eye := view.Mul4x1(c.Position().Vec4(1))
	if !eye.ApproxEqualThreshold(mgl32.Vec4{0, 0, 0, 1}, epsilon) {
		t.Errorf("View() * eye = %v, want origin", eye)
	}

	target := view.Mul4x1(c.Target().Vec4(1))
	if !target.ApproxEqualThreshold(mgl32.Vec4{0, 0, -7, 1}, epsilon) {
		t.Errorf("View() * target = %v, want (0, 0, -7, 1)", target)
	}
}

func TestCamera_ProjectionDepthRange(t *testing.T) {
	c := NewCamera(1280, 720)
	proj := c.Projection()

	tests := []struct {
		name  string
		viewZ float32
		want  float32
	}{
		{"near plane", -c.Near(), 0},
		{"far plane", -c.Far(), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip := proj.Mul4x1(mgl32.Vec4{0, 0, tt.viewZ, 1})
			if got := clip.Z() / clip.W(); !mgl32.FloatEqualThreshold(got, tt.want, epsilon) {
				t.Errorf("ndc depth = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCamera_SkyboxViewHasNoTranslation(t *testing.T) {
	c := NewCamera(1280, 720, WithPosition(mgl32.Vec3{3, 4, 5}))
	view := c.View()
	sky := c.SkyboxView()

	if got := sky.Col(3); !got.ApproxEqual(mgl32.Vec4{0, 0, 0, 1}) {
		t.Errorf("SkyboxView() translation column = %v, want (0, 0, 0, 1)", got)
	}
	if !sky.Mat3().ApproxEqual(view.Mat3()) {
		t.Errorf("SkyboxView() rotation = %v, want %v", sky.Mat3(), view.Mat3())
	}
}

func TestCamera_Options(t *testing.T) {
	c := NewCamera(100, 100, WithFovDegrees(90), WithClipPlanes(1, 10), WithTarget(mgl32.Vec3{1, 0, 0}), WithUp(mgl32.Vec3{0, 0, 1}))

	if got := c.Fov(); !mgl32.FloatEqualThreshold(got, mgl32.DegToRad(90), epsilon) {
		t.Errorf("Fov() = %v, want 90 degrees", got)
	}
	if c.Near() != 1 || c.Far() != 10 {
		t.Errorf("Near(), Far() = %v, %v, want 1, 10", c.Near(), c.Far())
	}
	if !c.Target().ApproxEqual(mgl32.Vec3{1, 0, 0}) || !c.Up().ApproxEqual(mgl32.Vec3{0, 0, 1}) {
		t.Errorf("Target(), Up() = %v, %v", c.Target(), c.Up())
	}
}
