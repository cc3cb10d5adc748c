package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestNewPerspectiveCamera(t *testing.T) {
	cam := NewPerspectiveCamera(40, 16.0/9.0, 0.1, 100)

	assert.Equal(t, float32(40), cam.Fov)
	assert.Equal(t, float32(0.1), cam.Near)
	assert.Equal(t, float32(100), cam.Far)
	assert.Equal(t, mgl32.Perspective(mgl32.DegToRad(40), 16.0/9.0, 0.1, 100), cam.Projection)
}

func TestCameraGetProjectionMatrix(t *testing.T) {
	cam := NewPerspectiveCamera(40, 1, 0.1, 100)

	proj := cam.GetProjectionMatrix()

	assert.Equal(t, float32(0), proj.At(3, 3), "perspective projection should have w=0 at (3,3)")
	assert.Equal(t, float32(-1), proj.At(3, 2))
}

func TestCameraSetPositionKeepsDirection(t *testing.T) {
	cam := NewPerspectiveCamera(40, 1, 0.1, 100)
	cam.SetPosition(0, 0, 4)

	assert.Equal(t, mgl32.Vec3{0, 0, 4}, cam.Position)
	assert.Equal(t, mgl32.Vec3{0, 0, 3}, cam.Target)

	view := cam.GetViewMatrix()
	origin := view.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, -4, origin.Z(), 1e-5, "origin should be 4 units in front of the camera")
}

func TestCameraAspectNeedsProjectionRefresh(t *testing.T) {
	cam := NewPerspectiveCamera(40, 1, 0.1, 100)
	before := cam.Projection

	cam.SetAspectRatio(2)
	assert.Equal(t, before, cam.Projection)

	cam.UpdateProjection()
	assert.NotEqual(t, before, cam.Projection)
	assert.InDelta(t, before.At(0, 0)/2, cam.Projection.At(0, 0), 1e-6)
}

func TestCameraGetViewProjection(t *testing.T) {
	cam := NewPerspectiveCamera(40, 1, 0.1, 100)
	cam.SetPosition(0, 0, 4)

	assert.NotEqual(t, mgl32.Mat4{}, cam.GetViewProjection())
}

func TestClampPixelRatio(t *testing.T) {
	assert.Equal(t, float32(1), ClampPixelRatio(0.5, 2))
	assert.Equal(t, float32(1.5), ClampPixelRatio(1.5, 2))
	assert.Equal(t, float32(2), ClampPixelRatio(3, 2))
	assert.Equal(t, float32(3), ClampPixelRatio(3, 0))
}

func TestDrawingBufferSize(t *testing.T) {
	w, h := DrawingBufferSize(800, 600, 2)
	assert.Equal(t, int32(1600), w)
	assert.Equal(t, int32(1200), h)

	w, h = DrawingBufferSize(801, 601, 1.5)
	assert.Equal(t, int32(1202), w)
	assert.Equal(t, int32(902), h)
}

func TestRendererSizes(t *testing.T) {
	rend := NewOpenGLRenderer(DefaultSettings())
	rend.SetSize(800, 600)
	rend.SetPixelRatio(3)

	assert.Equal(t, float32(2), rend.PixelRatio())
	w, h := rend.DrawingBufferSize()
	assert.Equal(t, int32(1600), w)
	assert.Equal(t, int32(1200), h)

	w, h = rend.ScreenSize()
	assert.Equal(t, int32(1600), w)
	assert.Equal(t, int32(1200), h)

	rend.SetScreenSize(2400, 1800)
	w, h = rend.ScreenSize()
	assert.Equal(t, int32(2400), w)
	assert.Equal(t, int32(1800), h)

	assert.Equal(t, int32(4), rend.Samples())
	rend.Settings.Antialias = false
	assert.Equal(t, int32(0), rend.Samples())
}
