package interaction

import (
	"go.uber.org/zap"

	"Prism3D/internal/logger"
)

// AspectCamera is the part of a perspective camera a resize touches.
type AspectCamera interface {
	SetAspectRatio(aspect float32)
	UpdateProjection()
}

// Sizer is anything with pixel dimensions that follow the window.
type Sizer interface {
	SetSize(width, height int32)
}

// PixelRatioSetter is implemented by sizers that scale to the device pixel ratio.
type PixelRatioSetter interface {
	SetPixelRatio(ratio float32)
}

// Viewport propagates window size changes to the camera and every sizer in
// one call, so the next frame sees consistent dimensions.
type Viewport struct {
	camera AspectCamera
	sizers []Sizer
	width  int32
	height int32
}

func NewViewport(camera AspectCamera, sizers ...Sizer) *Viewport {
	return &Viewport{camera: camera, sizers: sizers}
}

// Resize applies a new logical window size. Zero sizes (minimized windows)
// and repeats of the current size are ignored; it reports whether anything changed.
func (v *Viewport) Resize(width, height int32) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	if width == v.width && height == v.height {
		return false
	}
	v.width, v.height = width, height

	v.camera.SetAspectRatio(float32(width) / float32(height))
	v.camera.UpdateProjection()
	for _, s := range v.sizers {
		s.SetSize(width, height)
	}
	logger.Log.Debug("Viewport resized",
		zap.Int32("width", width),
		zap.Int32("height", height))
	return true
}

// SetPixelRatio forwards a new device pixel ratio to the sizers that use one.
func (v *Viewport) SetPixelRatio(ratio float32) {
	for _, s := range v.sizers {
		if p, ok := s.(PixelRatioSetter); ok {
			p.SetPixelRatio(ratio)
		}
	}
}

func (v *Viewport) Size() (int32, int32) {
	return v.width, v.height
}
