package renderer

import (
	"image"

	"github.com/go-gl/glfw/v3.3/glfw"
)

type ToneMapping int32

const (
	NoToneMapping ToneMapping = iota
	ACESFilmicToneMapping
)

type ColorSpace int32

const (
	LinearSRGBColorSpace ColorSpace = iota
	SRGBColorSpace
)

// Settings configures the GL renderer at creation time.
type Settings struct {
	Antialias           bool
	Samples             int32 // MSAA samples of the scene render target, used when Antialias is set
	Alpha               bool  // Clear to transparent black
	ToneMapping         ToneMapping
	ToneMappingExposure float32
	OutputColorSpace    ColorSpace
	MaxPixelRatio       float32
	// FaceCulling drops back faces of materials that are not double sided.
	FaceCulling bool
	Wireframe   bool
}

func DefaultSettings() Settings {
	return Settings{
		Antialias:           true,
		Samples:             4,
		Alpha:               true,
		ToneMapping:         ACESFilmicToneMapping,
		ToneMappingExposure: 1.0,
		OutputColorSpace:    SRGBColorSpace,
		MaxPixelRatio:       2,
		FaceCulling:         true,
	}
}

// Render is the renderer contract the engine drives each frame.
type Render interface {
	Init(width, height int32, window *glfw.Window) error
	RenderScene(scene *Scene, camera *Camera, target *RenderTarget) error
	AddModel(model *Model) error
	SetSize(width, height int32)
	SetPixelRatio(ratio float32)
	CreateTextureFromImage(img image.Image, name string) (uint32, error)
	Cleanup()
}

// ClampPixelRatio caps a device pixel ratio to max, never going below 1.
func ClampPixelRatio(ratio, max float32) float32 {
	if ratio < 1 {
		ratio = 1
	}
	if max >= 1 && ratio > max {
		return max
	}
	return ratio
}

// DrawingBufferSize converts a logical size into physical pixels.
func DrawingBufferSize(width, height int32, ratio float32) (int32, int32) {
	return int32(float32(width)*ratio + 0.5), int32(float32(height)*ratio + 0.5)
}
