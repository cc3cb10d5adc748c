// Package interaction turns window events into scene changes: the model eases
// toward the cursor and resizes propagate to the camera and render buffers.
package interaction

import (
	"math"

	"go.uber.org/zap"

	"Prism3D/internal/config"
	"Prism3D/internal/logger"
	"Prism3D/internal/renderer"
	"Prism3D/internal/tween"
)

// PointerFollow eases the model's rotation toward the cursor position.
type PointerFollow struct {
	Damping  float32
	Duration float64 // Seconds
	Curve    tween.Curve

	model    func() *renderer.Model
	animator *tween.Animator
}

// NewPointerFollow reads the model through model on every event, so events
// that arrive before the model loaded are ignored.
func NewPointerFollow(model func() *renderer.Model, animator *tween.Animator, cfg config.InteractionConfig) *PointerFollow {
	return &PointerFollow{
		Damping:  float32(cfg.Damping),
		Duration: cfg.DurationSeconds,
		Curve:    tween.CurveByName(cfg.Ease),
		model:    model,
		animator: animator,
	}
}

// Target maps a cursor position inside a width x height window to the model
// rotation it asks for. The window center maps to (0, 0) and each edge to
// ±π/2·damping.
func Target(x, y float64, width, height int, damping float32) (rotX, rotY float32) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	mouseX := (x/float64(width) - 0.5) * math.Pi
	mouseY := (y/float64(height) - 0.5) * math.Pi
	return float32(mouseY) * damping, float32(mouseX) * damping
}

// OnPointerMove retargets the rotation tweens. It reports whether a model
// was there to rotate.
func (p *PointerFollow) OnPointerMove(x, y float64, width, height int) bool {
	model := p.model()
	if model == nil {
		return false
	}
	rotX, rotY := Target(x, y, width, height, p.Damping)
	p.animator.To(&model.Rotation[0], rotX, p.Duration, p.Curve)
	p.animator.To(&model.Rotation[1], rotY, p.Duration, p.Curve)

	if logger.Log.Core().Enabled(zap.DebugLevel) {
		logger.Log.Debug("Pointer target",
			zap.Float64("x", x),
			zap.Float64("y", y),
			zap.Float32("rotX", rotX),
			zap.Float32("rotY", rotY))
	}
	return true
}
