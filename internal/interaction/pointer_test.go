package interaction

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Prism3D/internal/config"
	"Prism3D/internal/renderer"
	"Prism3D/internal/tween"
)

const damping = 0.12

func TestTargetCenterIsZero(t *testing.T) {
	rotX, rotY := Target(400, 300, 800, 600, damping)
	assert.InDelta(t, 0, rotX, 1e-7)
	assert.InDelta(t, 0, rotY, 1e-7)
}

func TestTargetCorners(t *testing.T) {
	edge := float64(math.Pi / 2 * damping)

	rotX, rotY := Target(0, 0, 800, 600, damping)
	assert.InDelta(t, -edge, rotX, 1e-6)
	assert.InDelta(t, -edge, rotY, 1e-6)

	rotX, rotY = Target(800, 600, 800, 600, damping)
	assert.InDelta(t, edge, rotX, 1e-6)
	assert.InDelta(t, edge, rotY, 1e-6)
}

func TestTargetAxes(t *testing.T) {
	// Horizontal movement turns the model around Y, vertical around X.
	rotX, rotY := Target(800, 300, 800, 600, damping)
	assert.InDelta(t, 0, rotX, 1e-7)
	assert.Greater(t, rotY, float32(0))

	rotX, rotY = Target(400, 0, 800, 600, damping)
	assert.Less(t, rotX, float32(0))
	assert.InDelta(t, 0, rotY, 1e-7)
}

func TestTargetZeroSizedWindow(t *testing.T) {
	rotX, rotY := Target(10, 10, 0, 0, damping)
	assert.Zero(t, rotX)
	assert.Zero(t, rotY)
}

func TestPointerMoveBeforeModelIsNoop(t *testing.T) {
	animator := tween.NewAnimator()
	var model *renderer.Model
	follow := NewPointerFollow(func() *renderer.Model { return model }, animator, config.DefaultConfig().Interaction)

	assert.False(t, follow.OnPointerMove(0, 0, 800, 600))
	assert.Equal(t, 0, animator.Active())
}

func TestPointerMoveEasesRotation(t *testing.T) {
	animator := tween.NewAnimator()
	model := renderer.NewModel("helmet")
	follow := NewPointerFollow(func() *renderer.Model { return model }, animator, config.DefaultConfig().Interaction)

	require.True(t, follow.OnPointerMove(800, 600, 800, 600))
	assert.Equal(t, 2, animator.Active())
	assert.Zero(t, model.Rotation[0])

	edge := float32(math.Pi / 2 * damping)
	animator.Update(0.4)
	// Ease-out covers three quarters of the way at half time.
	assert.InDelta(t, edge*0.75, model.Rotation[0], 1e-5)
	assert.InDelta(t, edge*0.75, model.Rotation[1], 1e-5)
	assert.Zero(t, model.Rotation[2])

	animator.Update(0.4)
	assert.InDelta(t, edge, model.Rotation[0], 1e-6)
	assert.InDelta(t, edge, model.Rotation[1], 1e-6)
	assert.Equal(t, 0, animator.Active())
}

func TestPointerMoveRetargetsFromCurrentValue(t *testing.T) {
	animator := tween.NewAnimator()
	model := renderer.NewModel("helmet")
	cfg := config.DefaultConfig().Interaction
	cfg.Ease = config.EaseLinear
	follow := NewPointerFollow(func() *renderer.Model { return model }, animator, cfg)

	follow.OnPointerMove(800, 300, 800, 600)
	animator.Update(0.4)
	halfway := model.Rotation[1]
	require.Greater(t, halfway, float32(0))

	// Back to center: the new tween starts where the old one left off.
	follow.OnPointerMove(400, 300, 800, 600)
	assert.Equal(t, 2, animator.Active())
	assert.Equal(t, halfway, model.Rotation[1])

	animator.Update(0.4)
	assert.InDelta(t, halfway/2, model.Rotation[1], 1e-6)
	animator.Update(0.4)
	assert.InDelta(t, 0, model.Rotation[1], 1e-7)
}

func TestPointerMoveModelAppearsLater(t *testing.T) {
	animator := tween.NewAnimator()
	var model *renderer.Model
	follow := NewPointerFollow(func() *renderer.Model { return model }, animator, config.DefaultConfig().Interaction)

	follow.OnPointerMove(0, 0, 800, 600)
	model = renderer.NewModel("helmet")
	assert.True(t, follow.OnPointerMove(0, 0, 800, 600))
	assert.Equal(t, 2, animator.Active())
}
