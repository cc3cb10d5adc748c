// Package tween animates float32 properties toward a target over time.
package tween

import (
	"fyne.io/fyne/v2"
	"github.com/charmbracelet/harmonica"

	"Prism3D/internal/config"
)

// Curve maps linear progress in [0,1] to eased progress.
type Curve func(float32) float32

var (
	// EaseOut decelerates toward the end: 1-(1-t)^2.
	EaseOut Curve = Curve(fyne.AnimationEaseOut)
	Linear  Curve = Curve(fyne.AnimationLinear)
	// Spring follows a critically damped spring, settling without overshoot.
	Spring Curve = newSpringCurve(120, 6.0, 1.0)
)

// newSpringCurve samples a harmonica spring released from 0 toward 1 over one
// second and rescales it so the curve ends exactly at 1.
func newSpringCurve(fps int, angularFrequency, dampingRatio float64) Curve {
	spring := harmonica.NewSpring(harmonica.FPS(fps), angularFrequency, dampingRatio)
	samples := make([]float32, fps+1)
	var pos, vel float64
	for i := 1; i <= fps; i++ {
		pos, vel = spring.Update(pos, vel, 1.0)
		samples[i] = float32(pos)
	}
	end := samples[fps]
	return func(t float32) float32 {
		if t <= 0 {
			return 0
		}
		if t >= 1 {
			return 1
		}
		f := t * float32(fps)
		i := int(f)
		v := samples[i] + (samples[i+1]-samples[i])*(f-float32(i))
		return v / end
	}
}

// CurveByName resolves a configured ease name, falling back to EaseOut.
func CurveByName(name string) Curve {
	switch name {
	case config.EaseLinear:
		return Linear
	case config.EaseSpring:
		return Spring
	default:
		return EaseOut
	}
}

// Tween moves one property from its value at creation time to a target.
type Tween struct {
	target   *float32
	from     float32
	to       float32
	duration float64
	elapsed  float64
	curve    Curve
}

// Done reports whether the tween reached its target.
func (t *Tween) Done() bool {
	return t.elapsed >= t.duration
}

func (t *Tween) step(deltaTime float64) {
	t.elapsed += deltaTime
	if t.Done() {
		*t.target = t.to
		return
	}
	progress := t.curve(float32(t.elapsed / t.duration))
	*t.target = t.from + (t.to-t.from)*progress
}

// Animator owns the running tweens, at most one per property.
type Animator struct {
	tweens map[*float32]*Tween
}

func NewAnimator() *Animator {
	return &Animator{tweens: make(map[*float32]*Tween)}
}

// To starts animating *target toward value. A tween already running on the
// same property is replaced and the new one starts from the current value.
func (a *Animator) To(target *float32, value float32, duration float64, curve Curve) *Tween {
	if curve == nil {
		curve = EaseOut
	}
	tw := &Tween{
		target:   target,
		from:     *target,
		to:       value,
		duration: duration,
		curve:    curve,
	}
	if duration <= 0 {
		*target = value
		delete(a.tweens, target)
		return tw
	}
	a.tweens[target] = tw
	return tw
}

// Active returns the number of running tweens.
func (a *Animator) Active() int {
	return len(a.tweens)
}

func (a *Animator) Start() {}

// Update advances every tween by deltaTime seconds and drops finished ones.
func (a *Animator) Update(deltaTime float64) {
	for key, tw := range a.tweens {
		tw.step(deltaTime)
		if tw.Done() {
			delete(a.tweens, key)
		}
	}
}
