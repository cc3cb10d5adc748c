package engine

import (
	"context"

	"go.uber.org/zap"

	"Prism3D/internal/behaviour"
	"Prism3D/internal/logger"
)

// renderErrorLogInterval is how many consecutive failing frames share one
// log entry after the first.
const renderErrorLogInterval = 120

// maxFrameDelta caps the delta handed to behaviours after a stall (window
// drag, breakpoint) so tweens do not jump to their end in one frame.
const maxFrameDelta = 0.25

// Surface is the window the loop presents to.
type Surface interface {
	ShouldClose() bool
	SwapBuffers()
	PollEvents()
}

// Stepper advances asynchronous work on the render thread.
type Stepper interface {
	Step()
}

// Loop drives one frame per iteration until the surface closes or the
// context is cancelled.
type Loop struct {
	Surface    Surface
	Now        func() float64 // Seconds, monotonic
	Sequence   Stepper
	Behaviours *behaviour.BehaviourManager
	Render     func() error
	// MaxFrames stops the loop after that many frames when positive.
	MaxFrames int

	frames       int
	renderErrors int
	failing      int
	lastTime     float64
}

// Run blocks until the surface closes, ctx is cancelled or MaxFrames is
// reached. A frame that fails to render is logged and the loop goes on.
func (l *Loop) Run(ctx context.Context) error {
	l.lastTime = l.Now()
	for !l.Surface.ShouldClose() {
		if err := ctx.Err(); err != nil {
			logger.Log.Debug("Render loop cancelled", zap.Error(err))
			return nil
		}
		if l.MaxFrames > 0 && l.frames >= l.MaxFrames {
			return nil
		}
		l.frame()
	}
	return nil
}

func (l *Loop) frame() {
	now := l.Now()
	dt := now - l.lastTime
	l.lastTime = now
	if dt < 0 {
		dt = 0
	} else if dt > maxFrameDelta {
		dt = maxFrameDelta
	}

	if l.Sequence != nil {
		l.Sequence.Step()
	}
	if l.Behaviours != nil {
		l.Behaviours.UpdateAll(dt)
	}
	if l.Render != nil {
		l.render()
	}
	l.Surface.SwapBuffers()
	l.Surface.PollEvents()
	l.frames++
}

func (l *Loop) render() {
	err := l.Render()
	if err == nil {
		if l.failing > 0 {
			logger.Log.Info("Rendering recovered", zap.Int("failed_frames", l.failing))
		}
		l.failing = 0
		return
	}
	l.renderErrors++
	if l.failing%renderErrorLogInterval == 0 {
		logger.Log.Error("Frame render failed",
			zap.Error(err),
			zap.Int("frame", l.frames),
			zap.Int("consecutive", l.failing+1))
	}
	l.failing++
}

// Frames returns the number of completed frames.
func (l *Loop) Frames() int {
	return l.frames
}

// RenderErrors returns the number of frames whose render failed.
func (l *Loop) RenderErrors() int {
	return l.renderErrors
}
