package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"Prism3D/internal/behaviour"
	"Prism3D/internal/loader"
	"Prism3D/internal/logger"
	"Prism3D/internal/renderer"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	previous := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = previous })
	return logs
}

// fakeSurface closes once closeAfter frames were presented, or when
// closeWhen reports true.
type fakeSurface struct {
	closeAfter int
	closeWhen  func() bool
	swaps      int
	polls      int
}

func (s *fakeSurface) ShouldClose() bool {
	if s.closeWhen != nil && s.closeWhen() {
		return true
	}
	return s.closeAfter > 0 && s.swaps >= s.closeAfter
}

func (s *fakeSurface) SwapBuffers() { s.swaps++ }

func (s *fakeSurface) PollEvents() {
	s.polls++
	time.Sleep(time.Millisecond)
}

// fakeClock advances by step on every reading.
type fakeClock struct {
	now  float64
	step float64
}

func (c *fakeClock) Now() float64 {
	t := c.now
	c.now += c.step
	return t
}

type deltaRecorder struct {
	started int
	deltas  []float64
}

func (d *deltaRecorder) Start()                   { d.started++ }
func (d *deltaRecorder) Update(deltaTime float64) { d.deltas = append(d.deltas, deltaTime) }

type countingStepper struct{ steps int }

func (s *countingStepper) Step() { s.steps++ }

func TestLoopRunsUntilSurfaceCloses(t *testing.T) {
	surface := &fakeSurface{closeAfter: 3}
	clock := &fakeClock{step: 0.016}
	stepper := &countingStepper{}
	rec := &deltaRecorder{}
	behaviours := behaviour.NewBehaviourManager()
	behaviours.Add(rec)
	renders := 0

	loop := &Loop{
		Surface:    surface,
		Now:        clock.Now,
		Sequence:   stepper,
		Behaviours: behaviours,
		Render: func() error {
			renders++
			return nil
		},
	}
	require.NoError(t, loop.Run(context.Background()))

	assert.Equal(t, 3, loop.Frames())
	assert.Equal(t, 3, renders)
	assert.Equal(t, 3, stepper.steps)
	assert.Equal(t, 3, surface.swaps)
	assert.Equal(t, 3, surface.polls)
	assert.Equal(t, 1, rec.started)
	require.Len(t, rec.deltas, 3)
	for _, dt := range rec.deltas {
		assert.InDelta(t, 0.016, dt, 1e-9)
	}
}

func TestLoopStopsAtMaxFrames(t *testing.T) {
	loop := &Loop{
		Surface:   &fakeSurface{},
		Now:       (&fakeClock{step: 0.01}).Now,
		MaxFrames: 5,
	}
	require.NoError(t, loop.Run(context.Background()))
	assert.Equal(t, 5, loop.Frames())
}

func TestLoopClampsLongFrames(t *testing.T) {
	rec := &deltaRecorder{}
	behaviours := behaviour.NewBehaviourManager()
	behaviours.Add(rec)

	loop := &Loop{
		Surface:    &fakeSurface{},
		Now:        (&fakeClock{step: 3}).Now,
		Behaviours: behaviours,
		MaxFrames:  2,
	}
	require.NoError(t, loop.Run(context.Background()))
	assert.Equal(t, []float64{maxFrameDelta, maxFrameDelta}, rec.deltas)
}

func TestLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	frames := 0
	loop := &Loop{
		Surface: &fakeSurface{},
		Now:     (&fakeClock{step: 0.01}).Now,
		Render: func() error {
			frames++
			if frames == 2 {
				cancel()
			}
			return nil
		},
	}
	require.NoError(t, loop.Run(ctx))
	assert.Equal(t, 2, loop.Frames())
}

func TestLoopKeepsRunningAfterRenderError(t *testing.T) {
	logs := observeLogs(t)
	transient := errors.New("framebuffer incomplete")
	surface := &fakeSurface{closeAfter: 5}
	calls := 0
	loop := &Loop{
		Surface: surface,
		Now:     (&fakeClock{step: 0.01}).Now,
		Render: func() error {
			calls++
			if calls == 2 {
				return transient
			}
			return nil
		},
	}
	require.NoError(t, loop.Run(context.Background()))

	assert.Equal(t, 5, loop.Frames())
	assert.Equal(t, 5, calls)
	assert.Equal(t, 5, surface.swaps)
	assert.Equal(t, 1, loop.RenderErrors())

	entries := logs.FilterMessage("Frame render failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
	assert.Equal(t, 1, logs.FilterMessage("Rendering recovered").Len())
}

func TestLoopRateLimitsRenderErrorLogs(t *testing.T) {
	logs := observeLogs(t)
	frames := renderErrorLogInterval*2 + 1
	loop := &Loop{
		Surface: &fakeSurface{closeAfter: frames},
		Now:     (&fakeClock{step: 0.01}).Now,
		Render:  func() error { return errors.New("shader link failed") },
	}
	require.NoError(t, loop.Run(context.Background()))

	assert.Equal(t, frames, loop.Frames())
	assert.Equal(t, frames, loop.RenderErrors())
	assert.Equal(t, 3, logs.FilterMessage("Frame render failed").Len())
}

func TestLoopKeepsRenderingAfterModelFailure(t *testing.T) {
	logs := observeLogs(t)
	scene := renderer.NewScene()
	modelErr := errors.New("unexpected EOF")

	seq := loader.NewSequence(loader.Steps{
		FetchEnvironment: func(ctx context.Context) (*renderer.EquirectImage, error) {
			return renderer.NewEquirectImage(4, 2), nil
		},
		ApplyEnvironment: func(img *renderer.EquirectImage) error { return nil },
		FetchModel: func(ctx context.Context) (*renderer.Model, error) {
			return nil, modelErr
		},
		AttachModel: func(model *renderer.Model) error {
			scene.Add(model)
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	seq.Start(ctx)

	afterFailure := 0
	surface := &fakeSurface{}
	surface.closeWhen = func() bool { return afterFailure >= 3 }
	loop := &Loop{
		Surface:  surface,
		Now:      (&fakeClock{step: 0.016}).Now,
		Sequence: seq,
		Render: func() error {
			if seq.Phase() == loader.PhaseFailed {
				afterFailure++
			}
			return nil
		},
	}
	require.NoError(t, loop.Run(ctx))

	assert.Equal(t, loader.PhaseFailed, seq.Phase())
	assert.ErrorIs(t, seq.Err(), modelErr)
	assert.Equal(t, 0, scene.Len())
	assert.Equal(t, 3, afterFailure)

	entries := logs.FilterMessage("An error occurred while loading the GLTF").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
}
