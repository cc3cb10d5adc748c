package loader

import (
	"context"

	"go.uber.org/zap"

	"Prism3D/internal/logger"
	"Prism3D/internal/renderer"
)

// Phase is where a Sequence currently stands.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseEnvironment
	PhaseModel
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEnvironment:
		return "environment"
	case PhaseModel:
		return "model"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Steps wires a Sequence to the application. Fetch functions run on worker
// goroutines; Apply and Attach run inside Step on the caller's thread.
type Steps struct {
	FetchEnvironment func(ctx context.Context) (*renderer.EquirectImage, error)
	ApplyEnvironment func(img *renderer.EquirectImage) error
	FetchModel       func(ctx context.Context) (*renderer.Model, error)
	AttachModel      func(model *renderer.Model) error
}

// Sequence loads the environment, then the model. The model fetch starts only
// after ApplyEnvironment returned, and a failure at any point ends the chain.
type Sequence struct {
	steps Steps
	ctx   context.Context
	phase Phase
	env   *Job[*renderer.EquirectImage]
	model *Job[*renderer.Model]
	err   error
}

func NewSequence(steps Steps) *Sequence {
	return &Sequence{steps: steps}
}

// Start kicks off the environment fetch. Calling it again is a no-op.
func (s *Sequence) Start(ctx context.Context) {
	if s.phase != PhaseIdle {
		return
	}
	s.ctx = ctx
	s.env = Go(ctx, s.steps.FetchEnvironment)
	s.phase = PhaseEnvironment
	logger.Log.Debug("Environment fetch started")
}

// Step consumes finished jobs. It never blocks and is meant to run once per frame.
func (s *Sequence) Step() {
	switch s.phase {
	case PhaseEnvironment:
		img, done, err := s.env.Poll()
		if !done {
			return
		}
		s.env = nil
		if err == nil {
			err = s.steps.ApplyEnvironment(img)
		}
		if err != nil {
			logger.Log.Error("An error occurred while loading the HDRI", zap.Error(err))
			s.fail(err)
			return
		}
		s.model = Go(s.ctx, s.steps.FetchModel)
		s.phase = PhaseModel
		logger.Log.Debug("Model fetch started")

	case PhaseModel:
		model, done, err := s.model.Poll()
		if !done {
			return
		}
		s.model = nil
		if err == nil {
			err = s.steps.AttachModel(model)
		}
		if err != nil {
			logger.Log.Error("An error occurred while loading the GLTF", zap.Error(err))
			s.fail(err)
			return
		}
		s.phase = PhaseDone
		logger.Log.Info("Scene assets loaded", zap.String("model", model.Name))
	}
}

func (s *Sequence) fail(err error) {
	s.err = err
	s.phase = PhaseFailed
}

func (s *Sequence) Phase() Phase {
	return s.phase
}

// Done reports whether the sequence finished, successfully or not.
func (s *Sequence) Done() bool {
	return s.phase == PhaseDone || s.phase == PhaseFailed
}

// Err is the error that ended the sequence, nil otherwise.
func (s *Sequence) Err() error {
	return s.err
}
