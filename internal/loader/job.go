package loader

import (
	"context"
	"fmt"
)

// State is the lifecycle of a Job.
type State int

const (
	Pending State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Job runs one fetch in its own goroutine. The render thread polls it; the
// result fields are written once before done is closed.
type Job[T any] struct {
	done  chan struct{}
	state State
	value T
	err   error
}

// Go starts fn in a goroutine. A panic in fn fails the job instead of the process.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Job[T] {
	j := &Job[T]{done: make(chan struct{})}
	go func() {
		defer close(j.done)
		defer func() {
			if r := recover(); r != nil {
				j.state = Failed
				j.err = fmt.Errorf("job panicked: %v", r)
			}
		}()
		value, err := fn(ctx)
		if err != nil {
			j.state = Failed
			j.err = err
			return
		}
		j.value = value
		j.state = Ready
	}()
	return j
}

// State never blocks.
func (j *Job[T]) State() State {
	select {
	case <-j.done:
		return j.state
	default:
		return Pending
	}
}

// Poll reports done once the job left Pending, along with its outcome.
func (j *Job[T]) Poll() (value T, done bool, err error) {
	select {
	case <-j.done:
		return j.value, true, j.err
	default:
		return value, false, nil
	}
}

// Wait blocks until the job finishes or ctx is done.
func (j *Job[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-j.done:
		return j.value, j.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
