package loader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobReady(t *testing.T) {
	release := make(chan struct{})
	job := Go(context.Background(), func(ctx context.Context) (int, error) {
		<-release
		return 42, nil
	})

	assert.Equal(t, Pending, job.State())
	_, done, _ := job.Poll()
	assert.False(t, done)

	close(release)
	value, err := job.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Equal(t, Ready, job.State())

	value, done, err = job.Poll()
	assert.True(t, done)
	assert.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestJobFailed(t *testing.T) {
	boom := errors.New("boom")
	job := Go(context.Background(), func(ctx context.Context) (string, error) {
		return "ignored", boom
	})

	value, err := job.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, value)
	assert.Equal(t, Failed, job.State())
}

func TestJobPanicFails(t *testing.T) {
	job := Go(context.Background(), func(ctx context.Context) (int, error) {
		panic("decoder exploded")
	})

	_, err := job.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoder exploded")
	assert.Equal(t, Failed, job.State())
}

func TestJobWaitHonoursContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	job := Go(context.Background(), func(ctx context.Context) (int, error) {
		<-block
		return 0, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := job.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Pending, job.State())
}

func TestJobReceivesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	job := Go(ctx, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	cancel()

	_, err := job.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "State(7)", State(7).String())
}
