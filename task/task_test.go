package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchResult(t *testing.T) {
	r := NewRunner(2, 4, 0)
	defer r.Stop()

	h := r.Dispatch(func(ctx context.Context) ([]byte, error) {
		return []byte("tile"), nil
	})
	assert.NotEmpty(t, h.ID())

	result, err := h.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("tile"), result)
	assert.True(t, h.IsDone())
}

func TestDispatchError(t *testing.T) {
	r := NewRunner(1, 1, 0)
	defer r.Stop()

	h := r.Dispatch(func(ctx context.Context) ([]byte, error) {
		return nil, errors.New("render failed")
	})
	_, err := h.Result(context.Background())
	assert.EqualError(t, err, "render failed")
}

func TestResultContextCancel(t *testing.T) {
	r := NewRunner(1, 1, 0)
	defer r.Stop()

	release := make(chan struct{})
	h := r.Dispatch(func(ctx context.Context) ([]byte, error) {
		<-release
		return nil, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.Result(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestTaskTimeout(t *testing.T) {
	r := NewRunner(1, 1, 20*time.Millisecond)
	defer r.Stop()

	h := r.Dispatch(func(ctx context.Context) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	_, err := h.Result(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDispatchBackpressure(t *testing.T) {
	r := NewRunner(1, 1, 0)

	release := make(chan struct{})
	var started int32
	block := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&started, 1)
		<-release
		return nil, nil
	}

	r.Dispatch(block) // taken by the worker
	r.Dispatch(block) // fills the queue

	dispatched := make(chan struct{})
	go func() {
		r.Dispatch(block)
		close(dispatched)
	}()

	select {
	case <-dispatched:
		t.Fatal("dispatch did not block on a full queue")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-dispatched
	r.Stop()
	assert.Equal(t, int32(3), atomic.LoadInt32(&started))
}
