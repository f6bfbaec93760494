// Package task runs background jobs on a bounded worker pool and hands
// out futures for their results.
package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Fn is a unit of background work.
type Fn func(ctx context.Context) ([]byte, error)

// Handle is the future of a dispatched task. Done is closed once the task
// finished, successfully or not.
type Handle struct {
	id     string
	done   chan struct{}
	result []byte
	err    error
}

func (h *Handle) ID() string {
	return h.id
}

func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) IsDone() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Result blocks until the task finished or ctx is done.
func (h *Handle) Result(ctx context.Context) ([]byte, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type job struct {
	handle *Handle
	fn     Fn
}

// Runner executes tasks on a fixed number of workers. The queue is
// bounded; Dispatch blocks when it is full.
type Runner struct {
	queue   chan job
	wg      sync.WaitGroup
	timeout time.Duration
}

// NewRunner starts workers goroutines consuming a queue of queueSize.
// timeout is the hard per-task execution limit, zero disables it.
func NewRunner(workers, queueSize int, timeout time.Duration) *Runner {
	if workers < 1 {
		workers = 1
	}
	r := &Runner{
		queue:   make(chan job, queueSize),
		timeout: timeout,
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.loop()
	}
	return r
}

// Dispatch queues fn and returns its future.
func (r *Runner) Dispatch(fn Fn) *Handle {
	h := &Handle{
		id:   uuid.NewString(),
		done: make(chan struct{}),
	}
	r.queue <- job{handle: h, fn: fn}
	return h
}

// Stop waits for queued tasks to drain and stops the workers.
func (r *Runner) Stop() {
	close(r.queue)
	r.wg.Wait()
}

func (r *Runner) loop() {
	defer r.wg.Done()
	for j := range r.queue {
		ctx := context.Background()
		cancel := context.CancelFunc(func() {})
		if r.timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
		}
		j.handle.result, j.handle.err = j.fn(ctx)
		cancel()
		close(j.handle.done)
	}
}
