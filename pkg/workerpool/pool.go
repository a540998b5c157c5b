// Package workerpool runs tasks on a fixed set of workers and hands back
// futures for their results. The task channel is unbuffered, so submission
// parks the caller until a worker is free instead of growing a backlog.
package workerpool

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
)

var (
	// ErrPoolClosed reports a submission to a pool after Close.
	ErrPoolClosed = errors.New("worker pool closed")

	// ErrTaskPanic wraps the panic value recovered from a task.
	ErrTaskPanic = errors.New("task panicked")
)

// Pool executes submitted tasks on a fixed number of worker goroutines.
type Pool struct {
	tasks  chan func()
	logger *slog.Logger
	size   int

	wg sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New starts a pool of the given size. Zero or negative sizes select
// runtime.NumCPU(). A nil logger falls back to slog.Default().
func New(size int, logger *slog.Logger) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}

	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		tasks:  make(chan func()),
		logger: logger,
		size:   size,
	}

	p.wg.Add(size)
	for range size {
		go p.worker()
	}

	return p
}

// Size returns the fixed worker count.
func (p *Pool) Size() int {
	return p.size
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for task := range p.tasks {
		task()
	}
}

// Submit schedules fn and returns a future for its result. The call blocks
// until a worker accepts the task. A panic inside fn resolves the future
// with an error wrapping ErrTaskPanic; the worker survives. After Close the
// returned future fails immediately with ErrPoolClosed.
func Submit[T any](p *Pool, fn func() (T, error)) *Future[T] {
	f := newFuture[T]()

	task := func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T

				f.complete(zero, fmt.Errorf("%w: %v", ErrTaskPanic, r))
			}
		}()

		f.complete(fn())
	}

	if err := p.dispatch(task); err != nil {
		var zero T

		f.complete(zero, err)
	}

	return f
}

// SubmitVoid schedules fn fire-and-forget. Panics are recovered and logged;
// a submission after Close is logged and dropped.
func (p *Pool) SubmitVoid(fn func()) {
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("pool task panicked", slog.Any("panic", r))
			}
		}()

		fn()
	}

	if err := p.dispatch(task); err != nil {
		p.logger.Warn("pool task dropped", slog.Any("error", err))
	}
}

// ProcessBatch submits one task per item and waits for all of them,
// returning after the slowest finishes. Failures are collected with
// errors.Join; a nil return means every item succeeded.
func ProcessBatch[T any](p *Pool, items []T, fn func(T) error) error {
	futures := make([]*Future[struct{}], len(items))

	for i, item := range items {
		futures[i] = Submit(p, func() (struct{}, error) {
			return struct{}{}, fn(item)
		})
	}

	var errs []error

	for _, f := range futures {
		if _, err := f.Result(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Close stops intake and waits for in-flight tasks to finish. Safe to call
// more than once.
func (p *Pool) Close() {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()

		return
	}

	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

// dispatch hands the task to a worker, blocking until one is free. The read
// lock is held across the send so Close cannot close the channel while a
// sender is parked on it.
func (p *Pool) dispatch(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	p.tasks <- task

	return nil
}
