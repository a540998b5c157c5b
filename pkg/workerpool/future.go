package workerpool

import "context"

// Future is the pending result of a submitted task. It completes exactly
// once; every Result call after that returns the same pair.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Result blocks until the task finishes and returns its outcome.
func (f *Future[T]) Result() (T, error) {
	<-f.done

	return f.value, f.err
}

// ResultContext blocks like Result but gives up when ctx is cancelled. The
// task itself keeps running; only the wait is abandoned.
func (f *Future[T]) ResultContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	}
}

// Done returns a channel closed once the task has finished.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

func (f *Future[T]) complete(value T, err error) {
	f.value = value
	f.err = err
	close(f.done)
}
