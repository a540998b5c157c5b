// Package streaming implements the bounded line queue that decouples the
// input reader from record processing in stream mode. One producer side
// accepts raw lines with backpressure; a single consumer goroutine drains
// them in arrival order.
package streaming

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCapacity bounds the queue when no capacity is configured.
const DefaultCapacity = 100

// DefaultDrainGrace is how long Stop waits for the consumer to drain.
const DefaultDrainGrace = 5 * time.Second

var (
	// ErrClosed reports a Produce or Start on a stopped queue.
	ErrClosed = errors.New("streaming queue closed")

	// ErrAlreadyRunning reports a second Start without a Stop between.
	ErrAlreadyRunning = errors.New("stream consumer already running")

	// ErrDrainTimeout reports a consumer that did not drain within the
	// grace period.
	ErrDrainTimeout = errors.New("stream consumer drain timed out")
)

// Option adjusts a Queue at construction time.
type Option func(*Queue)

// WithCapacity bounds the number of lines buffered between producer and
// consumer. Values below one select DefaultCapacity.
func WithCapacity(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.capacity = n
		}
	}
}

// WithDrainGrace caps how long Stop waits for the consumer to drain.
func WithDrainGrace(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.grace = d
		}
	}
}

// WithRawHook registers a hook fired synchronously inside Produce, before
// the line is enqueued. Hooks run on the producer goroutine.
func WithRawHook(hook func(string)) Option {
	return func(q *Queue) {
		q.hooks = append(q.hooks, hook)
	}
}

// Queue is a bounded FIFO of raw input lines with a single consumer. The
// lifecycle is one-shot: once stopped it cannot be restarted.
type Queue struct {
	capacity int
	grace    time.Duration
	logger   *slog.Logger
	hooks    []func(string)

	lines chan string
	stop  chan struct{}
	done  chan struct{}

	running  atomic.Bool
	stopping atomic.Bool

	mu     sync.RWMutex
	closed bool

	produced atomic.Int64
	consumed atomic.Int64
}

// NewQueue builds a stopped queue. A nil logger falls back to
// slog.Default().
func NewQueue(logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}

	q := &Queue{
		capacity: DefaultCapacity,
		grace:    DefaultDrainGrace,
		logger:   logger,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.lines = make(chan string, q.capacity)
	q.stop = make(chan struct{})
	q.done = make(chan struct{})

	return q
}

// Capacity returns the configured buffer bound.
func (q *Queue) Capacity() int {
	return q.capacity
}

// Depth returns the number of lines currently buffered.
func (q *Queue) Depth() int {
	return len(q.lines)
}

// Produced returns how many lines the queue has accepted.
func (q *Queue) Produced() int64 {
	return q.produced.Load()
}

// Consumed returns how many lines the consumer has processed.
func (q *Queue) Consumed() int64 {
	return q.consumed.Load()
}

// Produce accepts one raw line, blocking while the queue is full. Raw hooks
// fire before the line is enqueued. Fails with ErrClosed once the queue has
// been stopped; a Stop while the caller is blocked also unblocks it with
// ErrClosed.
func (q *Queue) Produce(raw string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}

	for _, hook := range q.hooks {
		hook(raw)
	}

	select {
	case q.lines <- raw:
		q.produced.Add(1)

		return nil
	case <-q.stop:
		return ErrClosed
	}
}

// Start spawns the single consumer goroutine. Lines are handed to process
// in arrival order; a panic inside process is recovered and logged, and
// consumption continues with the next line.
func (q *Queue) Start(process func(string)) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()

	if closed {
		return ErrClosed
	}

	if !q.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	go q.consume(process)

	return nil
}

// Stop closes intake, unblocks stuck producers and waits up to the drain
// grace for the consumer to finish everything already accepted. Safe to
// call more than once; only the first call does the work.
func (q *Queue) Stop() error {
	if !q.stopping.CompareAndSwap(false, true) {
		return nil
	}

	// Wake producers parked on a full buffer before taking the write lock
	// they hold read-side.
	close(q.stop)

	q.mu.Lock()
	q.closed = true
	close(q.lines)
	q.mu.Unlock()

	if !q.running.Load() {
		return nil
	}

	select {
	case <-q.done:
		return nil
	case <-time.After(q.grace):
		return ErrDrainTimeout
	}
}

func (q *Queue) consume(process func(string)) {
	defer close(q.done)

	for raw := range q.lines {
		q.handle(process, raw)
		q.consumed.Add(1)
	}
}

func (q *Queue) handle(process func(string), raw string) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("stream consumer panicked",
				slog.String("line", raw),
				slog.Any("panic", r))
		}
	}()

	process(raw)
}
