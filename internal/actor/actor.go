// Package actor hosts the mailbox-driven workers that own mutable pipeline
// state: a data store keeping per-sensor history and an alert evaluator.
// Each actor drains a bounded request channel on a single goroutine, so the
// state behind it needs no locking.
package actor

import (
	"errors"
	"sync"
	"time"
)

// DefaultMailboxSize bounds an actor's pending request queue.
const DefaultMailboxSize = 64

// DefaultReplyTimeout is how long request-reply helpers wait for an answer.
const DefaultReplyTimeout = 5 * time.Second

var (
	// ErrStopped reports a request sent to an actor that has shut down.
	ErrStopped = errors.New("actor stopped")

	// ErrTimeout reports a reply that did not arrive within the reply
	// timeout.
	ErrTimeout = errors.New("actor reply timed out")
)

// mailbox serializes delivery of requests to a single consumer goroutine.
type mailbox[T any] struct {
	requests chan T
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

func newMailbox[T any](capacity int) *mailbox[T] {
	return &mailbox[T]{
		requests: make(chan T, capacity),
		done:     make(chan struct{}),
	}
}

// start spawns the consumer goroutine. It exits, and closes done, once the
// mailbox is closed and drained.
func (m *mailbox[T]) start(handle func(T)) {
	go func() {
		defer close(m.done)

		for req := range m.requests {
			handle(req)
		}
	}()
}

// enqueue delivers one request, blocking while the mailbox is full.
func (m *mailbox[T]) enqueue(req T) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrStopped
	}

	m.requests <- req

	return nil
}

// stop closes intake and waits until the consumer has drained every request
// already accepted. Safe to call more than once.
func (m *mailbox[T]) stop() {
	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()

		return
	}

	m.closed = true
	close(m.requests)
	m.mu.Unlock()

	<-m.done
}
