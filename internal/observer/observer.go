// Package observer fans pipeline records out to dynamically attached
// subscribers.
package observer

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

// Observer receives every record flowing through the pipeline.
type Observer interface {
	// Name identifies the observer in logs.
	Name() string

	// OnRecord handles one record. Implementations must tolerate
	// concurrent invocation: notifications are issued from whichever
	// goroutine drives the pipeline.
	OnRecord(rec record.Record)
}

// Broadcaster maintains the observer list and notifies in attach order.
// Notify iterates a snapshot, so observers may attach and detach while a
// broadcast is in flight.
type Broadcaster struct {
	mu        sync.RWMutex
	observers []Observer
	logger    *slog.Logger
}

// NewBroadcaster returns an empty broadcaster. A nil logger falls back to
// slog.Default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}

	return &Broadcaster{logger: logger}
}

// Attach subscribes an observer. Re-attaching an already subscribed
// observer is a no-op.
func (b *Broadcaster) Attach(obs Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if slices.Contains(b.observers, obs) {
		return
	}

	b.observers = append(b.observers, obs)
}

// Detach unsubscribes an observer. Unknown observers are ignored.
func (b *Broadcaster) Detach(obs Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, existing := range b.observers {
		if existing == obs {
			b.observers = slices.Delete(b.observers, i, i+1)

			return
		}
	}
}

// Count returns the number of attached observers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.observers)
}

// Notify delivers the record to every attached observer in attach order.
// A panicking observer is recovered and logged; the rest of the list still
// receives the record.
func (b *Broadcaster) Notify(rec record.Record) {
	for _, obs := range b.snapshot() {
		b.deliver(obs, rec)
	}
}

func (b *Broadcaster) snapshot() []Observer {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return slices.Clone(b.observers)
}

func (b *Broadcaster) deliver(obs Observer, rec record.Record) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("observer panicked",
				slog.String("observer", obs.Name()),
				slog.Any("panic", r))
		}
	}()

	obs.OnRecord(rec)
}
