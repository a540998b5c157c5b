// Package registry maintains the process-wide mapping from sensor serial to
// sensor type.
package registry

import (
	"maps"
	"sync"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

// Registry is a thread-safe serial -> type map. Registration overwrites on
// conflict, so a sensor that changes type keeps its latest classification.
type Registry struct {
	mu    sync.RWMutex
	types map[string]record.Type
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{types: make(map[string]record.Type)}
}

// Register upserts the type for a serial. Empty serials and unknown types
// are ignored; the caller filters them before registration anyway.
func (r *Registry) Register(serial string, t record.Type) {
	if serial == "" || t == record.TypeUnknown || t == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.types[serial] = t
}

// Get returns the registered type for a serial, or TypeUnknown when the
// serial has never been registered.
func (r *Registry) Get(serial string) record.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[serial]
	if !ok {
		return record.TypeUnknown
	}

	return t
}

// Snapshot returns a copy of the full mapping. Mutating the copy never
// affects the registry.
func (r *Registry) Snapshot() map[string]record.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Clone(r.types)
}

// Count returns the number of registered serials.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.types)
}
