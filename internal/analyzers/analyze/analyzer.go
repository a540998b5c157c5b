// Package analyze defines the analyzer contract and the manager that routes
// records to per-type analyzers.
package analyze

import (
	"maps"
	"sync"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

// Analyzer accumulates readings of one sensor dimension and renders a
// plain-text report on demand. Implementations are not self-synchronized;
// the Manager serializes access.
type Analyzer interface {
	// Name labels the analyzer in reports.
	Name() string

	// Analyze folds one record into the accumulated state.
	Analyze(rec record.Record)

	// Report renders the current state.
	Report() string
}

// Factory builds a fresh analyzer with its thresholds already bound.
// Injecting factories keeps the manager open to new variants.
type Factory func() Analyzer

// Manager routes records to analyzers keyed by sensor type. A battery
// analyzer, when registered, additionally receives every record exactly
// once regardless of its type.
type Manager struct {
	mu     sync.Mutex
	byType map[record.Type]Analyzer
}

// NewManager returns a manager with no analyzers registered.
func NewManager() *Manager {
	return &Manager{byType: make(map[record.Type]Analyzer)}
}

// Register binds an analyzer to a sensor type, replacing any previous
// binding for that type.
func (m *Manager) Register(t record.Type, a Analyzer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byType[t] = a
}

// AnalyzeData dispatches the record to its type's analyzer and then to the
// battery analyzer. Battery-typed records are not fed twice.
func (m *Manager) AnalyzeData(rec record.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.byType[rec.Type]; ok {
		a.Analyze(rec)
	}

	if rec.Type == record.TypeBattery {
		return
	}

	if b, ok := m.byType[record.TypeBattery]; ok {
		b.Analyze(rec)
	}
}

// Reports renders every registered analyzer, keyed by analyzer name.
func (m *Manager) Reports() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string, len(m.byType))
	for _, a := range m.byType {
		out[a.Name()] = a.Report()
	}

	return out
}

// Registered returns the currently bound analyzers by type.
func (m *Manager) Registered() map[record.Type]Analyzer {
	m.mu.Lock()
	defer m.mu.Unlock()

	return maps.Clone(m.byType)
}
