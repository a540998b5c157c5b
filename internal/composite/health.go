package composite

import (
	"fmt"
	"strings"
)

// healthCriticalBelow is the aggregated battery percentage under which a
// sensor is critical.
const healthCriticalBelow = 30

// healthWarningBelow is the aggregated battery percentage under which a
// sensor is a warning; at or above it the sensor is healthy.
const healthWarningBelow = 50

// HealthVisitor classifies every sensor with data by its aggregated battery
// level. Sensors without any stored records are skipped.
type HealthVisitor struct {
	healthy  []string
	warning  []string
	critical []string
}

// NewHealthVisitor returns an empty health visitor.
func NewHealthVisitor() *HealthVisitor {
	return &HealthVisitor{}
}

func (h *HealthVisitor) Reset() {
	*h = HealthVisitor{}
}

func (h *HealthVisitor) VisitGroup(*Group) {}

func (h *HealthVisitor) VisitLeaf(l *Leaf) {
	stats := l.Stats()
	if stats.DataPointCount == 0 {
		return
	}

	switch {
	case stats.BatteryLevel < healthCriticalBelow:
		h.critical = append(h.critical, l.Name())
	case stats.BatteryLevel < healthWarningBelow:
		h.warning = append(h.warning, l.Name())
	default:
		h.healthy = append(h.healthy, l.Name())
	}
}

func (h *HealthVisitor) Result() string {
	var b strings.Builder

	b.WriteString("Sensor Health Report\n")
	fmt.Fprintf(&b, "  Healthy: %d\n", len(h.healthy))
	fmt.Fprintf(&b, "  Warning: %d\n", len(h.warning))
	fmt.Fprintf(&b, "  Critical: %d\n", len(h.critical))

	if len(h.warning) > 0 {
		fmt.Fprintf(&b, "  Warning sensors: %s\n", strings.Join(h.warning, ", "))
	}

	if len(h.critical) > 0 {
		fmt.Fprintf(&b, "  Critical sensors: %s\n", strings.Join(h.critical, ", "))
	}

	return b.String()
}
