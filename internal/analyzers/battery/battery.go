// Package battery implements the battery health analyzer.
package battery

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

// DefaultLowThreshold is the charge ratio under which a sensor is listed as
// low. Note this is a ratio, not a percentage; the alerting subsystem keeps
// its own percentage-based threshold.
const DefaultLowThreshold = 0.2

// Analyzer tracks charge ratios across every record that carries battery
// data, keyed by sensor serial.
type Analyzer struct {
	low float64

	readings int
	ratioSum float64
	latest   map[string]float64
	order    []string
}

// New returns an analyzer with the given low-charge ratio threshold.
// Non-positive values fall back to the default.
func New(low float64) *Analyzer {
	if low <= 0 {
		low = DefaultLowThreshold
	}

	return &Analyzer{low: low, latest: make(map[string]float64)}
}

func (a *Analyzer) Name() string { return "battery" }

// Analyze folds a record in. Only records with both a battery level and a
// capacity count; the latest ratio per sensor drives the low list.
func (a *Analyzer) Analyze(rec record.Record) {
	if !rec.HasBattery() {
		return
	}

	ratio := rec.BatteryLevel / rec.BatteryMax

	a.readings++
	a.ratioSum += ratio

	if rec.Serial == "" {
		return
	}

	if _, seen := a.latest[rec.Serial]; !seen {
		a.order = append(a.order, rec.Serial)
	}

	a.latest[rec.Serial] = ratio
}

// LowSensors returns the serials whose latest charge ratio is below the
// threshold, in first-seen order.
func (a *Analyzer) LowSensors() []string {
	var low []string

	for _, serial := range a.order {
		if a.latest[serial] < a.low {
			low = append(low, serial)
		}
	}

	return low
}

func (a *Analyzer) Report() string {
	var b strings.Builder

	b.WriteString("Battery Analysis\n")

	if a.readings == 0 {
		b.WriteString("  No readings\n")

		return b.String()
	}

	fmt.Fprintf(&b, "  Sensors tracked: %d\n", len(a.latest))
	fmt.Fprintf(&b, "  Readings: %d\n", a.readings)
	fmt.Fprintf(&b, "  Average charge: %.1f%%\n", a.ratioSum/float64(a.readings)*100)

	low := a.LowSensors()
	if len(low) == 0 {
		b.WriteString("  Low battery sensors: none\n")

		return b.String()
	}

	entries := make([]string, 0, len(low))
	for _, serial := range low {
		entries = append(entries, fmt.Sprintf("%s (%.1f%%)", serial, a.latest[serial]*100))
	}

	fmt.Fprintf(&b, "  Low battery sensors: %s\n", strings.Join(entries, ", "))

	return b.String()
}
