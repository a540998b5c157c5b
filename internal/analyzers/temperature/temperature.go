// Package temperature implements the temperature trend analyzer.
package temperature

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

// Default alerting thresholds in degrees Celsius.
const (
	DefaultWarningThreshold  = 25.0
	DefaultCriticalThreshold = 30.0
)

// Statuses reported by the analyzer.
const (
	StatusNormal   = "Normal"
	StatusWarning  = "Warning"
	StatusCritical = "CRITICAL"
)

// Analyzer accumulates positive temperature readings and classifies the
// observed maximum against its thresholds.
type Analyzer struct {
	warning  float64
	critical float64

	count int
	sum   float64
	min   float64
	max   float64
}

// New returns an analyzer with the given thresholds. Non-positive values
// fall back to the defaults.
func New(warning, critical float64) *Analyzer {
	if warning <= 0 {
		warning = DefaultWarningThreshold
	}

	if critical <= 0 {
		critical = DefaultCriticalThreshold
	}

	return &Analyzer{warning: warning, critical: critical}
}

func (a *Analyzer) Name() string { return "temperature" }

// Analyze folds a record in. Records without a temperature reading are
// ignored regardless of their declared type.
func (a *Analyzer) Analyze(rec record.Record) {
	if rec.Temperature <= 0 {
		return
	}

	if a.count == 0 || rec.Temperature < a.min {
		a.min = rec.Temperature
	}

	if a.count == 0 || rec.Temperature > a.max {
		a.max = rec.Temperature
	}

	a.sum += rec.Temperature
	a.count++
}

// Status classifies the observed maximum.
func (a *Analyzer) Status() string {
	switch {
	case a.count == 0:
		return StatusNormal
	case a.max > a.critical:
		return StatusCritical
	case a.max > a.warning:
		return StatusWarning
	default:
		return StatusNormal
	}
}

func (a *Analyzer) Report() string {
	var b strings.Builder

	b.WriteString("Temperature Analysis\n")

	if a.count == 0 {
		b.WriteString("  No readings\n")

		return b.String()
	}

	fmt.Fprintf(&b, "  Readings: %d\n", a.count)
	fmt.Fprintf(&b, "  Average: %.2f°C\n", a.sum/float64(a.count))
	fmt.Fprintf(&b, "  Minimum: %.2f°C\n", a.min)
	fmt.Fprintf(&b, "  Maximum: %.2f°C\n", a.max)
	fmt.Fprintf(&b, "  Status: %s\n", a.Status())

	return b.String()
}
