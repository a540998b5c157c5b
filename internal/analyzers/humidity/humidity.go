// Package humidity implements the humidity range analyzer.
package humidity

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

// Default range thresholds in percent relative humidity.
const (
	DefaultLowThreshold  = 30.0
	DefaultHighThreshold = 70.0
)

// Statuses reported by the analyzer.
const (
	StatusNormal   = "Normal"
	StatusTooDry   = "Too Dry"
	StatusTooHumid = "Too Humid"
)

// Analyzer accumulates positive humidity readings and classifies the
// observed range against its thresholds.
type Analyzer struct {
	low  float64
	high float64

	count int
	sum   float64
	min   float64
	max   float64
}

// New returns an analyzer with the given thresholds. Non-positive values
// fall back to the defaults.
func New(low, high float64) *Analyzer {
	if low <= 0 {
		low = DefaultLowThreshold
	}

	if high <= 0 {
		high = DefaultHighThreshold
	}

	return &Analyzer{low: low, high: high}
}

func (a *Analyzer) Name() string { return "humidity" }

// Analyze folds a record in. Records without a humidity reading are
// ignored.
func (a *Analyzer) Analyze(rec record.Record) {
	if rec.Humidity <= 0 {
		return
	}

	if a.count == 0 || rec.Humidity < a.min {
		a.min = rec.Humidity
	}

	if a.count == 0 || rec.Humidity > a.max {
		a.max = rec.Humidity
	}

	a.sum += rec.Humidity
	a.count++
}

// Status classifies the observed range. Dryness wins when both bounds are
// violated.
func (a *Analyzer) Status() string {
	switch {
	case a.count == 0:
		return StatusNormal
	case a.min < a.low:
		return StatusTooDry
	case a.max > a.high:
		return StatusTooHumid
	default:
		return StatusNormal
	}
}

func (a *Analyzer) Report() string {
	var b strings.Builder

	b.WriteString("Humidity Analysis\n")

	if a.count == 0 {
		b.WriteString("  No readings\n")

		return b.String()
	}

	fmt.Fprintf(&b, "  Readings: %d\n", a.count)
	fmt.Fprintf(&b, "  Average: %.2f%%\n", a.sum/float64(a.count))
	fmt.Fprintf(&b, "  Minimum: %.2f%%\n", a.min)
	fmt.Fprintf(&b, "  Maximum: %.2f%%\n", a.max)
	fmt.Fprintf(&b, "  Status: %s\n", a.Status())

	return b.String()
}
