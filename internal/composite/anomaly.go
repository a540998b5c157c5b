package composite

import (
	"fmt"
	"strings"
)

// Default anomaly bounds. Readings outside [low, high] are reported.
const (
	defaultAnomalyTempLow  = 15
	defaultAnomalyTempHigh = 30
	defaultAnomalyHumLow   = 30
	defaultAnomalyHumHigh  = 70
)

// AnomalyVisitor reports individual readings outside the configured
// temperature and humidity bounds. Groups are ignored.
type AnomalyVisitor struct {
	TempLow  float64
	TempHigh float64
	HumLow   float64
	HumHigh  float64

	findings []string
}

// NewAnomalyVisitor returns an anomaly visitor with the default bounds.
// Adjust the exported bounds before the walk to customize.
func NewAnomalyVisitor() *AnomalyVisitor {
	return &AnomalyVisitor{
		TempLow:  defaultAnomalyTempLow,
		TempHigh: defaultAnomalyTempHigh,
		HumLow:   defaultAnomalyHumLow,
		HumHigh:  defaultAnomalyHumHigh,
	}
}

// Reset clears findings but keeps the configured bounds.
func (a *AnomalyVisitor) Reset() {
	a.findings = nil
}

func (a *AnomalyVisitor) VisitGroup(*Group) {}

func (a *AnomalyVisitor) VisitLeaf(l *Leaf) {
	for _, rec := range l.history {
		if rec.Temperature > 0 {
			switch {
			case rec.Temperature > a.TempHigh:
				a.add("%s: temperature %.2f°C above limit %.2f°C", l.Name(), rec.Temperature, a.TempHigh)
			case rec.Temperature < a.TempLow:
				a.add("%s: temperature %.2f°C below limit %.2f°C", l.Name(), rec.Temperature, a.TempLow)
			}
		}

		if rec.Humidity > 0 {
			switch {
			case rec.Humidity > a.HumHigh:
				a.add("%s: humidity %.2f%% above limit %.2f%%", l.Name(), rec.Humidity, a.HumHigh)
			case rec.Humidity < a.HumLow:
				a.add("%s: humidity %.2f%% below limit %.2f%%", l.Name(), rec.Humidity, a.HumLow)
			}
		}
	}
}

func (a *AnomalyVisitor) add(format string, args ...any) {
	a.findings = append(a.findings, fmt.Sprintf(format, args...))
}

func (a *AnomalyVisitor) Result() string {
	var b strings.Builder

	b.WriteString("Anomaly Report\n")

	if len(a.findings) == 0 {
		b.WriteString("  No anomalies detected\n")

		return b.String()
	}

	for _, finding := range a.findings {
		fmt.Fprintf(&b, "  %s\n", finding)
	}

	return b.String()
}
