package temperature_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/sensorhub/internal/analyzers/temperature"
	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

func reading(degrees float64) record.Record {
	return record.New(record.Fields{Serial: "111", Type: record.TypeTemperature, Temperature: degrees})
}

func TestAnalyzer_ReportAfterMixedReadings(t *testing.T) {
	t.Parallel()

	a := temperature.New(0, 0)
	a.Analyze(reading(24.5))
	a.Analyze(reading(31.5))

	report := a.Report()

	assert.Contains(t, report, "Readings: 2")
	assert.Contains(t, report, "Average: 28.00°C")
	assert.Contains(t, report, "Minimum: 24.50°C")
	assert.Contains(t, report, "Maximum: 31.50°C")
	assert.Contains(t, report, "Status: CRITICAL")
}

func TestAnalyzer_StatusThresholds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		readings []float64
		want     string
	}{
		{name: "no readings", readings: nil, want: temperature.StatusNormal},
		{name: "below warning", readings: []float64{20, 24}, want: temperature.StatusNormal},
		{name: "warning at boundary stays normal", readings: []float64{25}, want: temperature.StatusNormal},
		{name: "above warning", readings: []float64{26}, want: temperature.StatusWarning},
		{name: "above critical", readings: []float64{31}, want: temperature.StatusCritical},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a := temperature.New(0, 0)
			for _, v := range tc.readings {
				a.Analyze(reading(v))
			}

			assert.Equal(t, tc.want, a.Status())
		})
	}
}

func TestAnalyzer_IgnoresRecordsWithoutTemperature(t *testing.T) {
	t.Parallel()

	a := temperature.New(0, 0)
	a.Analyze(record.New(record.Fields{Serial: "111", Humidity: 50}))

	assert.Contains(t, a.Report(), "No readings")
}

func TestAnalyzer_CustomThresholds(t *testing.T) {
	t.Parallel()

	a := temperature.New(10, 20)
	a.Analyze(reading(15))

	assert.Equal(t, temperature.StatusWarning, a.Status())
}
