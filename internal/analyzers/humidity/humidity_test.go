package humidity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/sensorhub/internal/analyzers/humidity"
	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

func reading(percent float64) record.Record {
	return record.New(record.Fields{Serial: "444", Type: record.TypeHumidity, Humidity: percent})
}

func TestAnalyzer_StatusThresholds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		readings []float64
		want     string
	}{
		{name: "no readings", readings: nil, want: humidity.StatusNormal},
		{name: "in range", readings: []float64{40, 60}, want: humidity.StatusNormal},
		{name: "too dry", readings: []float64{25, 50}, want: humidity.StatusTooDry},
		{name: "too humid", readings: []float64{50, 82}, want: humidity.StatusTooHumid},
		{name: "dry wins over humid", readings: []float64{25, 82}, want: humidity.StatusTooDry},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a := humidity.New(0, 0)
			for _, v := range tc.readings {
				a.Analyze(reading(v))
			}

			assert.Equal(t, tc.want, a.Status())
		})
	}
}

func TestAnalyzer_ReportContents(t *testing.T) {
	t.Parallel()

	a := humidity.New(0, 0)
	a.Analyze(reading(40))
	a.Analyze(reading(60))

	report := a.Report()

	assert.Contains(t, report, "Readings: 2")
	assert.Contains(t, report, "Average: 50.00%")
	assert.Contains(t, report, "Minimum: 40.00%")
	assert.Contains(t, report, "Maximum: 60.00%")
	assert.Contains(t, report, "Status: Normal")
}

func TestAnalyzer_IgnoresRecordsWithoutHumidity(t *testing.T) {
	t.Parallel()

	a := humidity.New(0, 0)
	a.Analyze(record.New(record.Fields{Serial: "444", Temperature: 20}))

	assert.Contains(t, a.Report(), "No readings")
}
