package analyze_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sensorhub/internal/analyzers/analyze"
	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

// countingAnalyzer records how many times it was invoked.
type countingAnalyzer struct {
	name  string
	calls int
}

func (c *countingAnalyzer) Name() string { return c.name }

func (c *countingAnalyzer) Analyze(record.Record) { c.calls++ }

func (c *countingAnalyzer) Report() string { return c.name }

func TestManager_DispatchesByType(t *testing.T) {
	t.Parallel()

	m := analyze.NewManager()
	temp := &countingAnalyzer{name: "temperature"}
	m.Register(record.TypeTemperature, temp)

	m.AnalyzeData(record.New(record.Fields{Serial: "1", Type: record.TypeTemperature, Temperature: 20}))
	m.AnalyzeData(record.New(record.Fields{Serial: "2", Type: record.TypeHumidity, Humidity: 50}))

	assert.Equal(t, 1, temp.calls)
}

func TestManager_BatteryAnalyzerSeesEveryRecordOnce(t *testing.T) {
	t.Parallel()

	m := analyze.NewManager()
	bat := &countingAnalyzer{name: "battery"}
	m.Register(record.TypeBattery, bat)

	m.AnalyzeData(record.New(record.Fields{Serial: "1", Type: record.TypeTemperature, Temperature: 20}))
	m.AnalyzeData(record.New(record.Fields{Serial: "2", Type: record.TypeBattery, BatteryLevel: 50, BatteryMax: 100}))
	m.AnalyzeData(record.New(record.Fields{Serial: "3"}))

	// One call per record: the battery-typed record must not be double-fed.
	assert.Equal(t, 3, bat.calls)
}

func TestManager_RegisterReplaces(t *testing.T) {
	t.Parallel()

	m := analyze.NewManager()
	first := &countingAnalyzer{name: "temperature"}
	second := &countingAnalyzer{name: "temperature"}

	m.Register(record.TypeTemperature, first)
	m.Register(record.TypeTemperature, second)

	m.AnalyzeData(record.New(record.Fields{Serial: "1", Type: record.TypeTemperature, Temperature: 20}))

	assert.Zero(t, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestManager_ReportsKeyedByName(t *testing.T) {
	t.Parallel()

	m := analyze.NewManager()
	m.Register(record.TypeTemperature, &countingAnalyzer{name: "temperature"})
	m.Register(record.TypeBattery, &countingAnalyzer{name: "battery"})

	reports := m.Reports()

	require.Len(t, reports, 2)
	assert.Contains(t, reports, "temperature")
	assert.Contains(t, reports, "battery")
}
