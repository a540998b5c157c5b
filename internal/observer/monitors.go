package observer

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

// Default temperature monitor thresholds in degrees Celsius.
const (
	DefaultTempWarn     = 25.0
	DefaultTempCritical = 30.0
)

// DefaultBatteryWarnRatio is the charge ratio under which the battery
// monitor warns.
const DefaultBatteryWarnRatio = 0.25

// TemperatureMonitor logs temperature excursions on temp-typed records and
// ignores everything else.
type TemperatureMonitor struct {
	Warn     float64
	Critical float64

	logger    *slog.Logger
	warnings  atomic.Int64
	criticals atomic.Int64
}

// NewTemperatureMonitor returns a monitor with the default thresholds.
func NewTemperatureMonitor(logger *slog.Logger) *TemperatureMonitor {
	if logger == nil {
		logger = slog.Default()
	}

	return &TemperatureMonitor{Warn: DefaultTempWarn, Critical: DefaultTempCritical, logger: logger}
}

func (m *TemperatureMonitor) Name() string { return "temperature-monitor" }

func (m *TemperatureMonitor) OnRecord(rec record.Record) {
	if rec.Type != record.TypeTemperature || rec.Temperature <= 0 {
		return
	}

	switch {
	case rec.Temperature > m.Critical:
		m.criticals.Add(1)
		m.logger.Warn("critical temperature",
			slog.String("serial", rec.Serial),
			slog.Float64("temperature", rec.Temperature),
			slog.Float64("threshold", m.Critical))
	case rec.Temperature > m.Warn:
		m.warnings.Add(1)
		m.logger.Warn("high temperature",
			slog.String("serial", rec.Serial),
			slog.Float64("temperature", rec.Temperature),
			slog.Float64("threshold", m.Warn))
	}
}

// Warnings returns the number of warn-level excursions seen so far.
func (m *TemperatureMonitor) Warnings() int64 { return m.warnings.Load() }

// Criticals returns the number of critical excursions seen so far.
func (m *TemperatureMonitor) Criticals() int64 { return m.criticals.Load() }

// BatteryMonitor warns when a record's charge ratio drops below the
// configured ratio. Records without battery data are ignored.
type BatteryMonitor struct {
	WarnRatio float64

	logger   *slog.Logger
	warnings atomic.Int64
}

// NewBatteryMonitor returns a monitor with the default warn ratio.
func NewBatteryMonitor(logger *slog.Logger) *BatteryMonitor {
	if logger == nil {
		logger = slog.Default()
	}

	return &BatteryMonitor{WarnRatio: DefaultBatteryWarnRatio, logger: logger}
}

func (m *BatteryMonitor) Name() string { return "battery-monitor" }

func (m *BatteryMonitor) OnRecord(rec record.Record) {
	if !rec.HasBattery() {
		return
	}

	if rec.BatteryLevel/rec.BatteryMax < m.WarnRatio {
		m.warnings.Add(1)
		m.logger.Warn("low battery",
			slog.String("serial", rec.Serial),
			slog.Float64("percent", rec.BatteryPercent()))
	}
}

// Warnings returns the number of low-battery warnings seen so far.
func (m *BatteryMonitor) Warnings() int64 { return m.warnings.Load() }

// StatsCollector accumulates record counts for end-of-run summaries.
type StatsCollector struct {
	mu     sync.Mutex
	total  int
	byType map[record.Type]int
}

// NewStatsCollector returns an empty collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{byType: make(map[record.Type]int)}
}

func (s *StatsCollector) Name() string { return "stats-collector" }

func (s *StatsCollector) OnRecord(rec record.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.byType[rec.Type]++
}

// Total returns the number of records observed.
func (s *StatsCollector) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.total
}

// CountByType returns a copy of the per-type counters.
func (s *StatsCollector) CountByType() map[record.Type]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return maps.Clone(s.byType)
}

// Summary renders a one-line digest like "3 records (humidity: 1, temp: 2)".
func (s *StatsCollector) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.total == 0 {
		return "no records observed"
	}

	parts := make([]string, 0, len(s.byType))
	for _, t := range slices.Sorted(maps.Keys(s.byType)) {
		parts = append(parts, fmt.Sprintf("%s: %d", t, s.byType[t]))
	}

	return fmt.Sprintf("%s records (%s)", humanize.Comma(int64(s.total)), strings.Join(parts, ", "))
}
