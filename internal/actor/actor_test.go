package actor_test

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sensorhub/internal/actor"
	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedClock pins alert timestamps so line assertions stay exact.
func fixedClock() time.Time {
	return time.Date(2026, time.January, 2, 10, 30, 0, 0, time.UTC)
}

func startedSubsystem(t *testing.T, cfg actor.Config) *actor.Subsystem {
	t.Helper()

	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}

	if cfg.Clock == nil {
		cfg.Clock = fixedClock
	}

	s := actor.NewSubsystem(cfg)
	s.Start()
	t.Cleanup(s.Shutdown)

	return s
}

func tempRec(serial string, degrees float64) record.Record {
	return record.New(record.Fields{Serial: serial, Type: record.TypeTemperature, Temperature: degrees})
}

func humRec(serial string, percent float64) record.Record {
	return record.New(record.Fields{Serial: serial, Type: record.TypeHumidity, Humidity: percent})
}

func batRec(serial string, level, maxLevel float64) record.Record {
	return record.New(record.Fields{Serial: serial, Type: record.TypeBattery, BatteryLevel: level, BatteryMax: maxLevel})
}

func TestSubsystem_IngestThenStatus(t *testing.T) {
	t.Parallel()

	s := startedSubsystem(t, actor.Config{})

	require.NoError(t, s.Send(tempRec("111", 20)))
	require.NoError(t, s.Send(tempRec("111", 22)))
	require.NoError(t, s.Send(humRec("222", 55)))

	// Mailboxes are FIFO, so the status request observes every prior ingest.
	status, err := s.Processed()
	require.NoError(t, err)

	assert.Equal(t, 3, status.Processed)
	assert.Equal(t, 2, status.Sensors)
}

func TestSubsystem_IngestDropsEmptySerial(t *testing.T) {
	t.Parallel()

	s := startedSubsystem(t, actor.Config{})

	// No serial and no manufacturer, so normalization leaves the serial
	// empty and the store refuses the record.
	require.NoError(t, s.Send(record.New(record.Fields{Type: record.TypeTemperature, Temperature: 20})))
	require.NoError(t, s.Send(tempRec("111", 22)))

	status, err := s.Processed()
	require.NoError(t, err)

	assert.Equal(t, 1, status.Processed)
	assert.Equal(t, 1, status.Sensors)
}

func TestSubsystem_AnalyzeCountsDistinctSensors(t *testing.T) {
	t.Parallel()

	s := startedSubsystem(t, actor.Config{})

	// Sensor 111 reports temperature twice, 222 reports both kinds, 333
	// never reports temperature.
	require.NoError(t, s.Send(tempRec("111", 20)))
	require.NoError(t, s.Send(tempRec("111", 30)))
	require.NoError(t, s.Send(tempRec("222", 10)))
	require.NoError(t, s.Send(humRec("222", 40)))
	require.NoError(t, s.Send(humRec("333", 80)))

	res, err := s.AnalyzeType(record.TypeTemperature)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Count)
	assert.InDelta(t, 20.0, res.Temperature, 1e-9)
	// The humidity mean covers every reading of the matched sensors, so 333
	// stays out of it.
	assert.InDelta(t, 40.0, res.Humidity, 1e-9)
	assert.Zero(t, res.BatteryLevel)
}

func TestSubsystem_AnalyzeUnknownTypeIsEmpty(t *testing.T) {
	t.Parallel()

	s := startedSubsystem(t, actor.Config{})

	require.NoError(t, s.Send(tempRec("111", 20)))

	res, err := s.AnalyzeType(record.TypeBattery)
	require.NoError(t, err)

	assert.Zero(t, res.Count)
	assert.Zero(t, res.Temperature)
}

func TestSubsystem_StoredHistoryIsDeepCopy(t *testing.T) {
	t.Parallel()

	s := startedSubsystem(t, actor.Config{})

	require.NoError(t, s.Send(tempRec("111", 20)))

	first, err := s.StoredHistory()
	require.NoError(t, err)
	require.Len(t, first["111"], 1)

	first["111"][0].Temperature = 99
	first["999"] = []record.Record{tempRec("999", 1)}

	second, err := s.StoredHistory()
	require.NoError(t, err)

	assert.InDelta(t, 20.0, second["111"][0].Temperature, 1e-9)
	assert.NotContains(t, second, "999")
}

func TestSubsystem_HighTempAlertLine(t *testing.T) {
	t.Parallel()

	s := startedSubsystem(t, actor.Config{})

	require.NoError(t, s.Send(tempRec("333", 31.5)))

	log, err := s.AlertLog()
	require.NoError(t, err)

	assert.Equal(t,
		"[10:30:00] HIGH TEMP ALERT: Sensor 333 reported 31.5°C (threshold: 30°C)",
		log)
}

func TestSubsystem_LowBatteryAlertLine(t *testing.T) {
	t.Parallel()

	s := startedSubsystem(t, actor.Config{})

	require.NoError(t, s.Send(batRec("333", 25, 100)))

	log, err := s.AlertLog()
	require.NoError(t, err)

	assert.Equal(t,
		"[10:30:00] LOW BATTERY ALERT: Sensor 333 battery at 25.0% (threshold: 30%)",
		log)
}

func TestSubsystem_LowRulesIgnoreAbsentReadings(t *testing.T) {
	t.Parallel()

	s := startedSubsystem(t, actor.Config{})

	// A record without temperature or humidity must not trip the low rules.
	require.NoError(t, s.Send(batRec("111", 90, 100)))

	log, err := s.AlertLog()
	require.NoError(t, err)

	assert.Empty(t, log)
}

func TestSubsystem_OneAlertPerDimension(t *testing.T) {
	t.Parallel()

	s := startedSubsystem(t, actor.Config{})

	rec := record.New(record.Fields{
		Serial:       "444",
		Type:         record.TypeTemperature,
		Temperature:  35,
		Humidity:     85,
		BatteryLevel: 10,
		BatteryMax:   100,
	})
	require.NoError(t, s.Send(rec))

	log, err := s.AlertLog()
	require.NoError(t, err)

	lines := strings.Split(log, "\n")
	require.Len(t, lines, 3)

	assert.Contains(t, lines[0], "HIGH TEMP ALERT")
	assert.Contains(t, lines[1], "HIGH HUMIDITY ALERT")
	assert.Contains(t, lines[2], "LOW BATTERY ALERT")
}

func TestSubsystem_ThresholdOverridePerType(t *testing.T) {
	t.Parallel()

	humidityOnly := actor.DefaultThresholds()
	humidityOnly.HumidityHigh = 60

	s := startedSubsystem(t, actor.Config{
		Overrides: map[record.Type]actor.Thresholds{record.TypeHumidity: humidityOnly},
	})

	require.NoError(t, s.Send(humRec("111", 70)))
	// Same reading under a type without the override stays silent.
	require.NoError(t, s.Send(record.New(record.Fields{Serial: "222", Type: record.TypeTemperature, Humidity: 70})))

	log, err := s.AlertLog()
	require.NoError(t, err)

	lines := strings.Split(log, "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Sensor 111")
	assert.Contains(t, lines[0], "threshold: 60%")
}

func TestSubsystem_ReplyTimesOutWhenActorNotStarted(t *testing.T) {
	t.Parallel()

	s := actor.NewSubsystem(actor.Config{
		ReplyTimeout: 30 * time.Millisecond,
		Logger:       discardLogger(),
	})

	_, err := s.Processed()

	require.ErrorIs(t, err, actor.ErrTimeout)
}

func TestSubsystem_SendAfterShutdownFails(t *testing.T) {
	t.Parallel()

	s := actor.NewSubsystem(actor.Config{Logger: discardLogger()})
	s.Start()
	s.Shutdown()

	err := s.Send(tempRec("111", 20))

	require.ErrorIs(t, err, actor.ErrStopped)
}

func TestSubsystem_ShutdownDrainsPendingIngests(t *testing.T) {
	t.Parallel()

	s := actor.NewSubsystem(actor.Config{Logger: discardLogger(), Clock: fixedClock})
	s.Start()

	for i := range 50 {
		require.NoError(t, s.Send(tempRec("111", float64(i))))
	}

	status, err := s.Processed()
	require.NoError(t, err)
	assert.Equal(t, 50, status.Processed)

	s.Shutdown()
	s.Shutdown() // idempotent
}
