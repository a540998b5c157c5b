package record_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

func TestParseType_FoldsCaseAndUnknowns(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want record.Type
	}{
		{name: "temp", raw: "temp", want: record.TypeTemperature},
		{name: "temp upper", raw: "TEMP", want: record.TypeTemperature},
		{name: "humidity mixed", raw: "Humidity", want: record.TypeHumidity},
		{name: "battery", raw: "battery", want: record.TypeBattery},
		{name: "padded", raw: "  temp ", want: record.TypeTemperature},
		{name: "empty", raw: "", want: record.TypeUnknown},
		{name: "unrecognized", raw: "pressure", want: record.TypeUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, record.ParseType(tc.raw))
		})
	}
}

func TestNew_NormalizesTemperature(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  float64
		want float64
	}{
		{name: "centi degrees", raw: 2450, want: 24.5},
		{name: "centi degrees high", raw: 3150, want: 31.5},
		{name: "already degrees", raw: 24.5, want: 24.5},
		{name: "exactly hundred untouched", raw: 100, want: 100},
		{name: "rounds to two decimals", raw: 12345, want: 123.45},
		{name: "absent", raw: 0, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := record.New(record.Fields{Temperature: tc.raw})
			assert.InDelta(t, tc.want, rec.Temperature, 1e-9)
		})
	}
}

func TestNew_NormalizesHumidity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  float64
		want float64
	}{
		{name: "deci percent", raw: 820, want: 82},
		{name: "already percent", raw: 45, want: 45},
		{name: "exactly hundred untouched", raw: 100, want: 100},
		{name: "deci percent low", raw: 305, want: 30.5},
		{name: "absent", raw: 0, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := record.New(record.Fields{Humidity: tc.raw})
			assert.InDelta(t, tc.want, rec.Humidity, 1e-9)
		})
	}
}

func TestNew_LowercasesState(t *testing.T) {
	t.Parallel()

	rec := record.New(record.Fields{Serial: "111", State: "OK"})

	assert.Equal(t, "ok", rec.State)
}

func TestNew_SynthesizesSerialForManufacturerOnlyRecords(t *testing.T) {
	t.Parallel()

	rec := record.New(record.Fields{Manufacturer: "Qualcomm"})

	require.Len(t, rec.Serial, len("Unknown-")+8)
	assert.True(t, len(rec.Serial) > 8 && rec.Serial[:8] == "Unknown-", "serial %q", rec.Serial)

	for _, c := range rec.Serial[8:] {
		assert.Contains(t, "0123456789abcdef", string(c))
	}
}

func TestNew_KeepsEmptySerialWithoutManufacturer(t *testing.T) {
	t.Parallel()

	rec := record.New(record.Fields{Temperature: 2450})

	assert.Empty(t, rec.Serial)
	assert.Equal(t, record.TypeUnknown, rec.Type)
}

func TestNew_StampsTimestamp(t *testing.T) {
	t.Parallel()

	before := time.Now()
	rec := record.New(record.Fields{Serial: "111"})
	after := time.Now()

	assert.False(t, rec.Timestamp.Before(before))
	assert.False(t, rec.Timestamp.After(after))
}

func TestRecord_BatteryHelpers(t *testing.T) {
	t.Parallel()

	withBattery := record.New(record.Fields{Serial: "111", BatteryLevel: 25, BatteryMax: 100})
	require.True(t, withBattery.HasBattery())
	assert.InDelta(t, 25.0, withBattery.BatteryPercent(), 1e-9)

	levelOnly := record.New(record.Fields{Serial: "222", BatteryLevel: 25})
	assert.False(t, levelOnly.HasBattery())
}

func TestRecord_JSONRoundTripModuloTimestamp(t *testing.T) {
	t.Parallel()

	original := record.New(record.Fields{
		Serial:       "333",
		Type:         record.TypeTemperature,
		Temperature:  3150,
		Humidity:     820,
		BatteryLevel: 25,
		BatteryMax:   100,
		State:        "OK",
		Manufacturer: "Qualcomm",
		Voltage:      3.3,
	})

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded record.Record

	require.NoError(t, json.Unmarshal(raw, &decoded))

	original.Timestamp = time.Time{}
	decoded.Timestamp = time.Time{}
	assert.Equal(t, original, decoded)
}
