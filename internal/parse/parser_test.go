package parse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sensorhub/internal/parse"
	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

func TestChain_ParsesStandardLine(t *testing.T) {
	t.Parallel()

	rec, err := parse.DefaultChain().Parse("serial:111temp:2450type:tempbat:80batmax:100state:OK")
	require.NoError(t, err)

	assert.Equal(t, "111", rec.Serial)
	assert.Equal(t, record.TypeTemperature, rec.Type)
	assert.InDelta(t, 24.5, rec.Temperature, 1e-9)
	assert.InDelta(t, 80.0, rec.BatteryLevel, 1e-9)
	assert.InDelta(t, 100.0, rec.BatteryMax, 1e-9)
	assert.Equal(t, "ok", rec.State)
}

func TestChain_ParsesManufacturerFirstLine(t *testing.T) {
	t.Parallel()

	rec, err := parse.DefaultChain().Parse("manu:Qualcommserial:333temp:3150type:tempbat:25batmax:100")
	require.NoError(t, err)

	assert.Equal(t, "Qualcomm", rec.Manufacturer)
	assert.Equal(t, "333", rec.Serial)
	assert.Equal(t, record.TypeTemperature, rec.Type)
	assert.InDelta(t, 31.5, rec.Temperature, 1e-9)
	assert.InDelta(t, 25.0, rec.BatteryLevel, 1e-9)
	assert.InDelta(t, 100.0, rec.BatteryMax, 1e-9)
}

func TestChain_RejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := parse.DefaultChain().Parse("garbage:data")

	require.ErrorIs(t, err, parse.ErrUnrecognized)
}

func TestChain_RejectsLineWithoutValues(t *testing.T) {
	t.Parallel()

	_, err := parse.DefaultChain().Parse("serial:")

	require.ErrorIs(t, err, parse.ErrMalformed)
}

func TestChain_FirstOccurrenceWins(t *testing.T) {
	t.Parallel()

	rec, err := parse.DefaultChain().Parse("serial:111serial:222temp:20temp:99")
	require.NoError(t, err)

	assert.Equal(t, "111", rec.Serial)
	assert.InDelta(t, 20.0, rec.Temperature, 1e-9)
}

func TestChain_FoldsKeyCase(t *testing.T) {
	t.Parallel()

	rec, err := parse.DefaultChain().Parse("SERIAL:111TEMP:30")
	require.NoError(t, err)

	assert.Equal(t, "111", rec.Serial)
	assert.InDelta(t, 30.0, rec.Temperature, 1e-9)
}

func TestChain_UnknownKeysStayInsideValues(t *testing.T) {
	t.Parallel()

	// "foo" is not a key alias, so "foo:bar" belongs to the serial value.
	rec, err := parse.DefaultChain().Parse("serial:111foo:barstate:OK")
	require.NoError(t, err)

	assert.Equal(t, "111foo:bar", rec.Serial)
	assert.Equal(t, "ok", rec.State)
}

func TestChain_VoltageAliases(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want float64
	}{
		{name: "v", raw: "serial:111v:3.3", want: 3.3},
		{name: "v2", raw: "serial:111v2:5", want: 5},
		{name: "v3", raw: "serial:111v3:12", want: 12},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec, err := parse.DefaultChain().Parse(tc.raw)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, rec.Voltage, 1e-9)
		})
	}
}

func TestChain_BadNumberCoercesToZero(t *testing.T) {
	t.Parallel()

	rec, err := parse.DefaultChain().Parse("serial:111temp:warm")
	require.NoError(t, err)

	assert.Zero(t, rec.Temperature)
}

func TestChain_TrimsSurroundingWhitespace(t *testing.T) {
	t.Parallel()

	rec, err := parse.DefaultChain().Parse("  serial:111 state: OK  ")
	require.NoError(t, err)

	assert.Equal(t, "111", rec.Serial)
	assert.Equal(t, "ok", rec.State)
}

func TestChain_SelectReportsParser(t *testing.T) {
	t.Parallel()

	chain := parse.DefaultChain()

	p, ok := chain.Select("serial:1")
	require.True(t, ok)
	assert.Equal(t, "standard", p.Name())

	p, ok = chain.Select("manufac:TI")
	require.True(t, ok)
	assert.Equal(t, "manufacturer-first", p.Name())

	_, ok = chain.Select("type:temp")
	assert.False(t, ok)
}

func TestManufacturerFirstParser_PrefixesAreExclusive(t *testing.T) {
	t.Parallel()

	var p parse.ManufacturerFirstParser

	assert.True(t, p.CanParse("manu:TI"))
	assert.True(t, p.CanParse("manufac:TI"))
	assert.False(t, p.CanParse("manufacturer:TI"))
	assert.False(t, p.CanParse("serial:1"))
}
