package sink_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
	"github.com/Sumatoshi-tech/sensorhub/internal/sink"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sampleRecord pins the timestamp so text lines are exact.
func sampleRecord() record.Record {
	return record.Record{
		Serial:       "111",
		Type:         record.TypeTemperature,
		Temperature:  24.5,
		BatteryLevel: 80,
		BatteryMax:   100,
		State:        "ok",
		Timestamp:    time.Date(2026, time.January, 2, 10, 30, 0, 0, time.UTC),
	}
}

// failingOutput always rejects writes, for isolation tests.
type failingOutput struct{}

func (failingOutput) Name() string           { return "failing" }
func (failingOutput) WriteLine(string) error { return sink.ErrSinkIO }
func (failingOutput) Flush() error           { return nil }
func (failingOutput) Close() error           { return nil }

func TestTextFormatter_FormatRecord(t *testing.T) {
	t.Parallel()

	line, err := sink.TextFormatter{}.FormatRecord(sampleRecord())
	require.NoError(t, err)

	assert.Equal(t,
		"[10:30:00] Sensor 111 type=temp temp=24.50°C battery=80.0% state=ok",
		line)
}

func TestTextFormatter_SkipsAbsentFields(t *testing.T) {
	t.Parallel()

	rec := record.Record{
		Serial:    "222",
		Type:      record.TypeUnknown,
		Timestamp: time.Date(2026, time.January, 2, 10, 30, 0, 0, time.UTC),
	}

	line, err := sink.TextFormatter{}.FormatRecord(rec)
	require.NoError(t, err)

	assert.Equal(t, "[10:30:00] Sensor 222 type=unknown", line)
}

func TestJSONFormatter_RoundTrips(t *testing.T) {
	t.Parallel()

	line, err := sink.JSONFormatter{}.FormatRecord(sampleRecord())
	require.NoError(t, err)

	var decoded record.Record
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))

	assert.Equal(t, "111", decoded.Serial)
	assert.InDelta(t, 24.5, decoded.Temperature, 1e-9)
	assert.NotContains(t, line, "\n")
}

func TestYAMLFormatter_EmitsDocumentSeparator(t *testing.T) {
	t.Parallel()

	doc, err := sink.YAMLFormatter{}.FormatRecord(sampleRecord())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "---\n"))
	assert.Contains(t, doc, "serial: \"111\"")
}

func TestTextFormatter_FormatBlock(t *testing.T) {
	t.Parallel()

	block := sink.TextFormatter{}.FormatBlock("Group Stats", "count: 3")

	assert.Equal(t, "=== GROUP STATS ===\ncount: 3", block)
}

func TestConsoleOutput_WritesLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	out := sink.NewConsoleOutput(&buf)

	require.NoError(t, out.WriteLine("plain line"))
	require.NoError(t, out.WriteLine("[10:30:00] HIGH TEMP ALERT: Sensor 333"))

	assert.Contains(t, buf.String(), "plain line")
	assert.Contains(t, buf.String(), "HIGH TEMP ALERT: Sensor 333")
}

func TestFileOutput_HeaderAndFlushPerDisplay(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log.txt")

	out, err := sink.NewFileOutput(path)
	require.NoError(t, err)

	s := sink.New(sink.TextFormatter{}, out)
	require.NoError(t, s.Display(sampleRecord()))

	// Display flushes, so the file is current before Close.
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Sensor Monitoring Log - "))
	assert.Contains(t, lines[1], "Sensor 111")

	require.NoError(t, s.Close())
}

func TestLZ4Output_EnforcesExtensionAndRoundTrips(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log.txt")

	out, err := sink.NewLZ4Output(path)
	require.NoError(t, err)
	assert.Equal(t, path+".lz4", out.Path())

	require.NoError(t, out.WriteLine("compressed line"))
	require.NoError(t, out.Close())

	file, err := os.Open(out.Path())
	require.NoError(t, err)
	defer file.Close()

	data, err := io.ReadAll(lz4.NewReader(file))
	require.NoError(t, err)

	assert.Contains(t, string(data), "Sensor Monitoring Log - ")
	assert.Contains(t, string(data), "compressed line")
}

func TestMulti_FailingSinkDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	healthy := sink.New(sink.TextFormatter{}, sink.NewConsoleOutput(&buf))
	broken := sink.New(sink.TextFormatter{}, failingOutput{})

	multi := sink.NewMulti(discardLogger(), broken, healthy)

	err := multi.Display(sampleRecord())

	require.ErrorIs(t, err, sink.ErrSinkIO)
	assert.Contains(t, buf.String(), "Sensor 111")
}

func TestBuild_DefaultsToTextConsole(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	multi, err := sink.Build(sink.Options{Console: &buf, Logger: discardLogger()})
	require.NoError(t, err)
	require.Equal(t, 1, multi.Len())

	require.NoError(t, multi.Display(sampleRecord()))
	assert.Contains(t, buf.String(), "Sensor 111")
}

func TestBuild_RejectsUnknownNames(t *testing.T) {
	t.Parallel()

	_, err := sink.Build(sink.Options{Format: "xml"})
	require.ErrorIs(t, err, sink.ErrUnknownFormat)

	_, err = sink.Build(sink.Options{Outputs: []string{"socket"}})
	require.ErrorIs(t, err, sink.ErrUnknownOutput)
}

func TestBuild_CompressedFileSink(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log.txt")

	multi, err := sink.Build(sink.Options{
		Format:   "json",
		Outputs:  []string{"file"},
		FilePath: path,
		Compress: true,
		Logger:   discardLogger(),
	})
	require.NoError(t, err)

	require.NoError(t, multi.Display(sampleRecord()))
	require.NoError(t, multi.Close())

	_, err = os.Stat(path + ".lz4")
	require.NoError(t, err)
}

func TestTable_RendersHeaderAndRows(t *testing.T) {
	t.Parallel()

	rendered := sink.Table(
		[]string{"Group", "Count"},
		[][]string{{"Temperature Sensors", "3"}, {"Humidity Sensors", "2"}},
	)

	assert.Contains(t, rendered, "GROUP")
	assert.Contains(t, rendered, "Temperature Sensors")
	assert.Contains(t, rendered, "2")
}

func TestMulti_DisplayBlockReachesAllSinks(t *testing.T) {
	t.Parallel()

	var first, second bytes.Buffer

	multi := sink.NewMulti(discardLogger(),
		sink.New(sink.TextFormatter{}, sink.NewConsoleOutput(&first)),
		sink.New(sink.JSONFormatter{}, sink.NewConsoleOutput(&second)),
	)

	require.NoError(t, multi.DisplayBlock("Alerts", "none"))

	assert.Contains(t, first.String(), "=== ALERTS ===")
	assert.Contains(t, second.String(), `"block":"Alerts"`)
}
