package sink

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

// Formatter names accepted by the registry.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// recordTimeLayout stamps text lines with the reading's wall-clock time.
const recordTimeLayout = "15:04:05"

// Formatter turns records and report blocks into output lines.
type Formatter interface {
	Name() string
	FormatRecord(rec record.Record) (string, error)
	FormatBlock(title, body string) string
}

// TextFormatter renders one human-readable line per record, skipping absent
// fields.
type TextFormatter struct{}

// Name implements Formatter.
func (TextFormatter) Name() string { return FormatText }

// FormatRecord implements Formatter.
func (TextFormatter) FormatRecord(rec record.Record) (string, error) {
	parts := []string{
		fmt.Sprintf("[%s]", rec.Timestamp.Format(recordTimeLayout)),
		"Sensor " + rec.Serial,
		"type=" + string(rec.Type),
	}

	if rec.Manufacturer != "" {
		parts = append(parts, "manufacturer="+rec.Manufacturer)
	}

	if rec.Temperature > 0 {
		parts = append(parts, fmt.Sprintf("temp=%.2f°C", rec.Temperature))
	}

	if rec.Humidity > 0 {
		parts = append(parts, fmt.Sprintf("humidity=%.2f%%", rec.Humidity))
	}

	if rec.HasBattery() {
		parts = append(parts, fmt.Sprintf("battery=%.1f%%", rec.BatteryPercent()))
	}

	if rec.Voltage > 0 {
		parts = append(parts, fmt.Sprintf("voltage=%.2fV", rec.Voltage))
	}

	if rec.State != "" {
		parts = append(parts, "state="+rec.State)
	}

	if rec.Error != "" {
		parts = append(parts, "error="+rec.Error)
	}

	return strings.Join(parts, " "), nil
}

// FormatBlock implements Formatter.
func (TextFormatter) FormatBlock(title, body string) string {
	return fmt.Sprintf("=== %s ===\n%s", strings.ToUpper(title), body)
}

// JSONFormatter renders one JSON object per record.
type JSONFormatter struct{}

// Name implements Formatter.
func (JSONFormatter) Name() string { return FormatJSON }

// FormatRecord implements Formatter.
func (JSONFormatter) FormatRecord(rec record.Record) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	return string(data), nil
}

// FormatBlock implements Formatter.
func (JSONFormatter) FormatBlock(title, body string) string {
	data, err := json.Marshal(map[string]string{"block": title, "body": body})
	if err != nil {
		return fmt.Sprintf(`{"block":%q}`, title)
	}

	return string(data)
}

// YAMLFormatter renders one YAML document per record, --- separated.
type YAMLFormatter struct{}

// Name implements Formatter.
func (YAMLFormatter) Name() string { return FormatYAML }

// FormatRecord implements Formatter.
func (YAMLFormatter) FormatRecord(rec record.Record) (string, error) {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	return "---\n" + strings.TrimRight(string(data), "\n"), nil
}

// FormatBlock implements Formatter.
func (YAMLFormatter) FormatBlock(title, body string) string {
	data, err := yaml.Marshal(struct {
		Block string `yaml:"block"`
		Body  string `yaml:"body"`
	}{Block: title, Body: body})
	if err != nil {
		return "---\nblock: " + title
	}

	return "---\n" + strings.TrimRight(string(data), "\n")
}

// Table renders header and rows in the light style used for console report
// blocks.
func Table(header []string, rows [][]string) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)

	head := make(table.Row, len(header))
	for i, col := range header {
		head[i] = col
	}

	tbl.AppendHeader(head)

	for _, cells := range rows {
		row := make(table.Row, len(cells))
		for i, cell := range cells {
			row[i] = cell
		}

		tbl.AppendRow(row)
	}

	return tbl.Render()
}
