// Package report renders the post-run HTML dashboard from the data-store
// actor's history snapshot.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
	"github.com/Sumatoshi-tech/sensorhub/pkg/stats"
)

// DefaultPath is where the dashboard lands when no path is configured.
const DefaultPath = "sensor_dashboard.html"

// dashboardFileMode is the permission set for the written dashboard.
const dashboardFileMode = 0o644

const (
	chartWidth  = "100%"
	chartHeight = "420px"
)

// trendSmoothing is the EMA factor behind the Trend column. 0.3 follows
// recent readings without whipsawing on a single outlier.
const trendSmoothing = 0.3

// Dashboard writes an HTML page with per-sensor reading charts and the
// alert log. Purely supplementary output: callers log failures and move on.
type Dashboard struct {
	path   string
	logger *slog.Logger
}

// New builds a dashboard writer. An empty path selects DefaultPath; a nil
// logger falls back to slog.Default().
func New(path string, logger *slog.Logger) *Dashboard {
	if path == "" {
		path = DefaultPath
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Dashboard{path: path, logger: logger}
}

// Path returns where Write puts the dashboard.
func (d *Dashboard) Path() string {
	return d.path
}

// Write renders the dashboard from a history snapshot keyed by sensor
// serial plus the newline-joined alert log.
func (d *Dashboard) Write(history map[string][]record.Record, alertLog string) error {
	page := components.NewPage()
	page.PageTitle = "Sensor Monitoring Dashboard"

	page.AddCharts(
		readingChart("Temperature (°C)", "°C", history, func(rec record.Record) (float64, bool) {
			return rec.Temperature, rec.Temperature > 0
		}),
		readingChart("Humidity (%)", "%", history, func(rec record.Record) (float64, bool) {
			return rec.Humidity, rec.Humidity > 0
		}),
	)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}

	html := injectSections(buf.String(), statsSection(history), alertSection(alertLog))

	if err := os.WriteFile(d.path, []byte(html), dashboardFileMode); err != nil {
		return fmt.Errorf("write dashboard: %w", err)
	}

	d.logger.Info("dashboard written", slog.String("path", d.path))

	return nil
}

// readingChart plots one line per sensor over its reading index, keeping
// only readings the pick function accepts.
func readingChart(title, unit string, history map[string][]record.Record, pick func(record.Record) (float64, bool)) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Left: "center"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "7%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Reading"}),
		charts.WithYAxisOpts(opts.YAxis{Name: unit}),
	)

	serials := make([]string, 0, len(history))
	for serial := range history {
		serials = append(serials, serial)
	}

	sort.Strings(serials)

	longest := 0
	series := make(map[string][]opts.LineData, len(serials))

	for _, serial := range serials {
		var points []opts.LineData

		for _, rec := range history[serial] {
			if v, ok := pick(rec); ok {
				points = append(points, opts.LineData{Value: v})
			}
		}

		if len(points) == 0 {
			continue
		}

		series[serial] = points
		longest = max(longest, len(points))
	}

	labels := make([]string, longest)
	for i := range longest {
		labels[i] = strconv.Itoa(i + 1)
	}

	line.SetXAxis(labels)

	for _, serial := range serials {
		points, ok := series[serial]
		if !ok {
			continue
		}

		line.AddSeries("Sensor "+serial, points,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	}

	return line
}

// statsSection renders per-sensor reading statistics as HTML tables, one per
// dimension. Dimensions nobody reported are skipped.
func statsSection(history map[string][]record.Record) string {
	var sb strings.Builder

	sb.WriteString(`<div style="width:90%;margin:24px auto;font-family:monospace;">`)
	sb.WriteString("<h2>Reading Statistics</h2>")

	sb.WriteString(dimensionTable("Temperature (°C)", history, func(rec record.Record) (float64, bool) {
		return rec.Temperature, rec.Temperature > 0
	}))
	sb.WriteString(dimensionTable("Humidity (%)", history, func(rec record.Record) (float64, bool) {
		return rec.Humidity, rec.Humidity > 0
	}))

	sb.WriteString("</div>")

	return sb.String()
}

// dimensionTable tabulates one dimension across every sensor: spread
// statistics over the full history plus an EMA trend of the latest readings.
func dimensionTable(title string, history map[string][]record.Record, pick func(record.Record) (float64, bool)) string {
	serials := make([]string, 0, len(history))
	for serial := range history {
		serials = append(serials, serial)
	}

	sort.Strings(serials)

	var rows strings.Builder

	for _, serial := range serials {
		var values []float64

		trend := stats.NewEMA(trendSmoothing)

		for _, rec := range history[serial] {
			if v, ok := pick(rec); ok {
				values = append(values, v)
				trend.Update(v)
			}
		}

		if len(values) == 0 {
			continue
		}

		mean, stddev := stats.MeanStdDev(values)

		fmt.Fprintf(&rows,
			"<tr><td>Sensor %s</td><td>%d</td><td>%.2f</td><td>%.2f</td><td>%.2f</td><td>%.2f</td><td>%.2f</td><td>%.2f</td><td>%.2f</td></tr>",
			template.HTMLEscapeString(serial), len(values), mean, stddev,
			stats.Median(values), stats.Percentile(values, stats.PercentileP95),
			stats.Min(values), stats.Max(values), trend.Value())
	}

	if rows.Len() == 0 {
		return ""
	}

	var sb strings.Builder

	sb.WriteString("<h3>" + title + "</h3>")
	sb.WriteString(`<table border="1" cellpadding="4" cellspacing="0">`)
	sb.WriteString("<tr><th>Sensor</th><th>Readings</th><th>Mean</th><th>StdDev</th><th>Median</th><th>P95</th><th>Min</th><th>Max</th><th>Trend</th></tr>")
	sb.WriteString(rows.String())
	sb.WriteString("</table>")

	return sb.String()
}

// alertSection renders the alert log block.
func alertSection(alertLog string) string {
	var sb strings.Builder

	sb.WriteString(`<div style="width:90%;margin:24px auto;font-family:monospace;">`)
	sb.WriteString("<h2>Alert Log</h2>")

	if alertLog == "" {
		sb.WriteString("<p>No alerts raised.</p>")
	} else {
		sb.WriteString("<pre>")
		sb.WriteString(template.HTMLEscapeString(alertLog))
		sb.WriteString("</pre>")
	}

	sb.WriteString("</div>")

	return sb.String()
}

// injectSections splices the sections before the closing body tag so they
// share the page with the charts.
func injectSections(html string, sections ...string) string {
	joined := strings.Join(sections, "")

	if idx := strings.LastIndex(html, "</body>"); idx >= 0 {
		return html[:idx] + joined + html[idx:]
	}

	return html + joined
}
