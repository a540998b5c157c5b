package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/sensorhub/internal/actor"
	"github.com/Sumatoshi-tech/sensorhub/internal/analyzers/analyze"
	"github.com/Sumatoshi-tech/sensorhub/internal/analyzers/battery"
	"github.com/Sumatoshi-tech/sensorhub/internal/analyzers/humidity"
	"github.com/Sumatoshi-tech/sensorhub/internal/analyzers/temperature"
	"github.com/Sumatoshi-tech/sensorhub/internal/composite"
	"github.com/Sumatoshi-tech/sensorhub/internal/config"
	"github.com/Sumatoshi-tech/sensorhub/internal/observability"
	"github.com/Sumatoshi-tech/sensorhub/internal/observer"
	"github.com/Sumatoshi-tech/sensorhub/internal/pipeline"
	"github.com/Sumatoshi-tech/sensorhub/internal/record"
	"github.com/Sumatoshi-tech/sensorhub/internal/report"
	"github.com/Sumatoshi-tech/sensorhub/internal/sink"
	"github.com/Sumatoshi-tech/sensorhub/internal/streaming"
	telemetry "github.com/Sumatoshi-tech/sensorhub/pkg/observability"
	"github.com/Sumatoshi-tech/sensorhub/pkg/version"
	"github.com/Sumatoshi-tech/sensorhub/pkg/workerpool"
)

// meterName scopes the pipeline instruments on the Prometheus provider.
const meterName = "sensorhub"

// runPipeline assembles the pipeline from cfg, drives it over the input
// feed, renders the end-of-run reports through the sinks, and tears the
// stages down in order. cfg must already be normalized and validated.
func runPipeline(ctx context.Context, cfg config.Config, out io.Writer) error {
	providers, err := initTelemetry(ctx, cfg.Observability)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	logger := providers.Logger

	defer func() {
		flushErr := providers.Shutdown(context.Background())
		if flushErr != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", flushErr))
		}
	}()

	meter := providers.Meter

	if cfg.Observability.MetricsAddr != "" {
		srv, srvErr := observability.NewServer(ctx, cfg.Observability.MetricsAddr, logger)
		if srvErr != nil {
			return fmt.Errorf("start metrics server: %w", srvErr)
		}

		defer func() {
			closeErr := srv.Close(context.Background())
			if closeErr != nil {
				logger.Warn("metrics server close failed", slog.Any("error", closeErr))
			}
		}()

		logger.InfoContext(ctx, "serving metrics",
			slog.String("addr", srv.Addr()))

		meter = srv.MeterProvider().Meter(meterName)
	}

	metrics, err := observability.NewPipelineMetrics(meter)
	if err != nil {
		return fmt.Errorf("build pipeline metrics: %w", err)
	}

	feed, closeFeed, err := lineFeed(cfg.Input, logger)
	if err != nil {
		return err
	}

	defer func() {
		closeErr := closeFeed()
		if closeErr != nil {
			logger.Warn("close input failed", slog.Any("error", closeErr))
		}
	}()

	mode, err := pipeline.ParseMode(cfg.Pipeline.Mode)
	if err != nil {
		return fmt.Errorf("select mode: %w", err)
	}

	sinks, err := sink.Build(sink.Options{
		Format:   cfg.Sink.Format,
		Outputs:  cfg.Sink.Outputs,
		FilePath: cfg.Sink.FilePath,
		Compress: cfg.Sink.Compress,
		Console:  out,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("build sinks: %w", err)
	}

	actors := actor.NewSubsystem(actor.Config{
		MailboxSize:  cfg.Pipeline.MailboxSize,
		ReplyTimeout: cfg.Pipeline.ActorTimeout,
		Thresholds:   alertThresholds(cfg.Alerts),
		Logger:       logger,
	})
	actors.Start()

	stats := observer.NewStatsCollector()

	observers := observer.NewBroadcaster(logger)
	observers.Attach(observer.NewTemperatureMonitor(logger))
	observers.Attach(observer.NewBatteryMonitor(logger))
	observers.Attach(stats)

	var dashboard *report.Dashboard
	if cfg.Dashboard.Enabled {
		dashboard = report.New(cfg.Dashboard.Path, logger)
	}

	coord := pipeline.New(pipeline.Config{
		Analyzers: buildAnalyzers(cfg.Analyzers),
		Observers: observers,
		Actors:    actors,
		Sinks:     sinks,
		Pool:      workerpool.New(cfg.Pipeline.Workers, logger),
		Queue:     streaming.NewQueue(logger, streaming.WithCapacity(cfg.Pipeline.QueueCapacity)),
		Metrics:   metrics,
		Tracer:    providers.Tracer,
		Dashboard: dashboard,
		Logger:    logger,
	})

	logger.InfoContext(ctx, "run starting",
		slog.String("mode", string(mode)),
		slog.String("input", cfg.Input.Path),
		slog.Int("sinks", sinks.Len()))

	runErr := coord.Run(ctx, mode, feed)
	if runErr != nil {
		logger.ErrorContext(ctx, "run failed", slog.Any("error", runErr))
	}

	renderRunReports(ctx, coord, stats, logger)

	shutdownErr := coord.Shutdown(ctx)

	return errors.Join(runErr, shutdownErr)
}

// initTelemetry maps the runtime config onto the telemetry bootstrap.
func initTelemetry(ctx context.Context, cfg config.ObservabilityConfig) (telemetry.Providers, error) {
	otelCfg := telemetry.DefaultConfig()
	otelCfg.ServiceVersion = version.Version
	otelCfg.OTLPEndpoint = cfg.OTLPEndpoint
	otelCfg.OTLPInsecure = cfg.OTLPInsecure
	otelCfg.LogLevel = telemetry.ParseLevel(cfg.LogLevel)
	otelCfg.LogJSON = cfg.LogJSON

	return telemetry.Init(ctx, otelCfg)
}

// alertThresholds merges the configured alert thresholds over the actor
// defaults. Zero values keep the default for that dimension.
func alertThresholds(cfg config.AlertsConfig) actor.Thresholds {
	th := actor.DefaultThresholds()

	if cfg.TempHigh > 0 {
		th.TempHigh = cfg.TempHigh
	}

	if cfg.TempLow > 0 {
		th.TempLow = cfg.TempLow
	}

	if cfg.HumidityHigh > 0 {
		th.HumidityHigh = cfg.HumidityHigh
	}

	if cfg.HumidityLow > 0 {
		th.HumidityLow = cfg.HumidityLow
	}

	if cfg.BatteryLowPercent > 0 {
		th.BatteryLowPercent = cfg.BatteryLowPercent
	}

	return th
}

// buildAnalyzers registers the three statistical analyzers with their
// configured thresholds. Zero thresholds select each analyzer's defaults.
func buildAnalyzers(cfg config.AnalyzersConfig) *analyze.Manager {
	m := analyze.NewManager()
	m.Register(record.TypeTemperature, temperature.New(cfg.TempWarning, cfg.TempCritical))
	m.Register(record.TypeHumidity, humidity.New(cfg.HumidityLow, cfg.HumidityHigh))
	m.Register(record.TypeBattery, battery.New(cfg.BatteryLowRatio))

	return m
}

// lineFeed opens the input file and returns a single-use line iterator over
// it. A positive delay sleeps between lines to simulate a live feed.
func lineFeed(cfg config.InputConfig, logger *slog.Logger) (iter.Seq[string], func() error, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input %s: %w", cfg.Path, err)
	}

	seq := func(yield func(string) bool) {
		scanner := bufio.NewScanner(f)

		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}

			if cfg.Delay > 0 {
				time.Sleep(cfg.Delay)
			}
		}

		scanErr := scanner.Err()
		if scanErr != nil {
			logger.Warn("input read failed",
				slog.String("path", cfg.Path), slog.Any("error", scanErr))
		}
	}

	return seq, f.Close, nil
}

// renderRunReports pushes the end-of-run report blocks through every sink:
// per-analyzer reports, the sensor tree (regrouped by manufacturer), the
// visitor reports, the data-store analysis, the alert log, the observer
// digest, and the run summary. Sink failures are already logged by Multi.
func renderRunReports(ctx context.Context, coord *pipeline.Coordinator, stats *observer.StatsCollector, logger *slog.Logger) {
	sinks := coord.Sinks()
	if sinks == nil {
		return
	}

	display := func(title, body string) {
		err := sinks.DisplayBlock(title, body)
		if err != nil {
			logger.WarnContext(ctx, "report block dropped",
				slog.String("block", title), slog.Any("error", err))
		}
	}

	reports := coord.Analyzers().Reports()
	for _, name := range slices.Sorted(maps.Keys(reports)) {
		display(name+" analysis", reports[name])
	}

	coord.Composite().OrganizeByManufacturer()

	var tree strings.Builder

	coord.Composite().Display(&tree)
	display("sensor tree", strings.TrimRight(tree.String(), "\n"))

	display("health report", coord.Composite().ApplyVisitor(composite.NewHealthVisitor()))
	display("anomaly report", coord.Composite().ApplyVisitor(composite.NewAnomalyVisitor()))

	if coord.Actors() != nil {
		display("store analysis", renderStoreAnalysis(coord.Actors(), logger))

		alertLog, err := coord.Actors().AlertLog()
		switch {
		case err != nil:
			logger.WarnContext(ctx, "alert log unavailable", slog.Any("error", err))
		case alertLog == "":
			display("alerts", "no alerts")
		default:
			display("alerts", alertLog)
		}
	}

	display("observer digest", stats.Summary())
	display("run summary", renderSummary(coord.Summary()))
}

// renderStoreAnalysis tabulates the data-store aggregates per sensor type.
func renderStoreAnalysis(actors *actor.Subsystem, logger *slog.Logger) string {
	header := []string{"Type", "Sensors", "Avg Temp", "Avg Humidity", "Avg Battery"}
	rows := make([][]string, 0, 3)

	for _, t := range []record.Type{record.TypeTemperature, record.TypeHumidity, record.TypeBattery} {
		res, err := actors.AnalyzeType(t)
		if err != nil {
			logger.Warn("store analysis unavailable",
				slog.String("type", string(t)), slog.Any("error", err))

			continue
		}

		rows = append(rows, []string{
			string(t),
			humanize.Comma(int64(res.Count)),
			fmt.Sprintf("%.2f", res.Temperature),
			fmt.Sprintf("%.2f", res.Humidity),
			fmt.Sprintf("%.2f", res.BatteryLevel),
		})
	}

	return sink.Table(header, rows)
}

// renderSummary tabulates the run counters with humanized counts.
func renderSummary(s pipeline.Summary) string {
	rows := [][]string{
		{"Processed", humanize.Comma(s.Processed)},
		{"Parse failures", humanize.Comma(s.ParseFailures)},
		{"Failures", humanize.Comma(s.Failures)},
		{"Sensors", humanize.Comma(int64(s.Sensors))},
		{"Alerts", humanize.Comma(int64(s.Alerts))},
		{"Duration", s.Duration.Round(time.Microsecond).String()},
	}

	return sink.Table([]string{"Counter", "Value"}, rows)
}
