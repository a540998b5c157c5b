// Package pipeline wires the parsing, aggregation, analysis, actor, and sink
// stages into one coordinator and drives it over an input source in
// sequential, pooled, or streaming mode.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/sensorhub/internal/actor"
	"github.com/Sumatoshi-tech/sensorhub/internal/analyzers/analyze"
	"github.com/Sumatoshi-tech/sensorhub/internal/composite"
	"github.com/Sumatoshi-tech/sensorhub/internal/observability"
	"github.com/Sumatoshi-tech/sensorhub/internal/observer"
	"github.com/Sumatoshi-tech/sensorhub/internal/parse"
	"github.com/Sumatoshi-tech/sensorhub/internal/record"
	"github.com/Sumatoshi-tech/sensorhub/internal/registry"
	"github.com/Sumatoshi-tech/sensorhub/internal/report"
	"github.com/Sumatoshi-tech/sensorhub/internal/sink"
	"github.com/Sumatoshi-tech/sensorhub/internal/streaming"
	"github.com/Sumatoshi-tech/sensorhub/pkg/workerpool"
)

// tracerName is the fallback OTel tracer name when none is injected.
const tracerName = "sensorhub"

// Config assembles a Coordinator. Core stages (parsers, registry, composite,
// analyzers, observers, pool, queue) default when nil; actors, sinks,
// metrics, and dashboard stay optional and are skipped when absent.
type Config struct {
	// Parsers is the format-detection chain applied to every raw line.
	Parsers *parse.Chain

	// Registry records the type each serial last declared.
	Registry *registry.Registry

	// Composite files records into the sensor tree.
	Composite *composite.Manager

	// Analyzers routes records to per-dimension accumulators.
	Analyzers *analyze.Manager

	// Observers is notified after a record clears every other stage.
	Observers *observer.Broadcaster

	// Actors receives every record for storage and alerting. The caller
	// starts and owns its lifecycle up to Shutdown. Optional.
	Actors *actor.Subsystem

	// Sinks displays every record. Optional.
	Sinks *sink.Multi

	// Pool executes pooled runs.
	Pool *workerpool.Pool

	// Queue buffers streaming runs. One-shot: a queue drives at most one
	// RunStream.
	Queue *streaming.Queue

	// Metrics counts pipeline events. Nil disables instrumentation.
	Metrics *observability.PipelineMetrics

	// Tracer opens the per-run span. Defaults to the global provider.
	Tracer trace.Tracer

	// Dashboard is written from the actor history during Shutdown. Optional.
	Dashboard *report.Dashboard

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Coordinator routes every raw line through the pipeline stages. Stages
// self-synchronize, so ProcessRecord is safe for concurrent callers.
type Coordinator struct {
	parsers   *parse.Chain
	registry  *registry.Registry
	composite *composite.Manager
	analyzers *analyze.Manager
	observers *observer.Broadcaster
	actors    *actor.Subsystem
	sinks     *sink.Multi
	pool      *workerpool.Pool
	queue     *streaming.Queue
	metrics   *observability.PipelineMetrics
	tracer    trace.Tracer
	dashboard *report.Dashboard
	logger    *slog.Logger

	processed     atomic.Int64
	parseFailures atomic.Int64
	failures      atomic.Int64
	lastRunNanos  atomic.Int64

	shutdownOnce sync.Once
	shutdownErr  error
}

// New builds a coordinator, defaulting any nil core stage.
func New(cfg Config) *Coordinator {
	if cfg.Parsers == nil {
		cfg.Parsers = parse.DefaultChain()
	}

	if cfg.Registry == nil {
		cfg.Registry = registry.New()
	}

	if cfg.Composite == nil {
		cfg.Composite = composite.NewManager()
	}

	if cfg.Analyzers == nil {
		cfg.Analyzers = analyze.NewManager()
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Observers == nil {
		cfg.Observers = observer.NewBroadcaster(cfg.Logger)
	}

	if cfg.Pool == nil {
		cfg.Pool = workerpool.New(0, cfg.Logger)
	}

	if cfg.Queue == nil {
		cfg.Queue = streaming.NewQueue(cfg.Logger)
	}

	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(tracerName)
	}

	return &Coordinator{
		parsers:   cfg.Parsers,
		registry:  cfg.Registry,
		composite: cfg.Composite,
		analyzers: cfg.Analyzers,
		observers: cfg.Observers,
		actors:    cfg.Actors,
		sinks:     cfg.Sinks,
		pool:      cfg.Pool,
		queue:     cfg.Queue,
		metrics:   cfg.Metrics,
		tracer:    cfg.Tracer,
		dashboard: cfg.Dashboard,
		logger:    cfg.Logger,
	}
}

// Registry returns the type registry stage.
func (c *Coordinator) Registry() *registry.Registry { return c.registry }

// Composite returns the sensor tree stage.
func (c *Coordinator) Composite() *composite.Manager { return c.composite }

// Analyzers returns the analyzer manager stage.
func (c *Coordinator) Analyzers() *analyze.Manager { return c.analyzers }

// Observers returns the broadcaster stage.
func (c *Coordinator) Observers() *observer.Broadcaster { return c.observers }

// Actors returns the actor subsystem, or nil when none is wired.
func (c *Coordinator) Actors() *actor.Subsystem { return c.actors }

// Sinks returns the sink set, or nil when none is wired.
func (c *Coordinator) Sinks() *sink.Multi { return c.sinks }

// ProcessRecord pushes one raw line through every stage. A line no parser
// accepts is counted and dropped; any later failure or panic is logged with
// the raw line and never escapes to the caller, so one bad record cannot
// stall a run.
func (c *Coordinator) ProcessRecord(ctx context.Context, raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}

	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			c.failures.Add(1)
			c.metrics.RecordFailure(ctx)
			c.logger.ErrorContext(ctx, "record processing panicked",
				slog.String("line", raw), slog.Any("panic", r))
		}
	}()

	rec, err := c.parsers.Parse(raw)
	if err != nil {
		c.parseFailures.Add(1)
		c.metrics.RecordParseFailure(ctx)
		c.logger.WarnContext(ctx, "line rejected",
			slog.String("line", raw), slog.Any("error", err))

		return
	}

	c.composite.AddRecord(rec)

	if rec.Serial != "" && rec.Type != record.TypeUnknown {
		c.registry.Register(rec.Serial, rec.Type)
	}

	c.analyzers.AnalyzeData(rec)

	if c.actors != nil {
		sendErr := c.actors.Send(rec)
		if sendErr != nil {
			c.logger.WarnContext(ctx, "actor dispatch failed",
				slog.String("serial", rec.Serial), slog.Any("error", sendErr))
		}
	}

	if c.sinks != nil {
		displayErr := c.sinks.Display(rec)
		if displayErr != nil {
			c.logger.WarnContext(ctx, "sink display failed",
				slog.Any("error", displayErr))
		}
	}

	c.observers.Notify(rec)

	c.processed.Add(1)
	c.metrics.RecordProcessed(ctx, time.Since(start))
}

// Summary is a point-in-time snapshot of run counters.
type Summary struct {
	// Processed counts records that cleared every stage.
	Processed int64

	// ParseFailures counts lines rejected by every parser.
	ParseFailures int64

	// Failures counts records dropped by a mid-pipeline panic.
	Failures int64

	// Sensors counts distinct serials present in the composite tree.
	Sensors int

	// Alerts counts lines in the alert actor's log.
	Alerts int

	// Duration is the wall time of the most recent run driver.
	Duration time.Duration
}

// Summary snapshots the counters. The alert count is best-effort: it is
// zero when no actor subsystem is wired or the query times out.
func (c *Coordinator) Summary() Summary {
	s := Summary{
		Processed:     c.processed.Load(),
		ParseFailures: c.parseFailures.Load(),
		Failures:      c.failures.Load(),
		Sensors:       c.composite.SensorCount(),
		Duration:      time.Duration(c.lastRunNanos.Load()),
	}

	if c.actors != nil {
		alertLog, err := c.actors.AlertLog()
		if err == nil {
			s.Alerts = countAlerts(alertLog)
		}
	}

	return s
}

// Shutdown tears the pipeline down in fixed order: queue, pool, actor
// snapshot for the dashboard, actors, sinks, dashboard write. Safe to call
// more than once; later calls return the first result.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.shutdownOnce.Do(func() {
		c.shutdownErr = c.shutdown(ctx)
	})

	return c.shutdownErr
}

func (c *Coordinator) shutdown(ctx context.Context) error {
	var errs []error

	stopErr := c.queue.Stop()
	if stopErr != nil {
		errs = append(errs, fmt.Errorf("stop queue: %w", stopErr))
	}

	c.pool.Close()

	var (
		history  map[string][]record.Record
		alertLog string
	)

	if c.actors != nil {
		var err error

		history, err = c.actors.StoredHistory()
		if err != nil {
			c.logger.WarnContext(ctx, "history snapshot failed", slog.Any("error", err))
		}

		alertLog, err = c.actors.AlertLog()
		if err != nil {
			c.logger.WarnContext(ctx, "alert log snapshot failed", slog.Any("error", err))
		} else {
			c.metrics.AddAlerts(ctx, int64(countAlerts(alertLog)))
		}

		c.actors.Shutdown()
	}

	if c.sinks != nil {
		closeErr := c.sinks.Close()
		if closeErr != nil {
			errs = append(errs, fmt.Errorf("close sinks: %w", closeErr))
		}
	}

	if c.dashboard != nil {
		writeErr := c.dashboard.Write(history, alertLog)
		if writeErr != nil {
			c.logger.WarnContext(ctx, "dashboard write failed", slog.Any("error", writeErr))
		}
	}

	return errors.Join(errs...)
}

// observeRun stores the wall time of the run that started at start.
func (c *Coordinator) observeRun(start time.Time) {
	c.lastRunNanos.Store(int64(time.Since(start)))
}

// countAlerts counts non-empty lines in a newline-joined alert log.
func countAlerts(alertLog string) int {
	alertLog = strings.TrimSpace(alertLog)
	if alertLog == "" {
		return 0
	}

	return strings.Count(alertLog, "\n") + 1
}
