// Package observability provides pipeline metric instruments and the
// diagnostics HTTP server that exposes them for Prometheus scraping.
package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
)

const (
	metricRecords        = "sensorhub.pipeline.records"
	metricParseFailures  = "sensorhub.pipeline.parse_failures"
	metricFailures       = "sensorhub.pipeline.failures"
	metricAlerts         = "sensorhub.pipeline.alerts"
	metricQueueDepth     = "sensorhub.queue.depth"
	metricRecordDuration = "sensorhub.pipeline.record_duration"
)

// recordDurationBounds are histogram bucket boundaries in milliseconds,
// sized for per-record processing latency.
var recordDurationBounds = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100}

// PipelineMetrics holds the OTel instruments for the record pipeline.
// A nil *PipelineMetrics is valid; all methods become no-ops, so callers
// never need to branch on whether metrics are enabled.
type PipelineMetrics struct {
	records        metric.Int64Counter
	parseFailures  metric.Int64Counter
	failures       metric.Int64Counter
	alerts         metric.Int64Counter
	queueDepth     metric.Int64UpDownCounter
	recordDuration metric.Float64Histogram
}

// NewPipelineMetrics registers the pipeline instruments on the given meter.
// Creation errors across all instruments are joined into one.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	var errs []error

	counter := func(name, desc, unit string) metric.Int64Counter {
		inst, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			errs = append(errs, fmt.Errorf("instrument %s: %w", name, err))
		}

		return inst
	}

	gauge := func(name, desc, unit string) metric.Int64UpDownCounter {
		inst, err := meter.Int64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			errs = append(errs, fmt.Errorf("instrument %s: %w", name, err))
		}

		return inst
	}

	duration, err := meter.Float64Histogram(metricRecordDuration,
		metric.WithDescription("Per-record processing time."),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(recordDurationBounds...),
	)
	if err != nil {
		errs = append(errs, fmt.Errorf("instrument %s: %w", metricRecordDuration, err))
	}

	pm := &PipelineMetrics{
		records:        counter(metricRecords, "Records successfully processed by the pipeline.", "{record}"),
		parseFailures:  counter(metricParseFailures, "Input lines rejected by every parser.", "{line}"),
		failures:       counter(metricFailures, "Records dropped by a processing failure.", "{record}"),
		alerts:         counter(metricAlerts, "Alerts raised during a run.", "{alert}"),
		queueDepth:     gauge(metricQueueDepth, "Lines buffered in the streaming queue.", "{line}"),
		recordDuration: duration,
	}

	if joined := errors.Join(errs...); joined != nil {
		return nil, joined
	}

	return pm, nil
}

// RecordProcessed counts a processed record and observes its latency.
func (pm *PipelineMetrics) RecordProcessed(ctx context.Context, elapsed time.Duration) {
	if pm == nil {
		return
	}

	pm.records.Add(ctx, 1)
	pm.recordDuration.Record(ctx, float64(elapsed.Microseconds())/1000.0)
}

// RecordParseFailure counts an input line no parser accepted.
func (pm *PipelineMetrics) RecordParseFailure(ctx context.Context) {
	if pm == nil {
		return
	}

	pm.parseFailures.Add(ctx, 1)
}

// RecordFailure counts a record dropped mid-pipeline.
func (pm *PipelineMetrics) RecordFailure(ctx context.Context) {
	if pm == nil {
		return
	}

	pm.failures.Add(ctx, 1)
}

// AddAlerts counts alerts raised during a run.
func (pm *PipelineMetrics) AddAlerts(ctx context.Context, n int64) {
	if pm == nil || n <= 0 {
		return
	}

	pm.alerts.Add(ctx, n)
}

// QueueDepthAdd adjusts the streaming queue depth by delta.
func (pm *PipelineMetrics) QueueDepthAdd(ctx context.Context, delta int64) {
	if pm == nil {
		return
	}

	pm.queueDepth.Add(ctx, delta)
}
