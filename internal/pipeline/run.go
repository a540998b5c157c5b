package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/sensorhub/pkg/workerpool"
)

// Run drives the pipeline over lines with the given mode, under one span
// carrying the mode and final counters.
func (c *Coordinator) Run(ctx context.Context, mode Mode, lines iter.Seq[string]) error {
	ctx, span := c.tracer.Start(ctx, "sensorhub.run",
		trace.WithAttributes(attribute.String("run.mode", string(mode))))
	defer span.End()

	var err error

	switch mode {
	case ModeSequential:
		err = c.RunSequential(ctx, lines)
	case ModePool:
		err = c.RunPool(ctx, lines)
	case ModeStream:
		err = c.RunStream(ctx, lines)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	span.SetAttributes(
		attribute.Int64("run.records", c.processed.Load()),
		attribute.Int64("run.parse_failures", c.parseFailures.Load()),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}

// RunSequential processes lines one at a time, in order, on the calling
// goroutine.
func (c *Coordinator) RunSequential(ctx context.Context, lines iter.Seq[string]) error {
	defer c.observeRun(time.Now())

	for line := range lines {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return fmt.Errorf("sequential run: %w", ctxErr)
		}

		c.ProcessRecord(ctx, line)
	}

	return nil
}

// RunPool collects lines into a batch and fans it out over the worker pool.
// Completion order is nondeterministic; stages tolerate the interleaving.
func (c *Coordinator) RunPool(ctx context.Context, lines iter.Seq[string]) error {
	defer c.observeRun(time.Now())

	batch := slices.Collect(lines)

	err := workerpool.ProcessBatch(c.pool, batch, func(line string) error {
		c.ProcessRecord(ctx, line)

		return nil
	})
	if err != nil {
		return fmt.Errorf("pool run: %w", err)
	}

	return nil
}

// RunStream produces lines into the queue while its single consumer runs
// ProcessRecord, then stops the queue so everything accepted is drained
// before returning.
func (c *Coordinator) RunStream(ctx context.Context, lines iter.Seq[string]) error {
	defer c.observeRun(time.Now())

	startErr := c.queue.Start(func(raw string) {
		c.metrics.QueueDepthAdd(ctx, -1)
		c.ProcessRecord(ctx, raw)
	})
	if startErr != nil {
		return fmt.Errorf("stream run: %w", startErr)
	}

	for line := range lines {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return errors.Join(fmt.Errorf("stream run: %w", ctxErr), c.queue.Stop())
		}

		produceErr := c.queue.Produce(line)
		if produceErr != nil {
			return errors.Join(fmt.Errorf("stream run: %w", produceErr), c.queue.Stop())
		}

		c.metrics.QueueDepthAdd(ctx, 1)
	}

	stopErr := c.queue.Stop()
	if stopErr != nil {
		return fmt.Errorf("stream run: %w", stopErr)
	}

	return nil
}
