// Package sink fans processed records out to display destinations. A sink
// pairs a Formatter (text, JSON, YAML) with an Output (console, plain file,
// LZ4-compressed file); Multi drives several pairs at once and isolates
// their failures from each other and from the pipeline.
package sink

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

// Sink renders records through one formatter into one output.
type Sink struct {
	formatter Formatter
	output    Output
}

// New pairs a formatter with an output.
func New(formatter Formatter, output Output) *Sink {
	return &Sink{formatter: formatter, output: output}
}

// Name identifies the sink in logs, e.g. "text/console".
func (s *Sink) Name() string {
	return s.formatter.Name() + "/" + s.output.Name()
}

// Display renders one record and flushes it. When Display returns nil the
// line has reached the destination.
func (s *Sink) Display(rec record.Record) error {
	line, err := s.formatter.FormatRecord(rec)
	if err != nil {
		return fmt.Errorf("format record for %s: %w", s.Name(), err)
	}

	if err := s.output.WriteLine(line); err != nil {
		return err
	}

	return s.output.Flush()
}

// DisplayBlock renders a titled report block, e.g. end-of-run statistics.
func (s *Sink) DisplayBlock(title, body string) error {
	if err := s.output.WriteLine(s.formatter.FormatBlock(title, body)); err != nil {
		return err
	}

	return s.output.Flush()
}

// Close flushes and releases the underlying output.
func (s *Sink) Close() error {
	return s.output.Close()
}

// Multi fans records out to several sinks. A failing sink is logged and
// skipped for that line; the others still receive it.
type Multi struct {
	sinks  []*Sink
	logger *slog.Logger
}

// NewMulti bundles sinks behind one Display surface. A nil logger falls
// back to slog.Default().
func NewMulti(logger *slog.Logger, sinks ...*Sink) *Multi {
	if logger == nil {
		logger = slog.Default()
	}

	return &Multi{sinks: sinks, logger: logger}
}

// Len returns the number of bundled sinks.
func (m *Multi) Len() int {
	return len(m.sinks)
}

// Display delivers the record to every sink. Failures are logged, joined
// and returned after all sinks were tried; callers may ignore the error and
// keep processing.
func (m *Multi) Display(rec record.Record) error {
	var errs []error

	for _, s := range m.sinks {
		if err := s.Display(rec); err != nil {
			m.logger.Warn("sink write failed",
				slog.String("sink", s.Name()),
				slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// DisplayBlock delivers a titled report block to every sink.
func (m *Multi) DisplayBlock(title, body string) error {
	var errs []error

	for _, s := range m.sinks {
		if err := s.DisplayBlock(title, body); err != nil {
			m.logger.Warn("sink block write failed",
				slog.String("sink", s.Name()),
				slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Close closes every sink and joins their failures.
func (m *Multi) Close() error {
	var errs []error

	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.Name(), err))
		}
	}

	return errors.Join(errs...)
}
