// Package parse detects sensor line formats and extracts normalized records
// from raw key:value text.
package parse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/sensorhub/internal/record"
)

var (
	// ErrUnrecognized means no parser in the chain accepts the line.
	ErrUnrecognized = errors.New("unrecognized line format")

	// ErrMalformed means a parser accepted the line prefix but extracted
	// no usable field values.
	ErrMalformed = errors.New("malformed line")
)

// standardPrefix marks serial-first lines.
const standardPrefix = "serial:"

// manufacturerPrefixes mark manufacturer-first lines.
var manufacturerPrefixes = []string{"manufac:", "manu:"}

// Parser converts one raw line into a normalized record.
type Parser interface {
	// Name identifies the parser in logs.
	Name() string

	// CanParse reports whether this parser understands the raw line.
	CanParse(raw string) bool

	// Parse converts the raw line. Call only after CanParse returned true.
	Parse(raw string) (record.Record, error)
}

// StandardParser handles lines that lead with the sensor serial.
type StandardParser struct{}

func (StandardParser) Name() string { return "standard" }

func (StandardParser) CanParse(raw string) bool {
	return strings.HasPrefix(strings.ToLower(raw), standardPrefix)
}

func (StandardParser) Parse(raw string) (record.Record, error) {
	return parseLine(raw)
}

// ManufacturerFirstParser handles lines that lead with the manufacturer.
type ManufacturerFirstParser struct{}

func (ManufacturerFirstParser) Name() string { return "manufacturer-first" }

func (ManufacturerFirstParser) CanParse(raw string) bool {
	lower := strings.ToLower(raw)
	for _, prefix := range manufacturerPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}

	return false
}

func (ManufacturerFirstParser) Parse(raw string) (record.Record, error) {
	return parseLine(raw)
}

// parseLine is the shared extraction path. Format detection is the only
// thing that differs between parsers; the token grammar is identical.
func parseLine(raw string) (record.Record, error) {
	fields, ok := extract(raw)
	if !ok {
		return record.Record{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}

	return record.New(fields), nil
}

// Chain tries parsers in registration order and parses with the first one
// that accepts the line.
type Chain struct {
	parsers []Parser
}

// NewChain builds a chain over the given parsers, tried in order.
func NewChain(parsers ...Parser) *Chain {
	return &Chain{parsers: parsers}
}

// DefaultChain covers the two known line formats: serial-first, then
// manufacturer-first.
func DefaultChain() *Chain {
	return NewChain(StandardParser{}, ManufacturerFirstParser{})
}

// Select returns the first parser that accepts the trimmed line.
func (c *Chain) Select(raw string) (Parser, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, p := range c.parsers {
		if p.CanParse(trimmed) {
			return p, true
		}
	}

	return nil, false
}

// Parse selects a parser and runs it. Lines that no parser accepts fail
// with ErrUnrecognized.
func (c *Chain) Parse(raw string) (record.Record, error) {
	trimmed := strings.TrimSpace(raw)

	p, ok := c.Select(trimmed)
	if !ok {
		return record.Record{}, fmt.Errorf("%w: %q", ErrUnrecognized, trimmed)
	}

	rec, err := p.Parse(trimmed)
	if err != nil {
		return record.Record{}, fmt.Errorf("%s parser: %w", p.Name(), err)
	}

	return rec, nil
}
