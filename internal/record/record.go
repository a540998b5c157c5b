// Package record defines the canonical sensor record produced by the
// parsing layer and consumed by every downstream pipeline stage.
package record

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of reading a sensor produces.
type Type string

// Known sensor types. Anything else folds to TypeUnknown.
const (
	TypeTemperature Type = "temp"
	TypeHumidity    Type = "humidity"
	TypeBattery     Type = "battery"
	TypeUnknown     Type = "unknown"
)

// centiScaleThreshold is the raw temperature above which the value is
// treated as centi-degrees and scaled down by this factor.
const centiScaleThreshold = 100

// deciScaleDivisor scales deci-percent humidity readings down to percent.
const deciScaleDivisor = 10

// normalizedDecimals is the number of decimals kept after unit scaling.
const normalizedDecimals = 2

// syntheticSerialHexDigits is the number of UUID hex digits appended to a
// synthesized serial.
const syntheticSerialHexDigits = 8

// syntheticSerialPrefix prefixes serials synthesized for records that
// arrived without one.
const syntheticSerialPrefix = "Unknown-"

// ParseType folds case and maps a raw type token onto a known Type.
func ParseType(raw string) Type {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeTemperature:
		return TypeTemperature
	case TypeHumidity:
		return TypeHumidity
	case TypeBattery:
		return TypeBattery
	default:
		return TypeUnknown
	}
}

// Record is one normalized sensor reading. Treat it as immutable once
// constructed: every stage receives it by value.
type Record struct {
	Serial       string    `json:"serial"`
	Type         Type      `json:"type"`
	Temperature  float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
	BatteryLevel float64   `json:"battery_level"`
	BatteryMax   float64   `json:"battery_max"`
	BatteryMin   float64   `json:"battery_min"`
	State        string    `json:"state"`
	Manufacturer string    `json:"manufacturer"`
	Error        string    `json:"error,omitempty"`
	Voltage      float64   `json:"voltage"`
	Timestamp    time.Time `json:"timestamp"`
}

// Fields carries raw extracted values before normalization. Parsers fill
// what the line provides and leave the rest zero.
type Fields struct {
	Serial       string
	Type         Type
	Temperature  float64
	Humidity     float64
	BatteryLevel float64
	BatteryMax   float64
	BatteryMin   float64
	State        string
	Manufacturer string
	Error        string
	Voltage      float64
}

// New normalizes raw field values into a Record and stamps it with the
// current wall clock.
func New(f Fields) Record {
	rec := Record{
		Serial:       f.Serial,
		Type:         f.Type,
		Temperature:  normalizeTemperature(f.Temperature),
		Humidity:     normalizeHumidity(f.Humidity),
		BatteryLevel: f.BatteryLevel,
		BatteryMax:   f.BatteryMax,
		BatteryMin:   f.BatteryMin,
		State:        strings.ToLower(f.State),
		Manufacturer: f.Manufacturer,
		Error:        f.Error,
		Voltage:      f.Voltage,
		Timestamp:    time.Now(),
	}

	if rec.Type == "" {
		rec.Type = TypeUnknown
	}

	if rec.Serial == "" && rec.Manufacturer != "" {
		rec.Serial = syntheticSerial()
	}

	return rec
}

// HasBattery reports whether the record carries a usable battery reading.
func (r Record) HasBattery() bool {
	return r.BatteryLevel > 0 && r.BatteryMax > 0
}

// BatteryPercent returns the battery charge as a percentage of capacity.
// Call only when HasBattery is true.
func (r Record) BatteryPercent() float64 {
	return r.BatteryLevel / r.BatteryMax * 100
}

// normalizeTemperature scales centi-degree readings down to degrees.
func normalizeTemperature(v float64) float64 {
	if v > centiScaleThreshold {
		return roundTo(v/centiScaleThreshold, normalizedDecimals)
	}

	return v
}

// normalizeHumidity scales deci-percent readings down to percent.
func normalizeHumidity(v float64) float64 {
	if v > centiScaleThreshold {
		return roundTo(v/deciScaleDivisor, normalizedDecimals)
	}

	return v
}

// roundTo rounds half away from zero to the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))

	return math.Round(v*scale) / scale
}

// syntheticSerial builds a placeholder serial from a random UUID's leading
// hex digits.
func syntheticSerial() string {
	return syntheticSerialPrefix + uuid.NewString()[:syntheticSerialHexDigits]
}
