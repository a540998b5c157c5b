// Package observability wires OpenTelemetry tracing and metrics plus
// structured logging behind one Init call. Without an OTLP endpoint the
// providers are no-ops and the only cost is the logger.
package observability

import (
	"log/slog"
	"strings"
)

// AppMode identifies how the binary was launched.
type AppMode string

// ModeCLI is the interactive command-line mode, currently the only one.
const ModeCLI AppMode = "cli"

const (
	// defaultServiceName is the OTel resource service name.
	defaultServiceName = "sensorhub"

	// defaultShutdownTimeoutSec caps the telemetry flush on shutdown.
	defaultShutdownTimeoutSec = 5
)

// Config carries everything Init needs to bring up telemetry.
type Config struct {
	// ServiceName identifies this process in the OTel resource.
	ServiceName string

	// ServiceVersion is the binary's semantic version.
	ServiceVersion string

	// Environment is the deployment environment, e.g. "dev".
	Environment string

	// Mode records how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address, e.g.
	// "localhost:4317". Empty disables export; providers become no-ops.
	OTLPEndpoint string

	// OTLPHeaders are extra gRPC metadata headers for the OTLP exporters.
	OTLPHeaders map[string]string

	// OTLPInsecure turns TLS off on the OTLP gRPC connection.
	OTLPInsecure bool

	// DebugTrace forces full trace sampling.
	DebugTrace bool

	// SampleRatio is the trace sampling ratio in (0, 1]. Zero keeps the
	// SDK default of parent-based always-on.
	SampleRatio float64

	// LogLevel is the minimum slog severity.
	LogLevel slog.Level

	// LogJSON switches log output from text to JSON.
	LogJSON bool

	// ShutdownTimeoutSec caps how long Shutdown waits for the flush.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config suitable for zero-configuration startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}

// ParseOTLPHeaders splits a "key=value,key=value" header spec into a map
// for Config.OTLPHeaders. Fields without an equals sign are dropped, keys
// and values are trimmed, and an empty result collapses to nil.
func ParseOTLPHeaders(spec string) map[string]string {
	headers := make(map[string]string)

	for field := range strings.SplitSeq(spec, ",") {
		name, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}

		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	if len(headers) == 0 {
		return nil
	}

	return headers
}
