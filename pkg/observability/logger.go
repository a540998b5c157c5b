package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID   = "trace_id"
	attrSpanID    = "span_id"
	attrService   = "service"
	attrEnv       = "env"
	attrMode      = "mode"
	attrComponent = "component"
)

// TracingHandler decorates an [slog.Handler] with the active span's
// trace_id and span_id plus fixed service identity attributes. The identity
// attributes are attached to the inner handler up front, so WithGroup calls
// later in a logger's life cannot nest them away from the top level.
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps inner with service identity and trace correlation.
// An empty env is omitted rather than logged as a blank.
func NewTracingHandler(inner slog.Handler, service, env string, appMode AppMode) *TracingHandler {
	identity := make([]slog.Attr, 0, 3)
	identity = append(identity, slog.String(attrService, service))

	if env != "" {
		identity = append(identity, slog.String(attrEnv, env))
	}

	identity = append(identity, slog.String(attrMode, string(appMode)))

	return &TracingHandler{inner: inner.WithAttrs(identity)}
}

// Enabled delegates to the inner handler.
func (h *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle stamps the record with the span context, if ctx carries a valid
// one, before handing it on.
func (h *TracingHandler) Handle(ctx context.Context, rec slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		rec.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	if err := h.inner.Handle(ctx, rec); err != nil {
		return fmt.Errorf("emit log record: %w", err)
	}

	return nil
}

// WithAttrs forwards the attributes to the inner handler.
func (h *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{inner: h.inner.WithAttrs(attrs)}
}

// WithGroup forwards the group to the inner handler.
func (h *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{inner: h.inner.WithGroup(name)}
}

// newLogger builds the process logger: text or JSON on stderr, wrapped so
// trace correlation and service identity ride along on every line.
func newLogger(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var sink slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.LogJSON {
		sink = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(NewTracingHandler(sink, cfg.ServiceName, cfg.Environment, cfg.Mode))
}

// Component returns a child logger tagged with a component attribute.
// Subsystems (pipeline, actors, sinks) use it so their lines are
// distinguishable in shared output.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}

	return logger.With(slog.String(attrComponent, name))
}

// ParseLevel maps a level name (debug, info, warn, error) onto its
// slog.Level. Unknown names fall back to Info so a typo never silences
// logging.
func ParseLevel(name string) slog.Level {
	var level slog.Level

	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}

	return level
}
