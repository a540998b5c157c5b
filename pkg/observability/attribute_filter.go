package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Span attributes are allow-listed before export so PII and unbounded
// cardinality never leave the process. Namespaces are matched by prefix,
// bare keys exactly.
var (
	allowedNamespaces = []string{
		"sensorhub.",
		"error.",
		"http.",
		"pipeline.",
		"record.",
		"sensor.",
		"sink.",
		"actor.",
		"queue.",
		"pool.",
		"run.",
		"app.",
	}

	allowedKeys = map[string]bool{
		"error":        true,
		"stack":        true,
		"worker_index": true,
	}

	// deniedKeys beat the allow list: raw lines and payload bodies are
	// blocked even though they sit in allowed namespaces, because
	// upstream feeds may embed anything in them.
	deniedKeys = map[string]bool{
		"email":          true,
		"record.raw":     true,
		"record.payload": true,
		"request.body":   true,
		"response.body":  true,
	}

	deniedNamespaces = []string{"user."}
)

// attrScrubber is a SpanProcessor that drops denied and unrecognized
// attributes on the way to its delegate.
type attrScrubber struct {
	delegate sdktrace.SpanProcessor
	logger   *slog.Logger
}

// NewAttributeFilter wraps delegate so span attributes pass the allow list
// before export. With a non-nil logger every dropped key is logged, which
// is how new attributes get noticed during development.
func NewAttributeFilter(delegate sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &attrScrubber{delegate: delegate, logger: logger}
}

func (sc *attrScrubber) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	sc.delegate.OnStart(parent, s)
}

// OnEnd hands the delegate a view of the span that hides dropped
// attributes; a ReadOnlySpan cannot be edited in place.
func (sc *attrScrubber) OnEnd(s sdktrace.ReadOnlySpan) {
	sc.delegate.OnEnd(&scrubbedSpan{ReadOnlySpan: s, scrubber: sc})
}

func (sc *attrScrubber) Shutdown(ctx context.Context) error {
	if err := sc.delegate.Shutdown(ctx); err != nil {
		return fmt.Errorf("scrubber shutdown: %w", err)
	}

	return nil
}

func (sc *attrScrubber) ForceFlush(ctx context.Context) error {
	if err := sc.delegate.ForceFlush(ctx); err != nil {
		return fmt.Errorf("scrubber flush: %w", err)
	}

	return nil
}

// permitted applies the deny list first, then the allow list.
func (sc *attrScrubber) permitted(key string) bool {
	if deniedKeys[key] {
		sc.dropped(key)

		return false
	}

	for _, ns := range deniedNamespaces {
		if strings.HasPrefix(key, ns) {
			sc.dropped(key)

			return false
		}
	}

	if allowedKeys[key] {
		return true
	}

	for _, ns := range allowedNamespaces {
		if strings.HasPrefix(key, ns) {
			return true
		}
	}

	sc.dropped(key)

	return false
}

func (sc *attrScrubber) dropped(key string) {
	if sc.logger != nil {
		sc.logger.Warn("span attribute dropped", "key", key)
	}
}

// scrubbedSpan overrides Attributes with the filtered view.
type scrubbedSpan struct {
	sdktrace.ReadOnlySpan

	scrubber *attrScrubber
}

func (s *scrubbedSpan) Attributes() []attribute.KeyValue {
	all := s.ReadOnlySpan.Attributes()
	kept := make([]attribute.KeyValue, 0, len(all))

	for _, kv := range all {
		if s.scrubber.permitted(string(kv.Key)) {
			kept = append(kept, kv)
		}
	}

	return kept
}
