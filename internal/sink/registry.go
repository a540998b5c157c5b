package sink

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

var (
	// ErrUnknownFormat reports a formatter name the registry cannot build.
	ErrUnknownFormat = errors.New("unknown sink format")

	// ErrUnknownOutput reports an output name the registry cannot build.
	ErrUnknownOutput = errors.New("unknown sink output")
)

// Options selects and parameterizes the sink set to build.
type Options struct {
	// Format names the formatter shared by every output.
	Format string

	// Outputs lists destination names. Empty means console only.
	Outputs []string

	// FilePath overrides where file-backed outputs write.
	FilePath string

	// Compress routes file output through the LZ4 writer.
	Compress bool

	// Console overrides the console destination, usually for tests.
	Console io.Writer

	// Logger receives sink diagnostics.
	Logger *slog.Logger
}

// Registry maps formatter and output names onto their factories.
type Registry struct {
	formatters map[string]func() Formatter
	outputs    map[string]func(Options) (Output, error)
}

// NewRegistry returns a registry preloaded with the built-in formatters
// (text, json, yaml) and outputs (console, file).
func NewRegistry() *Registry {
	r := &Registry{
		formatters: make(map[string]func() Formatter),
		outputs:    make(map[string]func(Options) (Output, error)),
	}

	r.RegisterFormatter(FormatText, func() Formatter { return TextFormatter{} })
	r.RegisterFormatter(FormatJSON, func() Formatter { return JSONFormatter{} })
	r.RegisterFormatter(FormatYAML, func() Formatter { return YAMLFormatter{} })

	r.RegisterOutput(OutputConsole, func(opts Options) (Output, error) {
		return NewConsoleOutput(opts.Console), nil
	})
	r.RegisterOutput(OutputFile, func(opts Options) (Output, error) {
		if opts.Compress {
			return NewLZ4Output(opts.FilePath)
		}

		return NewFileOutput(opts.FilePath)
	})

	return r
}

// RegisterFormatter adds or replaces a formatter factory.
func (r *Registry) RegisterFormatter(name string, build func() Formatter) {
	r.formatters[strings.ToLower(name)] = build
}

// RegisterOutput adds or replaces an output factory.
func (r *Registry) RegisterOutput(name string, build func(Options) (Output, error)) {
	r.outputs[strings.ToLower(name)] = build
}

// Build assembles the configured sink set: one sink per requested output,
// all sharing the requested formatter.
func (r *Registry) Build(opts Options) (*Multi, error) {
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = FormatText
	}

	newFormatter, ok := r.formatters[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}

	names := opts.Outputs
	if len(names) == 0 {
		names = []string{OutputConsole}
	}

	sinks := make([]*Sink, 0, len(names))

	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))

		newOutput, ok := r.outputs[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOutput, name)
		}

		output, err := newOutput(opts)
		if err != nil {
			return nil, fmt.Errorf("build %s output: %w", key, err)
		}

		sinks = append(sinks, New(newFormatter(), output))
	}

	return NewMulti(opts.Logger, sinks...), nil
}

// Build assembles the configured sink set from the built-in registry.
func Build(opts Options) (*Multi, error) {
	return NewRegistry().Build(opts)
}
