package sink

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pierrec/lz4/v4"
)

// Output names accepted by the registry.
const (
	OutputConsole = "console"
	OutputFile    = "file"
)

// DefaultFilePath is where the file output writes when no path is
// configured.
const DefaultFilePath = "sensor_log.txt"

// lz4Extension is enforced on compressed log paths.
const lz4Extension = ".lz4"

// fileHeaderPrefix starts the header line of every file-backed log.
const fileHeaderPrefix = "Sensor Monitoring Log - "

// ErrSinkIO reports a write failure inside an output. Callers keep the sink
// and may retry later lines.
var ErrSinkIO = errors.New("sink io failure")

// Output is one destination for formatted lines.
type Output interface {
	Name() string
	WriteLine(line string) error
	Flush() error
	Close() error
}

// ConsoleOutput writes lines to a terminal writer and colorizes alert
// lines.
type ConsoleOutput struct {
	w     io.Writer
	alert *color.Color
}

// NewConsoleOutput builds a console output. A nil writer selects stdout.
func NewConsoleOutput(w io.Writer) *ConsoleOutput {
	if w == nil {
		w = os.Stdout
	}

	return &ConsoleOutput{
		w:     w,
		alert: color.New(color.FgRed, color.Bold),
	}
}

// Name implements Output.
func (*ConsoleOutput) Name() string { return OutputConsole }

// WriteLine implements Output.
func (c *ConsoleOutput) WriteLine(line string) error {
	var err error

	if strings.Contains(line, "ALERT") {
		_, err = c.alert.Fprintln(c.w, line)
	} else {
		_, err = fmt.Fprintln(c.w, line)
	}

	if err != nil {
		return fmt.Errorf("%w: console: %v", ErrSinkIO, err)
	}

	return nil
}

// Flush implements Output. Console writes are unbuffered.
func (*ConsoleOutput) Flush() error { return nil }

// Close implements Output. The console stays open.
func (*ConsoleOutput) Close() error { return nil }

// FileOutput writes lines to a buffered, truncate-on-open log file topped by
// a timestamped header.
type FileOutput struct {
	file *os.File
	buf  *bufio.Writer
	path string
}

// NewFileOutput creates (or truncates) the log file and writes its header.
func NewFileOutput(path string) (*FileOutput, error) {
	if path == "" {
		path = DefaultFilePath
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	out := &FileOutput{
		file: file,
		buf:  bufio.NewWriter(file),
		path: path,
	}

	if err := out.WriteLine(fileHeaderPrefix + time.Now().Format(time.RFC3339)); err != nil {
		_ = file.Close()

		return nil, err
	}

	return out, nil
}

// Name implements Output.
func (*FileOutput) Name() string { return OutputFile }

// Path returns where the log file lives.
func (f *FileOutput) Path() string { return f.path }

// WriteLine implements Output.
func (f *FileOutput) WriteLine(line string) error {
	if _, err := fmt.Fprintln(f.buf, line); err != nil {
		return fmt.Errorf("%w: file %s: %v", ErrSinkIO, f.path, err)
	}

	return nil
}

// Flush implements Output.
func (f *FileOutput) Flush() error {
	if err := f.buf.Flush(); err != nil {
		return fmt.Errorf("%w: flush %s: %v", ErrSinkIO, f.path, err)
	}

	return nil
}

// Close implements Output.
func (f *FileOutput) Close() error {
	flushErr := f.Flush()

	if err := f.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", f.path, err)
	}

	return flushErr
}

// LZ4Output writes the same log as FileOutput through an LZ4 frame
// compressor. The configured path gains a .lz4 extension when missing.
type LZ4Output struct {
	file *os.File
	zw   *lz4.Writer
	path string
}

// NewLZ4Output creates the compressed log file and writes its header.
func NewLZ4Output(path string) (*LZ4Output, error) {
	if path == "" {
		path = DefaultFilePath
	}

	if filepath.Ext(path) != lz4Extension {
		path += lz4Extension
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create compressed log file: %w", err)
	}

	out := &LZ4Output{
		file: file,
		zw:   lz4.NewWriter(file),
		path: path,
	}

	if err := out.WriteLine(fileHeaderPrefix + time.Now().Format(time.RFC3339)); err != nil {
		_ = file.Close()

		return nil, err
	}

	return out, nil
}

// Name implements Output.
func (*LZ4Output) Name() string { return OutputFile }

// Path returns where the compressed log lives, extension included.
func (z *LZ4Output) Path() string { return z.path }

// WriteLine implements Output.
func (z *LZ4Output) WriteLine(line string) error {
	if _, err := fmt.Fprintln(z.zw, line); err != nil {
		return fmt.Errorf("%w: lz4 %s: %v", ErrSinkIO, z.path, err)
	}

	return nil
}

// Flush implements Output. Flushing ends the current LZ4 block early, so
// the frame stays readable even if the process dies before Close.
func (z *LZ4Output) Flush() error {
	if err := z.zw.Flush(); err != nil {
		return fmt.Errorf("%w: flush lz4 %s: %v", ErrSinkIO, z.path, err)
	}

	return nil
}

// Close implements Output. Closing the lz4 writer finalizes the frame.
func (z *LZ4Output) Close() error {
	zwErr := z.zw.Close()

	if err := z.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", z.path, err)
	}

	if zwErr != nil {
		return fmt.Errorf("finalize lz4 frame %s: %w", z.path, zwErr)
	}

	return nil
}
