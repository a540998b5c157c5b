// Package commands implements CLI command handlers for sensorhub.
package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sensorhub/internal/config"
	"github.com/Sumatoshi-tech/sensorhub/internal/pipeline"
)

// pipelineExecutor runs the assembled pipeline over the configured feed.
// Injected so command tests can capture the merged config without touching
// the real pipeline.
type pipelineExecutor func(ctx context.Context, cfg config.Config, out io.Writer) error

// RunCommand holds the flag state and dependencies of the run command.
type RunCommand struct {
	configPath    string
	mode          string
	format        string
	outputs       []string
	outputFile    string
	compress      bool
	dashboard     bool
	dashboardPath string
	workers       int
	queueCapacity int
	delay         time.Duration
	metricsAddr   string
	otlpEndpoint  string
	logJSON       bool

	exec   pipelineExecutor
	isTTY  func() bool
	menuIn io.Reader
}

// NewRunCommand creates the run command wired to the real pipeline.
func NewRunCommand() *cobra.Command {
	return newRunCommandWithDeps(runPipeline, stdinIsTerminal, os.Stdin)
}

func newRunCommandWithDeps(exec pipelineExecutor, isTTY func() bool, menuIn io.Reader) *cobra.Command {
	rc := &RunCommand{
		exec:   exec,
		isTTY:  isTTY,
		menuIn: menuIn,
	}

	cmd := &cobra.Command{
		Use:   "run [input-file]",
		Short: "Process a sensor record feed",
		Long: "Read raw sensor records line by line, route them through parsing,\n" +
			"aggregation, analysis, alerting, and display, then print the run reports.",
		Args: cobra.MaximumNArgs(1),
		RunE: rc.run,
	}

	cmd.Flags().StringVarP(&rc.mode, "mode", "m", "", "Processing mode: sequential, pool, stream (or menu digits 1/2/3)")
	cmd.Flags().StringVar(&rc.format, "format", "", "Record output format: text, json, yaml")
	cmd.Flags().StringSliceVar(&rc.outputs, "out", nil, "Output destinations: console, file (repeatable)")
	cmd.Flags().StringVar(&rc.outputFile, "output-file", "", "File path for the file output")
	cmd.Flags().BoolVar(&rc.compress, "compress", false, "LZ4-compress the file output")
	cmd.Flags().BoolVar(&rc.dashboard, "dashboard", false, "Write the HTML dashboard after the run")
	cmd.Flags().StringVar(&rc.dashboardPath, "dashboard-path", "", "Dashboard output path")
	cmd.Flags().IntVar(&rc.workers, "workers", 0, "Worker pool size for pool mode (0 = CPU count)")
	cmd.Flags().IntVar(&rc.queueCapacity, "queue-capacity", 0, "Streaming queue capacity (0 = default 100)")
	cmd.Flags().DurationVar(&rc.delay, "delay", 0, "Per-line delay simulating a live feed (e.g. 250ms)")
	cmd.Flags().StringVar(&rc.configPath, "config", "", "Config file path (default: .sensorhub.yaml in CWD or $HOME)")
	cmd.Flags().StringVar(&rc.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics and health probes on this address")
	cmd.Flags().StringVar(&rc.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC collector endpoint")
	cmd.Flags().BoolVar(&rc.logJSON, "log-json", false, "Emit JSON logs")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(rc.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	rc.applyFlags(cmd, cfg, args)

	if !cmd.Flags().Changed("mode") && rc.isTTY() {
		mode, promptErr := promptMode(cmd.OutOrStdout(), rc.menuIn)
		if promptErr != nil {
			return promptErr
		}

		if mode != "" {
			cfg.Pipeline.Mode = mode
		}
	}

	merged := cfg.Normalized()

	validateErr := merged.Validate()
	if validateErr != nil {
		return fmt.Errorf("validate config: %w", validateErr)
	}

	return rc.exec(cmd.Context(), merged, cmd.OutOrStdout())
}

// applyFlags merges explicitly set flags over the loaded config. Flags the
// user did not touch leave the config values alone.
func (rc *RunCommand) applyFlags(cmd *cobra.Command, cfg *config.Config, args []string) {
	if len(args) > 0 {
		cfg.Input.Path = args[0]
	}

	flags := cmd.Flags()

	if flags.Changed("mode") {
		cfg.Pipeline.Mode = rc.mode
	}

	if flags.Changed("workers") {
		cfg.Pipeline.Workers = rc.workers
	}

	if flags.Changed("queue-capacity") {
		cfg.Pipeline.QueueCapacity = rc.queueCapacity
	}

	if flags.Changed("delay") {
		cfg.Input.Delay = rc.delay
	}

	if flags.Changed("format") {
		cfg.Sink.Format = rc.format
	}

	if flags.Changed("out") {
		cfg.Sink.Outputs = rc.outputs
	}

	if flags.Changed("output-file") {
		cfg.Sink.FilePath = rc.outputFile
	}

	if flags.Changed("compress") {
		cfg.Sink.Compress = rc.compress
	}

	if flags.Changed("dashboard") {
		cfg.Dashboard.Enabled = rc.dashboard
	}

	if flags.Changed("dashboard-path") {
		cfg.Dashboard.Path = rc.dashboardPath
	}

	if flags.Changed("metrics-addr") {
		cfg.Observability.MetricsAddr = rc.metricsAddr
	}

	if flags.Changed("otlp-endpoint") {
		cfg.Observability.OTLPEndpoint = rc.otlpEndpoint
	}

	if flags.Changed("log-json") {
		cfg.Observability.LogJSON = rc.logJSON
	}

	rc.applyVerbosity(cmd, cfg)
}

// applyVerbosity maps the root command's persistent --verbose/--quiet flags
// onto the log level. Quiet wins when both are set.
func (rc *RunCommand) applyVerbosity(cmd *cobra.Command, cfg *config.Config) {
	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
		cfg.Observability.LogLevel = "debug"
	}

	if quiet, err := cmd.Flags().GetBool("quiet"); err == nil && quiet {
		cfg.Observability.LogLevel = "error"
	}
}

// promptMode prints the processing mode menu and reads one selection. The
// answer may be a digit or a mode name; an empty answer keeps the configured
// mode.
func promptMode(out io.Writer, in io.Reader) (string, error) {
	fmt.Fprintln(out, "Select processing mode:")

	for i, mode := range pipeline.Modes() {
		fmt.Fprintf(out, "  %d) %s\n", i+1, mode)
	}

	fmt.Fprint(out, "> ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read mode selection: %w", err)
	}

	return strings.TrimSpace(line), nil
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
