// Package config loads, validates, and defaults the sensorhub runtime
// configuration from file, environment, and flags.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the top-level configuration struct for sensorhub.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Input         InputConfig         `mapstructure:"input"`
	Pipeline      PipelineConfig      `mapstructure:"pipeline"`
	Analyzers     AnalyzersConfig     `mapstructure:"analyzers"`
	Alerts        AlertsConfig        `mapstructure:"alerts"`
	Sink          SinkConfig          `mapstructure:"sink"`
	Dashboard     DashboardConfig     `mapstructure:"dashboard"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// InputConfig locates the record feed.
type InputConfig struct {
	// Path is the input file holding one raw record per line.
	Path string `mapstructure:"path"`

	// Delay simulates a live feed by sleeping between lines.
	Delay time.Duration `mapstructure:"delay"`
}

// PipelineConfig holds run-mode and concurrency knobs.
type PipelineConfig struct {
	Mode          string        `mapstructure:"mode"`
	Workers       int           `mapstructure:"workers"`
	QueueCapacity int           `mapstructure:"queue_capacity"`
	MailboxSize   int           `mapstructure:"mailbox_size"`
	ActorTimeout  time.Duration `mapstructure:"actor_timeout"`
}

// AnalyzersConfig holds the statistical analyzers' thresholds. Zero values
// select each analyzer's built-in default.
type AnalyzersConfig struct {
	TempWarning     float64 `mapstructure:"temp_warning"`
	TempCritical    float64 `mapstructure:"temp_critical"`
	HumidityLow     float64 `mapstructure:"humidity_low"`
	HumidityHigh    float64 `mapstructure:"humidity_high"`
	BatteryLowRatio float64 `mapstructure:"battery_low_ratio"`
}

// AlertsConfig holds the alert actor's thresholds. Zero values select the
// actor defaults. Battery is a percentage here; the battery analyzer keeps
// its own ratio-based threshold.
type AlertsConfig struct {
	TempHigh          float64 `mapstructure:"temp_high"`
	TempLow           float64 `mapstructure:"temp_low"`
	HumidityHigh      float64 `mapstructure:"humidity_high"`
	HumidityLow       float64 `mapstructure:"humidity_low"`
	BatteryLowPercent float64 `mapstructure:"battery_low_percent"`
}

// SinkConfig selects the record output set.
type SinkConfig struct {
	Format   string   `mapstructure:"format"`
	Outputs  []string `mapstructure:"outputs"`
	FilePath string   `mapstructure:"file_path"`
	Compress bool     `mapstructure:"compress"`
}

// DashboardConfig controls the post-run HTML report.
type DashboardConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	MetricsAddr  string `mapstructure:"metrics_addr"`
	LogLevel     string `mapstructure:"log_level"`
	LogJSON      bool   `mapstructure:"log_json"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidMode indicates an unknown processing mode name or digit.
	ErrInvalidMode = errors.New("pipeline.mode must be sequential, pool, or stream")
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("pipeline.workers must be non-negative")
	// ErrInvalidQueueCapacity indicates the queue capacity is negative.
	ErrInvalidQueueCapacity = errors.New("pipeline.queue_capacity must be non-negative")
	// ErrInvalidMailboxSize indicates the mailbox size is negative.
	ErrInvalidMailboxSize = errors.New("pipeline.mailbox_size must be non-negative")
	// ErrInvalidActorTimeout indicates the actor timeout is negative.
	ErrInvalidActorTimeout = errors.New("pipeline.actor_timeout must be non-negative")
	// ErrInvalidDelay indicates the feed delay is negative.
	ErrInvalidDelay = errors.New("input.delay must be non-negative")
	// ErrInvalidFormat indicates an unknown sink format name.
	ErrInvalidFormat = errors.New("sink.format must be text, json, or yaml")
	// ErrInvalidOutput indicates an unknown sink output name.
	ErrInvalidOutput = errors.New("sink.outputs entries must be console or file")
	// ErrInvalidThreshold indicates a negative analyzer or alert threshold.
	ErrInvalidThreshold = errors.New("threshold must be non-negative")
)

// knownModes are the accepted pipeline.mode spellings, including the
// interactive menu digits.
var knownModes = map[string]bool{
	"": true, "sequential": true, "pool": true, "stream": true,
	"1": true, "2": true, "3": true,
}

// knownFormats are the accepted sink.format names.
var knownFormats = map[string]bool{
	"": true, "text": true, "json": true, "yaml": true,
}

// knownOutputs are the accepted sink.outputs entries.
var knownOutputs = map[string]bool{
	"console": true, "file": true,
}

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	pipelineErr := c.validatePipeline()
	if pipelineErr != nil {
		return pipelineErr
	}

	sinkErr := c.validateSink()
	if sinkErr != nil {
		return sinkErr
	}

	return c.validateThresholds()
}

func (c *Config) validatePipeline() error {
	if !knownModes[c.Pipeline.Mode] {
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Pipeline.Mode)
	}

	if c.Pipeline.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Pipeline.QueueCapacity < 0 {
		return ErrInvalidQueueCapacity
	}

	if c.Pipeline.MailboxSize < 0 {
		return ErrInvalidMailboxSize
	}

	if c.Pipeline.ActorTimeout < 0 {
		return ErrInvalidActorTimeout
	}

	if c.Input.Delay < 0 {
		return ErrInvalidDelay
	}

	return nil
}

func (c *Config) validateSink() error {
	if !knownFormats[c.Sink.Format] {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Sink.Format)
	}

	for _, out := range c.Sink.Outputs {
		if !knownOutputs[out] {
			return fmt.Errorf("%w: %q", ErrInvalidOutput, out)
		}
	}

	return nil
}

func (c *Config) validateThresholds() error {
	named := []struct {
		key   string
		value float64
	}{
		{"analyzers.temp_warning", c.Analyzers.TempWarning},
		{"analyzers.temp_critical", c.Analyzers.TempCritical},
		{"analyzers.humidity_low", c.Analyzers.HumidityLow},
		{"analyzers.humidity_high", c.Analyzers.HumidityHigh},
		{"analyzers.battery_low_ratio", c.Analyzers.BatteryLowRatio},
		{"alerts.temp_high", c.Alerts.TempHigh},
		{"alerts.temp_low", c.Alerts.TempLow},
		{"alerts.humidity_high", c.Alerts.HumidityHigh},
		{"alerts.humidity_low", c.Alerts.HumidityLow},
		{"alerts.battery_low_percent", c.Alerts.BatteryLowPercent},
	}

	for _, t := range named {
		if t.value < 0 {
			return fmt.Errorf("%w: %s", ErrInvalidThreshold, t.key)
		}
	}

	return nil
}
