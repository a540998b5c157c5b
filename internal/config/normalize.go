package config

// positive constrains types eligible for zero-means-default normalization.
type positive interface {
	~int | ~int64 | ~float64
}

// orDefault returns fallback when value is not positive. Zero values mean
// "use the default", mirroring how the component constructors treat them.
func orDefault[T positive](value, fallback T) T {
	if value > 0 {
		return value
	}

	return fallback
}

// orDefaultString returns fallback when value is empty.
func orDefaultString(value, fallback string) string {
	if value != "" {
		return value
	}

	return fallback
}

// Normalized returns a copy of the config with every zero field replaced by
// its default. LoadConfig output is already normalized through viper
// defaults; this covers configs assembled by hand, flag merging included.
func (c Config) Normalized() Config {
	c.Input.Path = orDefaultString(c.Input.Path, DefaultInputPath)

	c.Pipeline.Mode = orDefaultString(c.Pipeline.Mode, DefaultMode)
	c.Pipeline.QueueCapacity = orDefault(c.Pipeline.QueueCapacity, DefaultQueueCapacity)
	c.Pipeline.MailboxSize = orDefault(c.Pipeline.MailboxSize, DefaultMailboxSize)
	c.Pipeline.ActorTimeout = orDefault(c.Pipeline.ActorTimeout, DefaultActorTimeout)

	c.Sink.Format = orDefaultString(c.Sink.Format, DefaultSinkFormat)
	c.Sink.FilePath = orDefaultString(c.Sink.FilePath, DefaultSinkFilePath)

	if len(c.Sink.Outputs) == 0 {
		c.Sink.Outputs = DefaultSinkOutputs()
	}

	c.Dashboard.Path = orDefaultString(c.Dashboard.Path, DefaultDashboardPath)

	c.Observability.LogLevel = orDefaultString(c.Observability.LogLevel, DefaultLogLevel)

	return c
}
