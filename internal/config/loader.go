package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config file identity and environment binding. A nested key such as
// sink.format is overridable through SENSORHUB_SINK_FORMAT.
const (
	configName      = ".sensorhub"
	configType      = "yaml"
	envPrefix       = "SENSORHUB"
	envKeySeparator = "_"
)

// Defaults applied before file and environment layers.
const (
	DefaultInputPath     = "sensor_data.txt"
	DefaultMode          = "sequential"
	DefaultQueueCapacity = 100
	DefaultMailboxSize   = 64
	DefaultActorTimeout  = 5 * time.Second
	DefaultSinkFormat    = "text"
	DefaultSinkFilePath  = "sensor_log.txt"
	DefaultDashboardPath = "sensor_dashboard.html"
	DefaultLogLevel      = "info"
)

// DefaultSinkOutputs returns the default output set.
func DefaultSinkOutputs() []string {
	return []string{"console"}
}

// LoadConfig resolves the layered configuration: defaults underneath an
// optional YAML file underneath SENSORHUB_* environment variables. With an
// empty configPath the file is searched in the working directory and $HOME,
// and finding none just means defaults; an explicit path that cannot be
// read is an error.
func LoadConfig(configPath string) (*Config, error) {
	v := newViper(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// newViper assembles the source layers in precedence order.
func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigType(configType)

	applyDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)

		return v
	}

	v.SetConfigName(configName)
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}

	return v
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("input.path", DefaultInputPath)
	v.SetDefault("input.delay", time.Duration(0))

	v.SetDefault("pipeline.mode", DefaultMode)
	v.SetDefault("pipeline.workers", 0)
	v.SetDefault("pipeline.queue_capacity", DefaultQueueCapacity)
	v.SetDefault("pipeline.mailbox_size", DefaultMailboxSize)
	v.SetDefault("pipeline.actor_timeout", DefaultActorTimeout)

	v.SetDefault("sink.format", DefaultSinkFormat)
	v.SetDefault("sink.outputs", DefaultSinkOutputs())
	v.SetDefault("sink.file_path", DefaultSinkFilePath)
	v.SetDefault("sink.compress", false)

	v.SetDefault("dashboard.enabled", false)
	v.SetDefault("dashboard.path", DefaultDashboardPath)

	v.SetDefault("observability.log_level", DefaultLogLevel)
	v.SetDefault("observability.log_json", false)
}
