package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jcalabro/cowbloom"
)

// Sentinel validation errors.
var (
	ErrInvalidProbes    = errors.New("probes must be positive")
	ErrInvalidWriters   = errors.New("writers must be positive")
	ErrInvalidBatchSize = errors.New("batch size must be positive")
	ErrInvalidBatches   = errors.New("batches must be positive")
	ErrInvalidRate      = errors.New("write rate must be positive")
	ErrInvalidLogFormat = errors.New("log format must be text or json")
)

// Default configuration values.
const (
	defaultCapacity   = 1000
	defaultFPP        = 0.01
	defaultProbes     = 100_000
	defaultWriters    = 8
	defaultBatchSize  = 100
	defaultBatches    = 10
	defaultAddr       = "127.0.0.1:9464"
	defaultWriteRate  = 50.0
	defaultWriteBurst = 10
)

// Config holds all configuration for the analysis tool.
type Config struct {
	Filter     FilterConfig     `mapstructure:"filter"`
	Probe      ProbeConfig      `mapstructure:"probe"`
	Contention ContentionConfig `mapstructure:"contention"`
	Serve      ServeConfig      `mapstructure:"serve"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// FilterConfig describes the filter under analysis.
type FilterConfig struct {
	Capacity       uint64        `mapstructure:"capacity"`
	FPP            float64       `mapstructure:"fpp"`
	BackoffInitial time.Duration `mapstructure:"backoff_initial"`
	BackoffMax     time.Duration `mapstructure:"backoff_max"`
}

// ProbeConfig holds false positive measurement settings.
type ProbeConfig struct {
	Count int `mapstructure:"count"`
}

// ContentionConfig holds concurrent writer settings.
type ContentionConfig struct {
	Writers   int `mapstructure:"writers"`
	BatchSize int `mapstructure:"batch_size"`
	Batches   int `mapstructure:"batches"`
}

// ServeConfig holds metrics server settings.
type ServeConfig struct {
	Addr       string        `mapstructure:"addr"`
	WriteRate  float64       `mapstructure:"write_rate"`
	WriteBurst int           `mapstructure:"write_burst"`
	Duration   time.Duration `mapstructure:"duration"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"capacity":        "filter.capacity",
	"fpp":             "filter.fpp",
	"backoff-initial": "filter.backoff_initial",
	"backoff-max":     "filter.backoff_max",
	"probes":          "probe.count",
	"writers":         "contention.writers",
	"batch-size":      "contention.batch_size",
	"batches":         "contention.batches",
	"addr":            "serve.addr",
	"write-rate":      "serve.write_rate",
	"write-burst":     "serve.write_burst",
	"duration":        "serve.duration",
	"log-level":       "logging.level",
	"log-format":      "logging.format",
}

// LoadConfig loads configuration from defaults, an optional config file,
// COWBLOOM_* environment variables and the command's flags, in increasing
// order of precedence.
func LoadConfig(configPath string, cmd *cobra.Command) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("cowbloom")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
	}

	viperCfg.SetEnvPrefix("COWBLOOM")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		for name, key := range flagKeys {
			if fl := cmd.Flags().Lookup(name); fl != nil {
				if err := viperCfg.BindPFlag(key, fl); err != nil {
					return nil, fmt.Errorf("failed to bind flag %q: %w", name, err)
				}
			}
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("filter.capacity", defaultCapacity)
	viperCfg.SetDefault("filter.fpp", defaultFPP)
	viperCfg.SetDefault("filter.backoff_initial", "0s")
	viperCfg.SetDefault("filter.backoff_max", "1ms")

	viperCfg.SetDefault("probe.count", defaultProbes)

	viperCfg.SetDefault("contention.writers", defaultWriters)
	viperCfg.SetDefault("contention.batch_size", defaultBatchSize)
	viperCfg.SetDefault("contention.batches", defaultBatches)

	viperCfg.SetDefault("serve.addr", defaultAddr)
	viperCfg.SetDefault("serve.write_rate", defaultWriteRate)
	viperCfg.SetDefault("serve.write_burst", defaultWriteBurst)
	viperCfg.SetDefault("serve.duration", "0s")

	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "text")
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.Filter.Capacity == 0 {
		return fmt.Errorf("%w: %d", cowbloom.ErrInvalidCapacity, config.Filter.Capacity)
	}

	if config.Filter.FPP <= 0 || config.Filter.FPP >= 1 {
		return fmt.Errorf("%w: %v", cowbloom.ErrInvalidFalsePositiveRate, config.Filter.FPP)
	}

	if config.Probe.Count <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidProbes, config.Probe.Count)
	}

	if config.Contention.Writers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWriters, config.Contention.Writers)
	}

	if config.Contention.BatchSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBatchSize, config.Contention.BatchSize)
	}

	if config.Contention.Batches <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBatches, config.Contention.Batches)
	}

	if config.Serve.WriteRate <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRate, config.Serve.WriteRate)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(config.Logging.Level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", config.Logging.Level, err)
	}

	switch config.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	return nil
}

// filterOptions translates the configuration into filter options.
func (c *Config) filterOptions(logger *slog.Logger) []cowbloom.Option {
	opts := []cowbloom.Option{cowbloom.WithLogger(logger)}
	if c.Filter.BackoffInitial > 0 {
		opts = append(opts, cowbloom.WithBackoff(c.Filter.BackoffInitial, c.Filter.BackoffMax))
	}

	return opts
}
