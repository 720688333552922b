// Package config provides configuration loading and validation for listdelta.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidProbeLimit  = errors.New("assembler linear probe limit must not be negative")
	ErrInvalidLogLevel    = errors.New("unknown logging level")
	ErrInvalidLogFormat   = errors.New("unknown logging format")
	ErrInvalidSampleRatio = errors.New("telemetry sample ratio must be within [0, 1]")
	ErrInvalidAddr        = errors.New("diagnostics address must not be empty")
	ErrInvalidOperations  = errors.New("bench operations must be positive")
)

// Default configuration values.
const (
	DefaultLinearProbeLimit = 10
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultSampleRatio      = 1.0
	DefaultDiagnosticsAddr  = "127.0.0.1:9464"
	DefaultBenchOperations  = 10000
	DefaultBenchSeed        = 1

	envPrefix = "LISTDELTA"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "text"}
)

// Config holds all configuration for listdelta.
type Config struct {
	Assembler   AssemblerConfig   `mapstructure:"assembler"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics"`
	Bench       BenchConfig       `mapstructure:"bench"`
}

// AssemblerConfig tunes event assembly.
type AssemblerConfig struct {
	LinearProbeLimit int  `mapstructure:"linear_probe_limit"`
	ReentrancyGuard  bool `mapstructure:"reentrancy_guard"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds the OTLP export settings. An empty endpoint keeps
// telemetry in-process.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// DiagnosticsConfig controls the health and metrics listener.
type DiagnosticsConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
}

// BenchConfig sizes the synthetic workload of the bench command.
type BenchConfig struct {
	Operations int    `mapstructure:"operations"`
	Seed       uint64 `mapstructure:"seed"`
}

// LoadConfig loads configuration from file and environment variables. An
// empty configPath searches the working directory and /etc/listdelta for
// listdelta.yaml and tolerates its absence.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("listdelta")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("/etc/listdelta")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

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

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Assembler:   AssemblerConfig{LinearProbeLimit: DefaultLinearProbeLimit},
		Logging:     LoggingConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Telemetry:   TelemetryConfig{SampleRatio: DefaultSampleRatio},
		Diagnostics: DiagnosticsConfig{Addr: DefaultDiagnosticsAddr},
		Bench:       BenchConfig{Operations: DefaultBenchOperations, Seed: DefaultBenchSeed},
	}
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("assembler.linear_probe_limit", DefaultLinearProbeLimit)
	viperCfg.SetDefault("assembler.reentrancy_guard", false)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)

	viperCfg.SetDefault("diagnostics.enabled", false)
	viperCfg.SetDefault("diagnostics.addr", DefaultDiagnosticsAddr)

	viperCfg.SetDefault("bench.operations", DefaultBenchOperations)
	viperCfg.SetDefault("bench.seed", DefaultBenchSeed)
}

// Validate checks every field against its allowed range.
func (c *Config) Validate() error {
	if c.Assembler.LinearProbeLimit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidProbeLimit, c.Assembler.LinearProbeLimit)
	}

	if !slices.Contains(logLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if !slices.Contains(logFormats, strings.ToLower(c.Logging.Format)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	if c.Diagnostics.Enabled && c.Diagnostics.Addr == "" {
		return ErrInvalidAddr
	}

	if c.Bench.Operations <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidOperations, c.Bench.Operations)
	}

	return nil
}
