// Package observability provides OpenTelemetry-based tracing, metrics, and
// structured logging for the listdelta binary and for embedders of its
// assembler.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/listdelta/pkg/config"
)

// AppMode identifies the application execution mode.
type AppMode string

const (
	// ModeCLI is the CLI command execution mode.
	ModeCLI AppMode = "cli"
	// ModeMCP is the MCP stdio server mode.
	ModeMCP AppMode = "mcp"
)

// envOTLPHeaders is the standard OTel env var carrying exporter headers.
const envOTLPHeaders = "OTEL_EXPORTER_OTLP_HEADERS"

const (
	defaultServiceName     = "listdelta"
	defaultShutdownTimeout = 5 * time.Second
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the version of the running binary.
	ServiceVersion string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address. Empty disables export.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the exporters.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// SampleRatio is the root-span sampling ratio. Zero samples everything.
	SampleRatio float64

	// Prometheus attaches a pull reader whose scrape handler is returned in
	// Providers.MetricsHandler.
	Prometheus bool

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON enables JSON-formatted log output.
	LogJSON bool

	// LogOutput receives log records. Nil means stderr.
	LogOutput io.Writer

	// ShutdownTimeout bounds the flush on shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:     defaultServiceName,
		Mode:            ModeCLI,
		LogLevel:        slog.LevelInfo,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// FromAppConfig derives the observability settings from the loaded
// application configuration.
func FromAppConfig(app *config.Config, mode AppMode) Config {
	cfg := DefaultConfig()
	cfg.Mode = mode
	cfg.OTLPEndpoint = app.Telemetry.OTLPEndpoint
	cfg.OTLPInsecure = app.Telemetry.OTLPInsecure
	cfg.OTLPHeaders = ParseOTLPHeaders(os.Getenv(envOTLPHeaders))
	cfg.SampleRatio = app.Telemetry.SampleRatio
	cfg.Prometheus = app.Diagnostics.Enabled
	cfg.LogLevel = ParseLevel(app.Logging.Level)
	cfg.LogJSON = strings.EqualFold(app.Logging.Format, "json")

	return cfg
}

// ParseLevel maps a level name to its slog level. Unknown names are info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseOTLPHeaders parses "key=value,key=value". It returns nil for empty or
// invalid input.
func ParseOTLPHeaders(raw string) map[string]string {
	if raw == "" {
		return nil
	}

	result := make(map[string]string)

	for pair := range strings.SplitSeq(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || strings.TrimSpace(k) == "" {
			continue
		}

		result[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	if len(result) == 0 {
		return nil
	}

	return result
}
