// Package commands implements the listdelta subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/listdelta/pkg/config"
	"github.com/Sumatoshi-tech/listdelta/pkg/listevent"
	"github.com/Sumatoshi-tech/listdelta/pkg/observability"
	"github.com/Sumatoshi-tech/listdelta/pkg/version"
)

const (
	flagConfig  = "config"
	flagVerbose = "verbose"
)

// App is the state shared by every subcommand: the loaded configuration,
// the telemetry providers and the optional diagnostics server.
type App struct {
	ConfigPath string
	Verbose    bool

	Config    *config.Config
	Providers observability.Providers
	Metrics   *observability.AssemblerMetrics

	diagnostics *observability.DiagnosticsServer
}

// BindFlags registers the global flags on the root command.
func (a *App) BindFlags(root *cobra.Command) {
	root.PersistentFlags().StringVarP(&a.ConfigPath, flagConfig, "c", "", "config file (default ./listdelta.yaml)")
	root.PersistentFlags().BoolVarP(&a.Verbose, flagVerbose, "v", false, "verbose output")
}

// Start loads the configuration and brings up telemetry for mode.
func (a *App) Start(ctx context.Context, mode observability.AppMode) error {
	cfg, err := config.LoadConfig(a.ConfigPath)
	if err != nil {
		return err
	}

	a.Config = cfg

	obsCfg := observability.FromAppConfig(cfg, mode)
	obsCfg.ServiceVersion = version.Version

	if a.Verbose {
		obsCfg.LogLevel = slog.LevelDebug
	}

	if mode == observability.ModeMCP {
		obsCfg.LogJSON = true
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	a.Providers = providers

	metrics, err := observability.NewAssemblerMetrics(providers.Meter)
	if err != nil {
		return errors.Join(err, providers.Shutdown(ctx))
	}

	a.Metrics = metrics

	if cfg.Diagnostics.Enabled {
		diag, diagErr := observability.NewDiagnosticsServer(cfg.Diagnostics.Addr,
			observability.WithMetrics(providers.MetricsHandler),
			observability.WithReadyCheck("config", func(context.Context) error { return cfg.Validate() }),
			observability.WithBuildInfo(map[string]string{
				"version": version.Version,
				"commit":  version.Commit,
				"date":    version.Date,
			}),
		)
		if diagErr != nil {
			return errors.Join(diagErr, providers.Shutdown(ctx))
		}

		a.diagnostics = diag
		providers.Logger.InfoContext(ctx, "diagnostics listening", "addr", diag.Addr())
	}

	return nil
}

// Stop closes the diagnostics server and flushes telemetry.
func (a *App) Stop(ctx context.Context) error {
	var errs []error

	if a.diagnostics != nil {
		errs = append(errs, a.diagnostics.Close(ctx))
		a.diagnostics = nil
	}

	if a.Providers.Shutdown != nil {
		errs = append(errs, a.Providers.Shutdown(ctx))
	}

	return errors.Join(errs...)
}

// Logger returns the configured logger, or the default before Start.
func (a *App) Logger() *slog.Logger {
	if a.Providers.Logger != nil {
		return a.Providers.Logger
	}

	return slog.Default()
}

// AssemblerOptions returns the assembler options implied by the
// configuration.
func (a *App) AssemblerOptions() []listevent.Option {
	opts := []listevent.Option{listevent.WithLogger(a.Logger())}

	if a.Metrics != nil {
		opts = append(opts, listevent.WithRecorder(a.Metrics))
	}

	if a.Config != nil {
		opts = append(opts,
			listevent.WithLinearProbeLimit(a.Config.Assembler.LinearProbeLimit),
			listevent.WithReentrancyGuard(a.Config.Assembler.ReentrancyGuard),
		)
	}

	return opts
}

// run wraps a RunE body with Start and Stop.
func (a *App) run(mode observability.AppMode, body func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		err := a.Start(ctx, mode)
		if err != nil {
			return err
		}

		defer func() {
			stopErr := a.Stop(context.WithoutCancel(ctx))
			if stopErr != nil {
				a.Logger().Warn("observability shutdown failed", "error", stopErr)
			}
		}()

		return body(cmd, args)
	}
}
