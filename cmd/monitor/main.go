// Package main is the entry point for the Vitalis network monitor. It loads
// the layered configuration, registers the network monitors and exposes the
// query contract as CLI subcommands and an HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/monitor/internal/config"
	"github.com/Guliveer/vitalis/monitor/internal/monitor"
	"github.com/Guliveer/vitalis/monitor/internal/monitor/network"
	"github.com/Guliveer/vitalis/monitor/internal/query"
	"github.com/Guliveer/vitalis/monitor/internal/sampler"
	"github.com/Guliveer/vitalis/monitor/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	logLevel   string
	sarPath    string
	listenAddr string
)

// state is the runtime state shared by subcommands, built in PersistentPreRunE.
var state struct {
	cfg          *config.Config
	logger       *zap.Logger
	svc          *query.Service
	flushMetrics func(context.Context) error
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (default: auto-discover)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&sarPath, "sar", "", "Path to the sar binary")
}

var rootCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Network monitor - sample and decode interface statistics",
	Long: `monitor samples network interface statistics through pluggable monitors
and projects selected fields out of the sampled text.

Monitors are addressed by module and purpose:
  monitor query NET ESTAT --field="--nic=eth0 --fields=errs --fields=util"
  monitor collect --samples 5 --interval 10s
  monitor serve --listen 127.0.0.1:8383`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		teardown()
		os.Exit(1)
	}
}

// setup loads configuration, initializes logging and metrics and registers
// every monitor.
func setup(cmd *cobra.Command, args []string) error {
	cli := config.CLIOverrides{
		Tool:     sarPath,
		Listen:   listenAddr,
		LogLevel: logLevel,
	}

	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.LoadLayered(cli, embeddedConfig, configPath)
	} else {
		cfg, err = config.LoadLayered(cli, embeddedConfig)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := initLogger(cfg)

	flush, err := telemetry.Setup(telemetry.Options{
		Exporter:       cfg.Metrics.Exporter,
		Interval:       cfg.Metrics.Interval.Duration,
		TraceExporter:  cfg.Tracing.Exporter,
		ServiceVersion: version,
		Writer:         os.Stderr,
	})
	if err != nil {
		return err
	}

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		return err
	}
	svc, err := query.New(registry, logger)
	if err != nil {
		return fmt.Errorf("failed to create query service: %w", err)
	}

	state.cfg = cfg
	state.logger = logger
	state.svc = svc
	state.flushMetrics = flush
	return nil
}

func teardown() {
	if state.flushMetrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = state.flushMetrics(ctx)
		cancel()
		state.flushMetrics = nil
	}
	if state.logger != nil {
		_ = state.logger.Sync()
	}
}

// buildRegistry registers NET/ESTAT and NET/STAT from the configuration.
func buildRegistry(cfg *config.Config, logger *zap.Logger) (*monitor.Registry, error) {
	registry := monitor.NewRegistry(logger)

	estat, err := network.NewEstatCollector(network.EstatOptions{
		Command:  sampler.Command{Tool: cfg.Sampler.Tool, Args: cfg.Sampler.Args},
		Layout:   cfg.Decoder.Estat,
		Interval: cfg.Sampler.Interval,
	})
	if err != nil {
		return nil, fmt.Errorf("NET/ESTAT: %w", err)
	}
	if err := registry.Register(estat); err != nil {
		return nil, err
	}

	stat, err := network.NewStatCollector(network.StatOptions{
		Layout:   cfg.Decoder.Stat,
		Interval: cfg.Sampler.Interval,
	})
	if err != nil {
		return nil, fmt.Errorf("NET/STAT: %w", err)
	}
	if err := registry.Register(stat); err != nil {
		return nil, err
	}

	return registry, nil
}
