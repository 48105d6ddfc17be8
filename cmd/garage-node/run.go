package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/garagenode/internal/config"
	"github.com/muurk/garagenode/internal/logging"
	"github.com/muurk/garagenode/internal/node"
)

var (
	configPath string
	logLevel   string
	noMDNS     bool
	noMQTT     bool
	noDisplay  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the node",
	Long: `Load the configuration, connect to WiFi and run the control loop until
interrupted.

Configuration comes from the YAML file given with --config, overlaid by
GARAGE_* environment variables. Without --config only the defaults and the
environment are used; GARAGE_WIFI_SSID must then be set.

Without a wifi.interface the node runs on a simulated radio that attaches
at wifi.sim_address, which is useful for trying garage-ctl locally.`,
	Example: `  # Run from a config file
  garage-node run --config /etc/garage/node.yaml

  # Simulated radio on a high port, no mDNS
  GARAGE_WIFI_SSID=bench GARAGE_API_PORT=8080 garage-node run --no-mdns

  # Debug logging
  garage-node run --config node.yaml --log-level debug`,
	RunE: runNode,
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the node configuration file")
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	runCmd.Flags().BoolVar(&noMDNS, "no-mdns", false, "Do not advertise the node over mDNS")
	runCmd.Flags().BoolVar(&noMQTT, "no-mqtt", false, "Do not publish telemetry even if configured")
	runCmd.Flags().BoolVar(&noDisplay, "no-display", false, "Do not print status matrix frames")
}

func runNode(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if noDisplay {
		cfg.Display.Terminal = false
	}

	if err := logging.InitializeWithFile(cfg.Logging.Level, logging.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	n, err := node.New(cfg, node.Deps{NoMDNS: noMDNS, NoMQTT: noMQTT})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopInputs := forwardInputSignals(n)
	defer stopInputs()

	if configPath != "" {
		logging.Info("Configuration loaded", zap.String("path", configPath))
	}
	return n.Run(ctx)
}
