// Garage-node runs a garage door and light actuator node.
//
// The node joins the configured WiFi network, serves status and command
// requests on a small HTTP-like listener, drives the front-panel status
// matrix and optionally publishes telemetry over MQTT. Losing the network
// never stops local control: the door button and night sensor keep working
// and the node reconnects in the background.
//
// Usage:
//
//	garage-node run --config /etc/garage/node.yaml
//
// On unix systems SIGUSR1 presses the door button and SIGUSR2 toggles the
// night sensor, which is handy on a bench without the wired inputs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/garagenode/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "garage-node",
	Short: "Garage door and light actuator node",
	Long: `Runs a garage door and light actuator node.

The node connects to WiFi, accepts status and command requests from
garage-ctl or any HTTP client, and keeps the door button and night light
working locally while the network is down.`,
	Version: version.Full(),
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("garage-node %s (commit: %s)\n", version.Version, version.Commit)
	},
}
