// Garage-ctl finds and controls garage nodes on the local network.
//
// Nodes are discovered over mDNS and remembered in a registry under the
// user's config directory, so later commands can address them by ID,
// instance name or a nickname.
//
// Usage:
//
//	garage-ctl [command] [flags]
//
// See 'garage-ctl --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/garagenode/internal/logging"
	"github.com/muurk/garagenode/internal/version"
)

// errReported means the failure has already been shown to the user
var errReported = errors.New("reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "garage-ctl",
	Short: "Garage node control utility",
	Long: `Find, inspect and operate garage nodes on the local network.

Nodes advertise themselves over mDNS. 'garage-ctl scan' records every node
it finds so that later commands can name a node by ID, instance name or
nickname. Without --node, the only known node is used, or discovery runs.`,
	Version:       version.Full(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize("")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("garage-ctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
