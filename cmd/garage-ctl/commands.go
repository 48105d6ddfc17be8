package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/garagenode/internal/client"
	"github.com/muurk/garagenode/internal/config"
	"github.com/muurk/garagenode/internal/discovery"
	"github.com/muurk/garagenode/internal/logging"
	"github.com/muurk/garagenode/internal/ui"
)

// Shared flags
var (
	nodeName     string
	timeoutSec   int
	statusPath   string
	setPath      string
	registryPath string
)

// Command flags
var (
	scanTimeout   int
	outputFormat  string
	assumeYes     bool
	lampDuration  int
	watchInterval int
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&nodeName, "node", "n", "", "Node ID, instance name, nickname or address")
	rootCmd.PersistentFlags().IntVar(&timeoutSec, "timeout", int(client.DefaultTimeout/time.Second), "Request timeout in seconds")
	rootCmd.PersistentFlags().StringVar(&statusPath, "status-path", "", "Status path (default: advertised or /status)")
	rootCmd.PersistentFlags().StringVar(&setPath, "set-path", "", "Command path (default: advertised or /set)")
	rootCmd.PersistentFlags().StringVar(&registryPath, "registry", "", "Node registry file (default: user config directory)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(nodesCmd)
	rootCmd.AddCommand(nameCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(doorCmd)
	rootCmd.AddCommand(lampCmd)
	rootCmd.AddCommand(watchCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for garage nodes on the network",
	Long: `Browse for garage nodes using mDNS/DNS-SD and record every node found
in the registry.`,
	Example: `  # Scan for 5 seconds (default)
  garage-ctl scan

  # Longer scan on a busy network
  garage-ctl scan --wait 15`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "wait", int(discovery.DefaultScanTimeout/time.Second), "Seconds to wait for answers")
}

func runScan(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	fmt.Printf("Scanning for garage nodes (timeout: %ds)...\n\n", scanTimeout)
	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second

	nodes, err := scanner.Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(nodes) == 0 {
		fmt.Println("No nodes found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the node is powered and has joined the network")
		fmt.Println("  - Check that mDNS is enabled in the node configuration")
		fmt.Println("  - Multicast may be blocked between WiFi and wired segments")
		fmt.Println("  - Use --node with the address shown on the node's display")
		return nil
	}

	fmt.Printf("Found %d node(s):\n\n", len(nodes))
	for i, n := range nodes {
		remember(reg, n)
		fmt.Printf("%d. %s\n", i+1, n.Instance)
		fmt.Printf("   ID:      %s\n", n.ID)
		fmt.Printf("   Address: %s\n", n.Addr())
		if v := n.GetMetadata(discovery.TxtVersion); v != "" {
			fmt.Printf("   Version: %s\n", v)
		}
		if known := reg.GetNode(n.ID); known != nil && known.Nickname != "" {
			fmt.Printf("   Name:    %s\n", known.Nickname)
		}
		fmt.Println()
	}

	if err := saveRegistry(reg); err != nil {
		return err
	}
	fmt.Println("Use 'garage-ctl name <id> <nickname>' to give a node a short name")
	return nil
}

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List nodes in the registry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if len(reg.Nodes) == 0 {
			fmt.Println("No known nodes. Run 'garage-ctl scan' first.")
			return nil
		}
		for _, id := range reg.IDs() {
			n := reg.Nodes[id]
			seen := "never"
			if !n.LastSeen.IsZero() {
				seen = n.LastSeen.Local().Format(time.DateTime)
			}
			fmt.Printf("%-36s  %-16s  %-21s  %s\n", id, displayName(id, n), n.LastAddr, seen)
		}
		return nil
	},
}

var nameCmd = &cobra.Command{
	Use:   "name <id> <nickname>",
	Short: "Give a node a nickname",
	Example: `  garage-ctl name 6f1c2a9e-0d4b-4c1e-9a53-2b7f7e0c1d44 north
  garage-ctl status --node north`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		id, nickname := args[0], args[1]
		if reg.GetNode(id) == nil {
			return fmt.Errorf("unknown node ID %q. Run 'garage-ctl scan' or 'garage-ctl nodes'", id)
		}
		reg.SetNickname(id, nickname)
		if err := saveRegistry(reg); err != nil {
			return err
		}
		fmt.Printf("✓ %s is now %q\n", id, nickname)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a node's door, light and network state",
	Example: `  # Status panel on a terminal, one line otherwise
  garage-ctl status --node north

  # JSON for scripting
  garage-ctl status --node 192.168.1.190 --format json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&outputFormat, "format", "", "Output format (panel, detailed, summary, json); default panel on a terminal")
}

type statusJSON struct {
	Node        string      `json:"node"`
	Door        string      `json:"door"`
	Light       string      `json:"light"`
	Night       bool        `json:"night"`
	LightLeftMS int64       `json:"light_timeout_ms,omitempty"`
	Network     networkJSON `json:"network"`
}

type networkJSON struct {
	Connected bool   `json:"connected"`
	IP        string `json:"ip,omitempty"`
	Gateway   string `json:"gateway,omitempty"`
	Subnet    string `json:"subnet,omitempty"`
	RSSI      int    `json:"rssi,omitempty"`
	SSID      string `json:"ssid,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	t, c, err := connect(cmd.Context())
	if err != nil {
		return err
	}

	status, err := c.GetStatus(cmd.Context())
	if err != nil {
		return reportNodeError("Status of "+t.Name, err)
	}

	format := outputFormat
	if format == "" {
		format = "summary"
		if ui.IsTerminal() {
			format = "panel"
		}
	}

	switch format {
	case "json":
		out := statusJSON{
			Node:        t.Name,
			Door:        status.Door(),
			Light:       status.Light(),
			Night:       status.Night,
			LightLeftMS: status.LightRemaining.Milliseconds(),
			Network: networkJSON{
				Connected: status.Network.Connected,
				IP:        status.Network.IP,
				Gateway:   status.Network.Gateway,
				Subnet:    status.Network.Subnet,
				RSSI:      status.Network.RSSI,
				SSID:      status.Network.SSID,
			},
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	case "detailed":
		fmt.Print(status.FormatDetailed())
	case "summary":
		fmt.Printf("%s: %s\n", t.Name, status.Summary())
	case "panel":
		ui.NewPrinter(nil).PrintStatus(t.Name, status)
	default:
		return fmt.Errorf("unknown format %q (use panel, detailed, summary or json)", format)
	}
	return nil
}

var doorCmd = &cobra.Command{
	Use:   "door <open|close>",
	Short: "Open or close the door",
	Long: `Pulse the door relay to open or close the door.

The node refuses to open an open door or close a closed one. The command
asks for confirmation on a terminal unless --yes is given.`,
	Example: `  garage-ctl door open --node north
  garage-ctl door close --node north --yes`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"open", "close"},
	RunE:      runDoor,
}

func init() {
	doorCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
}

func runDoor(cmd *cobra.Command, args []string) error {
	action := args[0]
	if err := (client.Command{Device: "door", Action: action}).Validate(); err != nil {
		return err
	}

	t, c, err := connect(cmd.Context())
	if err != nil {
		return err
	}

	if !assumeYes {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("refusing to move the door without confirmation; pass --yes")
		}
		if !ui.ConfirmDoor(os.Stdin, os.Stdout, t.Name, action) {
			return nil
		}
	}

	message, err := c.Door(cmd.Context(), action)
	if err != nil {
		return reportNodeError("Door "+action, err)
	}
	reportSuccess("Door "+action, t, message)
	return nil
}

var lampCmd = &cobra.Command{
	Use:   "lamp <on|off>",
	Short: "Switch the lamp",
	Long: `Switch the lamp on or off. A lamp switched on turns itself off after
--duration seconds, or the node's default when no duration is given.`,
	Example: `  garage-ctl lamp on --node north
  garage-ctl lamp on --duration 600
  garage-ctl lamp off`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runLamp,
}

func init() {
	lampCmd.Flags().IntVarP(&lampDuration, "duration", "d", 0, "Seconds until the lamp turns off (lamp on only)")
}

func runLamp(cmd *cobra.Command, args []string) error {
	action := args[0]
	duration := time.Duration(lampDuration) * time.Second
	if action == "off" && duration != 0 {
		return fmt.Errorf("--duration only applies to lamp on")
	}
	if err := (client.Command{Device: "lamp", Action: action, Duration: duration}).Validate(); err != nil {
		return err
	}

	t, c, err := connect(cmd.Context())
	if err != nil {
		return err
	}

	message, err := c.Lamp(cmd.Context(), action, duration)
	if err != nil {
		return reportNodeError("Lamp "+action, err)
	}
	reportSuccess("Lamp "+action, t, message)
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a node's status live",
	Long: `Poll a node and redraw its status panel until you quit. Press l to
toggle the lamp, r to refresh and q to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ui.IsTerminal() {
			return fmt.Errorf("watch needs a terminal; use 'garage-ctl status' instead")
		}
		t, c, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		return ui.RunWatch(t.Name, c, time.Duration(watchInterval)*time.Second)
	},
}

func init() {
	watchCmd.Flags().IntVar(&watchInterval, "interval", int(ui.DefaultWatchInterval/time.Second), "Seconds between polls")
}

// connect resolves the target node and builds a client for it
func connect(ctx context.Context) (*target, *client.Client, error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, nil, err
	}

	t, changed, err := resolveTarget(ctx, reg, nodeName, discovery.NewScanner())
	if changed {
		if serr := saveRegistry(reg); serr != nil {
			logging.Warn("Failed to save node registry", zap.Error(serr))
		}
	}
	if err != nil {
		return nil, nil, err
	}
	logging.Debug("Resolved node", zap.String("name", t.Name), zap.String("addr", t.Addr))

	c := client.NewClient(t.Addr)
	c.SetTimeout(time.Duration(timeoutSec) * time.Second)
	c.SetPaths(t.StatusPath, t.SetPath)
	c.SetPaths(statusPath, setPath)
	return t, c, nil
}

func reportNodeError(title string, err error) error {
	if !ui.IsTerminal() {
		return fmt.Errorf("%s: %s", strings.ToLower(title), client.ShortMessage(err))
	}
	ui.NewPrinter(nil).PrintNodeError(title, err)
	return errReported
}

func reportSuccess(title string, t *target, message string) {
	if !ui.IsTerminal() {
		fmt.Printf("%s: %s\n", t.Name, message)
		return
	}
	ui.NewPrinter(nil).PrintSuccess(title,
		ui.Param{Key: "Node", Value: t.Name},
		ui.Param{Key: "Address", Value: t.Addr},
		ui.Param{Key: "Reply", Value: message},
	)
}

func loadRegistry() (*config.Registry, error) {
	if registryPath != "" {
		return config.LoadRegistryFrom(registryPath)
	}
	return config.LoadRegistry()
}

func saveRegistry(reg *config.Registry) error {
	if registryPath != "" {
		return reg.SaveTo(registryPath)
	}
	return reg.Save()
}
