package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kaiser-net/nodefw/internal/clifmt"
	"github.com/kaiser-net/nodefw/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show node identity, lifecycle state, and connectivity config",
	RunE: func(cmd *cobra.Command, args []string) error {
		var sys config.SystemRecord
		if err := app.cfg.LoadSystem(&sys); err != nil {
			return fmt.Errorf("reading system record: %w", err)
		}
		var net config.NetworkCredentials
		if err := app.cfg.LoadNetwork(&net); err != nil {
			return fmt.Errorf("reading network record: %w", err)
		}
		var zone config.ZoneAssignment
		if err := app.cfg.LoadZone(&zone); err != nil {
			return fmt.Errorf("reading zone record: %w", err)
		}

		if app.jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
				"system":  sys,
				"network": net,
				"zone":    zone,
			})
		}

		fmt.Printf("Node: %s\n", clifmt.Bold(sys.NodeID))
		if sys.DeviceName != "" {
			fmt.Printf("Device name: %s\n", sys.DeviceName)
		}
		fmt.Printf("Lifecycle state: %s\n", clifmt.State(sys.LifecycleState))
		if sys.SafeModeReason != "" {
			fmt.Printf("Safe mode reason: %s\n", clifmt.Red(sys.SafeModeReason))
		}
		fmt.Printf("Boot count: %d\n", sys.BootCount)

		fmt.Println("\nNetwork:")
		if net.Configured {
			fmt.Printf("  SSID: %s\n", net.SSID)
			fmt.Printf("  Broker: %s:%d\n", net.BrokerHost, net.BrokerPort)
		} else {
			fmt.Printf("  %s\n", clifmt.Dim("not configured"))
		}

		fmt.Println("\nZone:")
		if zone.Assigned {
			fmt.Printf("  Zone ID: %s (parent %s)\n", zone.ZoneID, zone.ParentZoneID)
			if zone.ZoneName != "" {
				fmt.Printf("  Name: %s\n", zone.ZoneName)
			}
		} else {
			fmt.Printf("  %s\n", clifmt.Dim("unassigned"))
		}

		return nil
	},
}
