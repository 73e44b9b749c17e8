package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kaiser-net/nodefw/internal/audit"
	"github.com/kaiser-net/nodefw/internal/clifmt"
	"github.com/kaiser-net/nodefw/internal/config"
)

var factoryResetCmd = &cobra.Command{
	Use:   "factory-reset",
	Short: "Clear network and zone configuration, returning the node to provisioning",
	Long: `Clears the network and zone records so the node re-enters the
provisioning lifecycle state on its next boot. The node identifier and
sensor/actuator registries are preserved.

Preview by default; pass -x to execute.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var sys config.SystemRecord
		if err := app.cfg.LoadSystem(&sys); err != nil {
			return fmt.Errorf("reading system record: %w", err)
		}

		if !app.executeMode {
			fmt.Printf("Would clear network and zone configuration for %s.\n", sys.NodeID)
			fmt.Println("Pass -x to execute.")
			return nil
		}

		event := audit.NewEvent(sys.NodeID, audit.KindFactoryReset, audit.SourceOperator)
		if err := app.cfg.Reset(); err != nil {
			event.Success = false
			event.Error = err.Error()
			_ = audit.Log(event)
			return fmt.Errorf("factory reset: %w", err)
		}
		_ = audit.Log(event)

		fmt.Printf("%s network and zone configuration cleared for %s.\n", clifmt.Green("OK"), sys.NodeID)
		return nil
	},
}
