package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kaiser-net/nodefw/internal/audit"
	"github.com/kaiser-net/nodefw/internal/clifmt"
	"github.com/kaiser-net/nodefw/internal/config"
)

var (
	provisionSSID         string
	provisionPassphrase   string
	provisionBrokerHost   string
	provisionBrokerPort   uint16
	provisionBrokerUser   string
	provisionBrokerPass   string
	provisionZoneID       string
	provisionParentZoneID string
	provisionZoneName     string
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Push network and zone configuration to a node out-of-band",
	Long: `Pushes network credentials and/or a zone assignment directly into
the node's persistent store, bypassing the captive-portal provisioning
flow. Useful for bulk or scripted fleet setup.

Preview by default; pass -x to execute.

Examples:
  nodectl provision --ssid greenhouse --passphrase s3cret --broker-host 10.0.0.5 -x
  nodectl provision --zone-id zone-3 --parent-zone-id site-1 --zone-name "North bay" -x`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var sys config.SystemRecord
		if err := app.cfg.LoadSystem(&sys); err != nil {
			return fmt.Errorf("reading system record: %w", err)
		}

		wantsNetwork := provisionSSID != "" || provisionBrokerHost != ""
		wantsZone := provisionZoneID != ""
		if !wantsNetwork && !wantsZone {
			return fmt.Errorf("nothing to provision: pass --ssid/--broker-host or --zone-id")
		}

		if !app.executeMode {
			if wantsNetwork {
				fmt.Printf("Would set network: ssid=%q broker=%s:%d\n", provisionSSID, provisionBrokerHost, provisionBrokerPort)
			}
			if wantsZone {
				fmt.Printf("Would set zone: zone_id=%q parent_zone_id=%q name=%q\n", provisionZoneID, provisionParentZoneID, provisionZoneName)
			}
			fmt.Println("Pass -x to execute.")
			return nil
		}

		if wantsNetwork {
			net := config.NetworkCredentials{
				SSID:       provisionSSID,
				Passphrase: provisionPassphrase,
				BrokerHost: provisionBrokerHost,
				BrokerPort: provisionBrokerPort,
				BrokerUser: provisionBrokerUser,
				BrokerPass: provisionBrokerPass,
				Configured: true,
			}
			event := audit.NewEvent(sys.NodeID, audit.KindNetworkConfig, audit.SourceOperator)
			if err := app.cfg.SaveNetwork(net); err != nil {
				event.Success = false
				event.Error = err.Error()
				_ = audit.Log(event)
				return fmt.Errorf("saving network config: %w", err)
			}
			_ = audit.Log(event)
			fmt.Printf("%s network configuration saved for %s.\n", clifmt.Green("OK"), sys.NodeID)
		}

		if wantsZone {
			zone := config.ZoneAssignment{
				ZoneID:       provisionZoneID,
				ParentZoneID: provisionParentZoneID,
				ZoneName:     provisionZoneName,
				Assigned:     true,
			}
			event := audit.NewEvent(sys.NodeID, audit.KindZoneAssign, audit.SourceOperator)
			if err := app.cfg.SaveZone(zone); err != nil {
				event.Success = false
				event.Error = err.Error()
				_ = audit.Log(event)
				return fmt.Errorf("saving zone assignment: %w", err)
			}
			_ = audit.Log(event)
			fmt.Printf("%s zone assignment saved for %s.\n", clifmt.Green("OK"), sys.NodeID)
		}

		return nil
	},
}

func init() {
	provisionCmd.Flags().StringVar(&provisionSSID, "ssid", "", "wifi network name")
	provisionCmd.Flags().StringVar(&provisionPassphrase, "passphrase", "", "wifi passphrase")
	provisionCmd.Flags().StringVar(&provisionBrokerHost, "broker-host", "", "message broker host")
	provisionCmd.Flags().Uint16Var(&provisionBrokerPort, "broker-port", 6379, "message broker port")
	provisionCmd.Flags().StringVar(&provisionBrokerUser, "broker-user", "", "message broker username")
	provisionCmd.Flags().StringVar(&provisionBrokerPass, "broker-pass", "", "message broker password")
	provisionCmd.Flags().StringVar(&provisionZoneID, "zone-id", "", "zone identifier to assign")
	provisionCmd.Flags().StringVar(&provisionParentZoneID, "parent-zone-id", "", "parent zone identifier")
	provisionCmd.Flags().StringVar(&provisionZoneName, "zone-name", "", "human-readable zone name")
}
