package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kaiser-net/nodefw/internal/clifmt"
	"github.com/kaiser-net/nodefw/internal/config"
)

var actuatorsCmd = &cobra.Command{
	Use:   "actuators",
	Short: "Inspect the persisted actuator registry",
}

var actuatorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured actuators",
	RunE: func(cmd *cobra.Command, args []string) error {
		var records []config.ActuatorRecord
		if err := app.cfg.LoadActuators(&records); err != nil {
			return fmt.Errorf("reading actuator registry: %w", err)
		}

		if app.jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(records)
		}

		t := clifmt.NewTable("PIN", "TYPE", "NAME", "SUB-ZONE", "ACTIVE")
		for _, r := range records {
			active := "no"
			if r.Active {
				active = "yes"
			}
			t.Row(strconv.Itoa(r.Pin), r.Type, r.Name, r.SubZone, active)
		}
		if len(records) == 0 {
			fmt.Println(clifmt.Dim("no actuators configured"))
			return nil
		}
		t.Flush()
		return nil
	},
}

func init() {
	actuatorsCmd.AddCommand(actuatorsListCmd)
}
