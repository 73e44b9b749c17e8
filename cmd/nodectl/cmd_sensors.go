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

var sensorsCmd = &cobra.Command{
	Use:   "sensors",
	Short: "Inspect the persisted sensor registry",
}

var sensorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sensors",
	RunE: func(cmd *cobra.Command, args []string) error {
		var records []config.SensorRecord
		if err := app.cfg.LoadSensors(&records); err != nil {
			return fmt.Errorf("reading sensor registry: %w", err)
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
			fmt.Println(clifmt.Dim("no sensors configured"))
			return nil
		}
		t.Flush()
		return nil
	},
}

func init() {
	sensorsCmd.AddCommand(sensorsListCmd)
}
