package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kaiser-net/nodefw/internal/audit"
	"github.com/kaiser-net/nodefw/internal/clifmt"
)

var (
	logsSince   string
	logsLimit   int
	logsFailure bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the audit log of node mutations",
	Long: `View the audit log of server-issued and operator mutations, successful or failed:
network config pushes, zone assignments, manual overrides, factory resets,
and emergency stops.

Examples:
  nodectl logs
  nodectl logs --since 24h
  nodectl logs --failures --limit 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := audit.Filter{Limit: logsLimit, FailureOnly: logsFailure}
		if logsSince != "" {
			d, err := time.ParseDuration(logsSince)
			if err != nil {
				return fmt.Errorf("invalid --since duration %q: %w", logsSince, err)
			}
			filter.StartTime = time.Now().Add(-d)
		}

		events, err := audit.Query(filter)
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}

		if app.jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(events)
		}

		if len(events) == 0 {
			fmt.Println(clifmt.Dim("no audit events recorded"))
			return nil
		}

		t := clifmt.NewTable("TIME", "KIND", "SOURCE", "NODE", "PIN", "RESULT", "DETAIL")
		for _, e := range events {
			result := clifmt.Green("ok")
			if !e.Success {
				result = clifmt.Red("failed: " + e.Error)
			}
			pin := ""
			if e.Pin != 0 {
				pin = fmt.Sprintf("%d", e.Pin)
			}
			t.Row(e.Timestamp.Format(time.RFC3339), string(e.Kind), string(e.Source), e.NodeID, pin, result, e.Detail)
		}
		t.Flush()
		return nil
	},
}

func init() {
	logsCmd.Flags().StringVar(&logsSince, "since", "", "only show events since this duration ago, e.g. 24h")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 100, "maximum number of events to show")
	logsCmd.Flags().BoolVar(&logsFailure, "failures", false, "only show failed mutations")
}
