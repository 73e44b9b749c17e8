package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kaiser-net/nodefw/internal/audit"
	"github.com/kaiser-net/nodefw/internal/clifmt"
	"github.com/kaiser-net/nodefw/internal/config"
)

// errorsCmd surfaces what a disconnected operator can see of a node's error
// state: the persisted safe-mode reason (the error tracker itself lives
// only in the running daemon's memory, per spec) and recent failed
// mutations from the audit log.
var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Show safe-mode condition and recent failed mutations",
	RunE: func(cmd *cobra.Command, args []string) error {
		var sys config.SystemRecord
		if err := app.cfg.LoadSystem(&sys); err != nil {
			return fmt.Errorf("reading system record: %w", err)
		}
		failures, err := audit.Query(audit.Filter{NodeID: sys.NodeID, FailureOnly: true, Limit: 50})
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}

		if app.jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
				"lifecycle_state":  sys.LifecycleState,
				"safe_mode_reason": sys.SafeModeReason,
				"failed_mutations": failures,
			})
		}

		fmt.Printf("Lifecycle state: %s\n", clifmt.State(sys.LifecycleState))
		if sys.SafeModeReason != "" {
			fmt.Printf("Safe mode reason: %s\n", clifmt.Red(sys.SafeModeReason))
		} else {
			fmt.Println(clifmt.Dim("no safe-mode condition recorded"))
		}

		fmt.Println("\nRecent failed mutations:")
		if len(failures) == 0 {
			fmt.Println(clifmt.Dim("  none"))
			return nil
		}
		t := clifmt.NewTable("TIME", "KIND", "SOURCE", "ERROR")
		for _, e := range failures {
			t.Row(e.Timestamp.Format("2006-01-02 15:04:05"), string(e.Kind), string(e.Source), e.Error)
		}
		t.Flush()
		return nil
	},
}
