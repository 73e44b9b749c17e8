package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kaiser-net/nodefw/internal/clifmt"
	"github.com/kaiser-net/nodefw/internal/nodectlcfg"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage nodectl's local operator preferences",
	Long: `Manage persistent settings stored in ~/.nodectl/settings.json.

Examples:
  nodectl settings show
  nodectl settings set redis-addr 10.0.0.5:6379`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := nodectlcfg.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		fmt.Printf("Settings file: %s\n\n", nodectlcfg.DefaultSettingsPath())

		t := clifmt.NewTable("SETTING", "VALUE")
		t.Row("default_redis_addr", notSet(s.DefaultRedisAddr))
		t.Row("default_node_id", notSet(s.DefaultNodeID))
		t.Row("audit_log_file", notSet(s.AuditLogFile))
		t.Flush()
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a settings value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := nodectlcfg.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		key, value := args[0], args[1]
		switch key {
		case "redis-addr":
			s.DefaultRedisAddr = value
		case "node-id":
			s.DefaultNodeID = value
		case "audit-log-file":
			s.AuditLogFile = value
		default:
			return fmt.Errorf("unknown setting %q (expected redis-addr, node-id, or audit-log-file)", key)
		}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Printf("%s set %s = %s\n", clifmt.Green("OK"), key, value)
		return nil
	},
}

func notSet(v string) string {
	if v == "" {
		return clifmt.Dim("(not set)")
	}
	return v
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
}
