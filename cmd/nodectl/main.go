// nodectl is the operator CLI for a single node's persistent store — it
// reads and writes the same redis-backed records the node daemon does,
// without requiring the daemon itself to be running.
//
// Noun-group pattern:
//
//	nodectl <resource> <action> [args]
//
// Examples:
//
//	nodectl status
//	nodectl sensors list
//	nodectl actuators list
//	nodectl provision --ssid greenhouse --passphrase secret --broker-host 10.0.0.5 -x
//	nodectl factory-reset -x
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kaiser-net/nodefw/internal/audit"
	"github.com/kaiser-net/nodefw/internal/config"
	"github.com/kaiser-net/nodefw/internal/nodectlcfg"
	"github.com/kaiser-net/nodefw/internal/nodelog"
	"github.com/kaiser-net/nodefw/internal/store"
	"github.com/kaiser-net/nodefw/internal/version"
)

// App holds CLI state shared across all commands.
type App struct {
	redisAddr  string
	executeMode bool
	jsonOutput bool

	settings *nodectlcfg.Settings
	st       *store.Store
	cfg      *config.Manager
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "nodectl",
	Short:         "Operator CLI for a node's persistent store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isSettingsOrVersion(cmd) {
			return nil
		}

		var err error
		app.settings, err = nodectlcfg.Load()
		if err != nil {
			nodelog.Logger.Warnf("could not load settings: %v", err)
			app.settings = &nodectlcfg.Settings{}
		}
		if app.redisAddr == "" {
			app.redisAddr = app.settings.GetRedisAddr()
		}

		app.st, err = store.Open(app.redisAddr)
		if err != nil {
			return fmt.Errorf("connecting to %s: %w", app.redisAddr, err)
		}

		var sys config.SystemRecord
		hwAddr := config.RandomMAC() // only used if no node_id has been persisted yet
		app.cfg = config.New(app.st, hwAddr)
		if err := app.cfg.LoadSystem(&sys); err != nil {
			return fmt.Errorf("reading node identity: %w", err)
		}

		auditLogger, err := audit.NewFileLogger(app.settings.AuditLogPath(), audit.RotationConfig{
			MaxSize:    10 * 1024 * 1024,
			MaxBackups: 5,
		})
		if err != nil {
			nodelog.Logger.Warnf("could not initialize audit logging: %v", err)
		} else {
			audit.SetDefaultLogger(auditLogger)
		}

		return nil
	},
}

func isSettingsOrVersion(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "settings" || c.Name() == "version" {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.PersistentFlags().StringVar(&app.redisAddr, "redis-addr", "", "address of the node's persistent store (overrides saved settings)")
	rootCmd.PersistentFlags().BoolVarP(&app.jsonOutput, "json", "j", false, "emit machine-readable JSON output")

	for _, cmd := range []*cobra.Command{factoryResetCmd, provisionCmd} {
		cmd.Flags().BoolVarP(&app.executeMode, "execute", "x", false, "execute the change instead of previewing it")
	}

	rootCmd.AddCommand(
		statusCmd,
		sensorsCmd,
		actuatorsCmd,
		logsCmd,
		errorsCmd,
		factoryResetCmd,
		provisionCmd,
		settingsCmd,
		versionCmd,
	)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("nodectl %s (%s)\n", version.Version, version.GitCommit)
		return nil
	},
}
