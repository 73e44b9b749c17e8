// nodefw — the node daemon: boots the lifecycle state machine and runs the
// cooperative main loop until terminated.
//
// Usage:
//
//	nodefw --redis-addr 127.0.0.1:6379 --board-profile restricted.yaml
//	nodefw --version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kaiser-net/nodefw/internal/boardprofile"
	"github.com/kaiser-net/nodefw/internal/config"
	"github.com/kaiser-net/nodefw/internal/nodelog"
	"github.com/kaiser-net/nodefw/internal/supervisor"
	"github.com/kaiser-net/nodefw/internal/version"
)

const defaultTick = 100 * time.Millisecond

func main() {
	redisAddr := flag.String("redis-addr", "127.0.0.1:6379", "address of the persistent store / message broker")
	boardProfilePath := flag.String("board-profile", "", "path to a board profile YAML file (defaults to the built-in full profile)")
	hwAddrFlag := flag.String("hardware-address", "", "simulated 48-bit hardware address as six colon-separated hex bytes (random if omitted)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	jsonLogs := flag.Bool("json-logs", false, "emit logs as JSON lines instead of text")
	tick := flag.Duration("tick", defaultTick, "main loop tick interval")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("nodefw %s (%s)\n", version.Version, version.GitCommit)
		os.Exit(0)
	}

	if err := nodelog.SetLevel(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "nodefw: %v\n", err)
		os.Exit(1)
	}
	if *jsonLogs {
		nodelog.SetJSONFormat()
	}

	profile := &boardprofile.Full
	if *boardProfilePath != "" {
		loaded, err := boardprofile.Load(*boardProfilePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "nodefw: %v\n", err)
			os.Exit(1)
		}
		profile = loaded
	}

	hwAddr := config.RandomMAC()
	if *hwAddrFlag != "" {
		parsed, err := parseHardwareAddress(*hwAddrFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "nodefw: %v\n", err)
			os.Exit(1)
		}
		hwAddr = parsed
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sup *supervisor.Supervisor
	sup = supervisor.New(supervisor.Config{
		StoreAddr:       *redisAddr,
		BoardProfile:    profile,
		HardwareAddress: hwAddr,
		Restart: func() {
			nodelog.Logger.Warn("nodefw: restart requested, exiting process for supervisor re-entry")
			os.Exit(75) // EX_TEMPFAIL: process manager should restart us
		},
	})
	defer sup.Close()

	nodelog.Logger.WithField("node_id", sup.NodeID()).WithField("board", profile.Name).Info("nodefw: boot sequence complete")

	if err := sup.Run(ctx, *tick); err != nil && ctx.Err() == nil {
		nodelog.Logger.WithField("error", err).Error("nodefw: main loop exited")
		os.Exit(1)
	}
	nodelog.Logger.Info("nodefw: shutting down")
}

func parseHardwareAddress(s string) ([6]byte, error) {
	var mac [6]byte
	n, err := fmt.Sscanf(s, "%02x:%02x:%02x:%02x:%02x:%02x",
		&mac[0], &mac[1], &mac[2], &mac[3], &mac[4], &mac[5])
	if err != nil || n != 6 {
		return mac, fmt.Errorf("hardware address must be six colon-separated hex bytes, e.g. 02:ab:cd:01:02:03")
	}
	return mac, nil
}
