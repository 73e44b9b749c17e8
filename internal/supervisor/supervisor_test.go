package supervisor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kaiser-net/nodefw/internal/config"
	"github.com/kaiser-net/nodefw/internal/netlink"
	"github.com/kaiser-net/nodefw/internal/store"
	"github.com/kaiser-net/nodefw/internal/supervisor"
	"github.com/kaiser-net/nodefw/internal/testutil"
)

func TestNew_EntersProvisioningWithoutCredentials(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	defer rdb.Close()

	sup := supervisor.New(supervisor.Config{StoreAddr: mr.Addr()})
	require.Equal(t, supervisor.Provisioning, sup.State())
}

func TestNew_EntersNetConnectingWithStoredCredentials(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	defer rdb.Close()

	st := store.FromClient(rdb)
	cfg := config.New(st, [6]byte{0xAA, 0xBB, 0xCC, 0x01, 0x02, 0x03})
	require.NoError(t, cfg.SaveNetwork(config.NetworkCredentials{
		SSID: "greenhouse", Passphrase: "hunter22", BrokerHost: "10.0.0.5", BrokerPort: 8883, Configured: true,
	}))

	sup := supervisor.New(supervisor.Config{StoreAddr: mr.Addr(), HardwareAddress: [6]byte{0xAA, 0xBB, 0xCC, 0x01, 0x02, 0x03}})
	require.Equal(t, supervisor.NetConnecting, sup.State())
	require.Equal(t, "ESP_010203", sup.NodeID())
}

func TestNew_SafeModeOnUnreachableStore(t *testing.T) {
	sup := supervisor.New(supervisor.Config{StoreAddr: "127.0.0.1:1"})
	require.Equal(t, supervisor.SafeMode, sup.State())
}

func TestRun_AssociatesAndReachesOperational(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	defer rdb.Close()

	st := store.FromClient(rdb)
	cfg := config.New(st, [6]byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, cfg.SaveNetwork(config.NetworkCredentials{
		SSID: "greenhouse", Passphrase: "hunter22", BrokerHost: "10.0.0.5", BrokerPort: 8883, Configured: true,
	}))

	sup := supervisor.New(supervisor.Config{
		StoreAddr:       mr.Addr(),
		HardwareAddress: [6]byte{1, 2, 3, 4, 5, 6},
		Link:            netlink.NewSimLink(-40),
	})
	require.Equal(t, supervisor.NetConnecting, sup.State())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = sup.Run(ctx, 10*time.Millisecond)

	require.Equal(t, supervisor.Operational, sup.State())
}

func TestRun_ReturnsOnExistingSafeMode(t *testing.T) {
	sup := supervisor.New(supervisor.Config{StoreAddr: "127.0.0.1:1"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := sup.Run(ctx, 10*time.Millisecond)
	require.Error(t, err)
}
