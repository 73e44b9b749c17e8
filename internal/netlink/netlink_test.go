package netlink_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kaiser-net/nodefw/internal/netlink"
)

func TestSimLink_ConnectSucceedsByDefault(t *testing.T) {
	l := netlink.NewSimLink(-55)
	require.NoError(t, l.Connect(context.Background(), "Lab", "hunter2"))
	require.True(t, l.Connected())
	require.Equal(t, -55, l.RSSI())
}

func TestSimLink_DisconnectClearsState(t *testing.T) {
	l := netlink.NewSimLink(-60)
	require.NoError(t, l.Connect(context.Background(), "Lab", "hunter2"))
	l.Disconnect()
	require.False(t, l.Connected())
	require.Equal(t, 0, l.RSSI())
}

func TestSimLink_FailPredicateForcesAssociationFailure(t *testing.T) {
	l := netlink.NewSimLink(-60)
	l.Fail = func(ssid, passphrase string) bool { return true }
	err := l.Connect(context.Background(), "Lab", "hunter2")
	require.ErrorIs(t, err, netlink.ErrAssociationFailed)
	require.False(t, l.Connected())
}

func TestConnectWithTimeout_SucceedsWithinDeadline(t *testing.T) {
	l := netlink.NewSimLink(-60)
	err := netlink.ConnectWithTimeout(context.Background(), l, "Lab", "hunter2", 10*time.Second)
	require.NoError(t, err)
}
