package watchdog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kaiser-net/nodefw/internal/watchdog"
)

func TestCheck_NotMissedImmediatelyAfterFeed(t *testing.T) {
	w := watchdog.New()
	w.Feed("loop")
	require.False(t, w.Check())
}

func TestSetMode_SwitchesTimeoutProfile(t *testing.T) {
	w := watchdog.New()
	w.SetMode(watchdog.Provisioning)
	snap := w.Snapshot()
	require.Equal(t, watchdog.Provisioning, snap.Mode)
	require.Equal(t, 2*time.Minute, snap.Timeout)
}

func TestFeed_IncrementsCountAndRecordsComponent(t *testing.T) {
	w := watchdog.New()
	w.Feed("netlink")
	w.Feed("messaging")
	snap := w.Snapshot()
	require.EqualValues(t, 2, snap.FeedCount)
	require.Equal(t, "messaging", snap.LastFeedBy)
}
