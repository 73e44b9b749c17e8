package nodelog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRing_EvictsOldestOnOverflow(t *testing.T) {
	ring := NewRing()

	for i := 0; i < ringCapacity+10; i++ {
		Logger.Infof("entry-%d", i)
	}

	snap := ring.Snapshot()
	require.Len(t, snap, ringCapacity)
	require.Equal(t, "entry-10", snap[0].Message)
	require.Equal(t, "entry-59", snap[len(snap)-1].Message)
}

func TestRing_TruncatesLongMessages(t *testing.T) {
	ring := NewRing()
	long := strings.Repeat("x", 500)
	Logger.Info(long)

	snap := ring.Snapshot()
	last := snap[len(snap)-1]
	require.LessOrEqual(t, len(last.Message), maxMessageLen)
	require.True(t, strings.HasSuffix(last.Message, "..."))
}
