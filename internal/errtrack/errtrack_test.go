package errtrack

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReport_DedupsAgainstRecentEntries(t *testing.T) {
	tr := New()
	for i := 0; i < 5; i++ {
		tr.Report(2001, Warning, "sensor read failed")
	}

	snap := tr.Snapshot()
	require.Len(t, snap, 1)
	require.Equal(t, 5, snap[0].Count)
}

func TestReport_BandOf(t *testing.T) {
	require.Equal(t, BandHardware, BandOf(1001))
	require.Equal(t, BandService, BandOf(2001))
	require.Equal(t, BandCommunication, BandOf(3001))
	require.Equal(t, BandApplication, BandOf(4001))
}

func TestBandError_Unwrap(t *testing.T) {
	err := &BandError{Code: 3005, Message: "publish rejected"}
	require.True(t, errors.Is(err, ErrCommunicationBand))
	require.False(t, errors.Is(err, ErrHardwareBand))
}

func TestReport_RecursionGuardPreventsMirrorLoop(t *testing.T) {
	tr := New()
	calls := 0
	tr.SetMirror(func(r Record) {
		calls++
		// Reporting from inside the mirror must not recurse into mirror again.
		tr.Report(3010, Warning, "mirror publish failed")
	})

	tr.Report(3001, Warning, "broker connect failed")

	require.Equal(t, 1, calls)
}

func TestReport_OverflowEvictsOldest(t *testing.T) {
	tr := New()
	for i := 0; i < ringCapacity+3; i++ {
		tr.Report(2000+i, Warning, "distinct message")
	}
	snap := tr.Snapshot()
	require.Len(t, snap, ringCapacity)
	require.Equal(t, 2003, snap[0].Code)
}
