package pinmgr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaiser-net/nodefw/internal/boardprofile"
	"github.com/kaiser-net/nodefw/internal/pinmgr"
)

func TestReserve_RejectsRestrictedAndDuplicate(t *testing.T) {
	profile := boardprofile.Full
	m := pinmgr.New(&profile, 40, nil)

	require.Error(t, m.Reserve(0, pinmgr.KindSensor, "boot strap pin"))

	require.NoError(t, m.Reserve(4, pinmgr.KindSensor, "ds18b20"))
	require.Error(t, m.Reserve(4, pinmgr.KindActuator, "relay"))
}

func TestReserve_RejectsOutOfRange(t *testing.T) {
	profile := boardprofile.Full
	m := pinmgr.New(&profile, 40, nil)
	require.Error(t, m.Reserve(40, pinmgr.KindSensor, "x"))
	require.Error(t, m.Reserve(-1, pinmgr.KindSensor, "x"))
}

func TestRelease_DrivesSafeAndFreesPin(t *testing.T) {
	profile := boardprofile.Full
	var driven []int
	m := pinmgr.New(&profile, 40, func(pin int, conv boardprofile.SafeConvention) {
		driven = append(driven, pin)
	})

	require.NoError(t, m.Reserve(5, pinmgr.KindActuator, "relay"))
	m.Release(5)

	_, ok := m.Status(5)
	require.False(t, ok)
	require.Contains(t, driven, 5)

	require.NoError(t, m.Reserve(5, pinmgr.KindSensor, "now free"))
}

func TestDriveAllSafe_TouchesEveryPin(t *testing.T) {
	profile := boardprofile.Full
	count := 0
	m := pinmgr.New(&profile, 10, func(pin int, conv boardprofile.SafeConvention) {
		count++
	})
	m.DriveAllSafe()
	require.Equal(t, 10, count)
}

func TestReserved_ListsAllOwners(t *testing.T) {
	profile := boardprofile.Full
	m := pinmgr.New(&profile, 40, nil)
	require.NoError(t, m.Reserve(4, pinmgr.KindSensor, "a"))
	require.NoError(t, m.Reserve(5, pinmgr.KindActuator, "b"))

	require.Len(t, m.Reserved(), 2)
}
