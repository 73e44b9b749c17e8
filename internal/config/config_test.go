package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaiser-net/nodefw/internal/config"
	"github.com/kaiser-net/nodefw/internal/store"
	"github.com/kaiser-net/nodefw/internal/testutil"
)

func newManager(t *testing.T) *config.Manager {
	t.Helper()
	_, client := testutil.NewRedis(t)
	s := store.FromClient(client)
	return config.New(s, [6]byte{0xAA, 0xBB, 0xCC, 0xAB, 0x12, 0xCD})
}

func TestLoadNetwork_DefaultsToUnconfigured(t *testing.T) {
	m := newManager(t)
	var n config.NetworkCredentials
	require.NoError(t, m.LoadNetwork(&n))
	require.False(t, n.Configured)
	require.Empty(t, n.SSID)
}

func TestSaveNetwork_RejectsInvalidRecordWithoutWriting(t *testing.T) {
	m := newManager(t)
	bad := config.NetworkCredentials{SSID: "", BrokerHost: "", Configured: true}
	require.Error(t, m.SaveNetwork(bad))

	var n config.NetworkCredentials
	require.NoError(t, m.LoadNetwork(&n))
	require.False(t, n.Configured)
}

func TestSaveNetwork_PersistsValidRecord(t *testing.T) {
	m := newManager(t)
	good := config.NetworkCredentials{
		SSID:       "Greenhouse",
		Passphrase: "hunter2",
		BrokerHost: "192.168.0.10",
		BrokerPort: 1883,
		Configured: true,
	}
	require.NoError(t, m.SaveNetwork(good))

	var n config.NetworkCredentials
	require.NoError(t, m.LoadNetwork(&n))
	require.Equal(t, good, n)
}

func TestLoadSystem_GeneratesAndPersistsNodeIDOnce(t *testing.T) {
	m := newManager(t)
	var first config.SystemRecord
	require.NoError(t, m.LoadSystem(&first))
	require.Equal(t, "ESP_AB12CD", first.NodeID)

	require.NoError(t, m.SaveSystem(config.SystemRecord{
		NodeID:         first.NodeID,
		DeviceName:     "zone-a-node",
		LifecycleState: "OPERATIONAL",
		BootCount:      3,
	}))

	var second config.SystemRecord
	require.NoError(t, m.LoadSystem(&second))
	require.Equal(t, "ESP_AB12CD", second.NodeID)
	require.Equal(t, "zone-a-node", second.DeviceName)
	require.EqualValues(t, 3, second.BootCount)
}

func TestReset_ClearsNetworkAndZoneButPreservesNodeID(t *testing.T) {
	m := newManager(t)
	var sys config.SystemRecord
	require.NoError(t, m.LoadSystem(&sys))
	nodeID := sys.NodeID

	require.NoError(t, m.SaveNetwork(config.NetworkCredentials{
		SSID: "Greenhouse", BrokerHost: "192.168.0.10", BrokerPort: 1883, Configured: true,
	}))
	require.NoError(t, m.SaveZone(config.ZoneAssignment{ZoneID: "zone-1", Assigned: true}))

	require.NoError(t, m.Reset())

	var n config.NetworkCredentials
	require.NoError(t, m.LoadNetwork(&n))
	require.False(t, n.Configured)

	var z config.ZoneAssignment
	require.NoError(t, m.LoadZone(&z))
	require.False(t, z.Assigned)

	var after config.SystemRecord
	require.NoError(t, m.LoadSystem(&after))
	require.Equal(t, nodeID, after.NodeID)
}

func TestSaveSensors_RejectsDuplicatePins(t *testing.T) {
	m := newManager(t)
	records := []config.SensorRecord{
		{Pin: 4, Type: "temp_ds18b20", Name: "soil-a"},
		{Pin: 4, Type: "temp_sht31", Name: "soil-b"},
	}
	require.Error(t, m.SaveSensors(records, 10))
}

func TestSaveSensors_RoundTripsParams(t *testing.T) {
	m := newManager(t)
	records := []config.SensorRecord{
		{Pin: 4, Type: "temp_ds18b20", Name: "soil-a", Active: true, Params: map[string]string{"rom": "28ff641f"}},
		{Pin: 5, Type: "temp_sht31", Name: "soil-b", Active: true},
	}
	require.NoError(t, m.SaveSensors(records, 10))

	var got []config.SensorRecord
	require.NoError(t, m.LoadSensors(&got))
	require.Len(t, got, 2)
	require.Equal(t, "28ff641f", got[0].Params["rom"])
	require.True(t, got[1].Active)
}

func TestSaveActuators_EnforcesCapacity(t *testing.T) {
	m := newManager(t)
	var records []config.ActuatorRecord
	for i := 0; i < 9; i++ {
		records = append(records, config.ActuatorRecord{Pin: i + 4, Type: "relay", Name: "r"})
	}
	require.Error(t, m.SaveActuators(records, 8))
}
