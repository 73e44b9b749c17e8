package actuator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaiser-net/nodefw/internal/actuator"
	"github.com/kaiser-net/nodefw/internal/boardprofile"
	"github.com/kaiser-net/nodefw/internal/config"
	"github.com/kaiser-net/nodefw/internal/errtrack"
	"github.com/kaiser-net/nodefw/internal/pinmgr"
)

func newManager(t *testing.T) (*actuator.Manager, []actuator.StatusPayload) {
	t.Helper()
	profile := boardprofile.Full
	pins := pinmgr.New(&profile, 40, nil)
	errs := errtrack.New()
	var published []actuator.StatusPayload
	m := actuator.New(pins, errs, 12, "ESP_AB12CD", func() string { return "zone-1" }, func(pin int, p actuator.StatusPayload) {
		published = append(published, p)
	})
	return m, published
}

func TestCommand_DrivesRelayOn(t *testing.T) {
	m, _ := newManager(t)
	require.NoError(t, m.Configure(config.ActuatorRecord{Pin: 5, Type: "relay", Name: "pump", Active: true}))
	require.NoError(t, m.Command(5, actuator.PriorityLogic, 1))
}

func TestPriority_HigherSourceWinsAndLowerIsInertNotError(t *testing.T) {
	m, _ := newManager(t)
	require.NoError(t, m.Configure(config.ActuatorRecord{Pin: 5, Type: "relay", Name: "pump", Active: true}))

	require.NoError(t, m.Command(5, actuator.PriorityManual, 1))
	require.NoError(t, m.Command(5, actuator.PriorityLogic, 0))
}

func TestEmergencyStop_RefusesFutureCommands(t *testing.T) {
	m, _ := newManager(t)
	require.NoError(t, m.Configure(config.ActuatorRecord{Pin: 5, Type: "relay", Name: "pump", Active: true}))
	require.NoError(t, m.Command(5, actuator.PriorityLogic, 1))

	require.NoError(t, m.EmergencyStop(5, "broadcast"))
	require.True(t, m.IsEmergencyStopped(5))

	err := m.Command(5, actuator.PriorityLogic, 1)
	require.Error(t, err)
}

func TestClearEmergency_DoesNotRestorePriorCommand(t *testing.T) {
	m, _ := newManager(t)
	require.NoError(t, m.Configure(config.ActuatorRecord{Pin: 5, Type: "relay", Name: "pump", Active: true}))
	require.NoError(t, m.Command(5, actuator.PriorityLogic, 1))
	require.NoError(t, m.EmergencyStop(5, "broadcast"))
	require.NoError(t, m.ClearEmergency(5))

	require.False(t, m.IsEmergencyStopped(5))
}

func TestCommand_ClampsOutOfRangeValue(t *testing.T) {
	m, _ := newManager(t)
	require.NoError(t, m.Configure(config.ActuatorRecord{Pin: 6, Type: "pwm", Name: "fan", Active: true}))
	require.NoError(t, m.Command(6, actuator.PriorityLogic, 1.5))
}

func TestRemove_ReleasesPin(t *testing.T) {
	m, _ := newManager(t)
	require.NoError(t, m.Configure(config.ActuatorRecord{Pin: 5, Type: "relay", Name: "pump", Active: true}))
	m.Remove(5)
	require.Error(t, m.Command(5, actuator.PriorityLogic, 1))
}
