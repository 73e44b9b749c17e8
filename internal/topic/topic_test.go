package topic_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaiser-net/nodefw/internal/topic"
)

func TestSensorData_MatchesGrammar(t *testing.T) {
	require.Equal(t, "kaiser/god/esp/ESP_AB12CD/sensor/4/data", topic.SensorData("god", "ESP_AB12CD", 4))
}

func TestActuatorCommand_MatchesGrammar(t *testing.T) {
	require.Equal(t, "kaiser/god/esp/ESP_AB12CD/actuator/5/command", topic.ActuatorCommand("god", "ESP_AB12CD", 5))
}

func TestBroadcast_IsFixedAndUnprefixed(t *testing.T) {
	require.Equal(t, "kaiser/broadcast/emergency", topic.Broadcast)
}

func TestStandingSubscriptions_IncludesAllActuatorsAndBroadcast(t *testing.T) {
	subs := topic.StandingSubscriptions("god", "ESP_AB12CD", []int{4, 5})
	require.Contains(t, subs, "kaiser/god/esp/ESP_AB12CD/actuator/4/command")
	require.Contains(t, subs, "kaiser/god/esp/ESP_AB12CD/actuator/5/command")
	require.Contains(t, subs, "kaiser/god/esp/ESP_AB12CD/system/command")
	require.Contains(t, subs, "kaiser/god/esp/ESP_AB12CD/zone/assign")
	require.Contains(t, subs, topic.Broadcast)
}
