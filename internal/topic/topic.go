// Package topic builds the broker topic strings the node publishes and
// subscribes to: the prefixed per-node set under
// kaiser/<parent-id>/esp/<node-id>/ plus the single broadcast emergency
// channel.
package topic

import "fmt"

// Broadcast is the single system-wide emergency channel, outside the
// per-node prefix.
const Broadcast = "kaiser/broadcast/emergency"

// prefix returns the per-node topic root: kaiser/<parent-id>/esp/<node-id>/
func prefix(parentID, nodeID string) string {
	return fmt.Sprintf("kaiser/%s/esp/%s/", parentID, nodeID)
}

// SensorData is the single-sensor-reading publish topic.
func SensorData(parentID, nodeID string, pin int) string {
	return prefix(parentID, nodeID) + fmt.Sprintf("sensor/%d/data", pin)
}

// SensorBatch is the batched-readings publish topic.
func SensorBatch(parentID, nodeID string) string {
	return prefix(parentID, nodeID) + "sensor/batch"
}

// ActuatorCommand is the per-actuator command subscribe topic.
func ActuatorCommand(parentID, nodeID string, pin int) string {
	return prefix(parentID, nodeID) + fmt.Sprintf("actuator/%d/command", pin)
}

// ActuatorStatus is the per-actuator state publish topic.
func ActuatorStatus(parentID, nodeID string, pin int) string {
	return prefix(parentID, nodeID) + fmt.Sprintf("actuator/%d/status", pin)
}

// ActuatorResponse is the per-actuator command-reply publish topic.
func ActuatorResponse(parentID, nodeID string, pin int) string {
	return prefix(parentID, nodeID) + fmt.Sprintf("actuator/%d/response", pin)
}

// ActuatorAlert is the per-actuator safety/emergency-event publish topic.
func ActuatorAlert(parentID, nodeID string, pin int) string {
	return prefix(parentID, nodeID) + fmt.Sprintf("actuator/%d/alert", pin)
}

// ActuatorEmergency is the node-wide emergency-event publish topic.
func ActuatorEmergency(parentID, nodeID string) string {
	return prefix(parentID, nodeID) + "actuator/emergency"
}

// SystemHeartbeat is the liveness/telemetry publish topic.
func SystemHeartbeat(parentID, nodeID string) string {
	return prefix(parentID, nodeID) + "system/heartbeat"
}

// SystemDiagnostics is the health-snapshot publish topic.
func SystemDiagnostics(parentID, nodeID string) string {
	return prefix(parentID, nodeID) + "system/diagnostics"
}

// SystemError is the error-mirror publish topic.
func SystemError(parentID, nodeID string) string {
	return prefix(parentID, nodeID) + "system/error"
}

// SystemCommand is the control-command subscribe topic (including factory
// reset).
func SystemCommand(parentID, nodeID string) string {
	return prefix(parentID, nodeID) + "system/command"
}

// Config is the sensor/actuator config-update subscribe topic.
func Config(parentID, nodeID string) string {
	return prefix(parentID, nodeID) + "config"
}

// ZoneAssign is the zone-assignment subscribe topic.
func ZoneAssign(parentID, nodeID string) string {
	return prefix(parentID, nodeID) + "zone/assign"
}

// ZoneAck is the zone-assignment-acknowledgement publish topic.
func ZoneAck(parentID, nodeID string) string {
	return prefix(parentID, nodeID) + "zone/ack"
}

// StandingSubscriptions returns every topic the node subscribes to on
// connect, re-subscribed as a set on every reconnect.
func StandingSubscriptions(parentID, nodeID string, actuatorPins []int) []string {
	topics := make([]string, 0, len(actuatorPins)+4)
	for _, pin := range actuatorPins {
		topics = append(topics, ActuatorCommand(parentID, nodeID, pin))
	}
	topics = append(topics,
		SystemCommand(parentID, nodeID),
		Config(parentID, nodeID),
		ZoneAssign(parentID, nodeID),
		Broadcast,
	)
	return topics
}
