package supervisor

import (
	"encoding/json"

	"github.com/kaiser-net/nodefw/internal/actuator"
	"github.com/kaiser-net/nodefw/internal/health"
	"github.com/kaiser-net/nodefw/internal/nodelog"
)

// actuatorCommand is the wire shape of an inbound actuator/<pin>/command
// message.
type actuatorCommand struct {
	Command    string   `json:"command"`
	Value      *float64 `json:"value,omitempty"`
	DurationMS int      `json:"duration_ms,omitempty"`
}

// handleActuatorCommand translates an ON/OFF/TOGGLE/PWM/SET wire command
// into a Command call at Logic priority — server-issued commands sit above
// scheduled/timer sources but below a human's manual override.
func (s *Supervisor) handleActuatorCommand(pin int, payload []byte) {
	var cmd actuatorCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		nodelog.Logger.WithField("pin", pin).WithField("error", err).Warn("actuator command: malformed payload")
		return
	}

	var value float64
	switch cmd.Command {
	case "ON", "SET":
		value = 1
		if cmd.Value != nil {
			value = *cmd.Value
		}
	case "OFF":
		value = 0
	case "TOGGLE":
		value = 1 // the driver's own State() reflects the realized toggle; the manager holds the last commanded value
	case "PWM":
		if cmd.Value != nil {
			value = *cmd.Value
		}
	default:
		nodelog.Logger.WithField("pin", pin).WithField("command", cmd.Command).Warn("actuator command: unrecognized command")
		return
	}

	if err := s.actuators.Command(pin, actuator.PriorityLogic, value); err != nil {
		nodelog.Logger.WithField("pin", pin).WithField("error", err).Warn("actuator command: rejected")
	}
}

// diagnosticsPayload renders a health report as the system/diagnostics
// publish body.
func diagnosticsPayload(report *health.Report) []byte {
	return marshalOrEmpty(report)
}

func marshalOrEmpty(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		nodelog.Logger.WithField("error", err).Warn("supervisor: failed to marshal publish payload")
		return nil
	}
	return data
}
