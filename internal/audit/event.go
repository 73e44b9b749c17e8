// Package audit records server-issued and operator mutations, successful
// or failed, to a rotated JSON-lines file: network config changes, zone
// assignment, manual overrides, and factory resets.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Kind categorizes what kind of node mutation an Event records.
type Kind string

const (
	KindNetworkConfig Kind = "network_config"
	KindZoneAssign     Kind = "zone_assign"
	KindSensorConfig   Kind = "sensor_config"
	KindActuatorConfig Kind = "actuator_config"
	KindManualOverride Kind = "manual_override"
	KindFactoryReset   Kind = "factory_reset"
	KindEmergencyStop  Kind = "emergency_stop"
)

// Source names who originated the mutation.
type Source string

const (
	SourceServer       Source = "server"
	SourceProvisioning Source = "provisioning"
	SourceOperator     Source = "operator"
	SourceBroadcast    Source = "broadcast"
)

// Event is one auditable mutation.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id"`
	Kind      Kind      `json:"kind"`
	Source    Source    `json:"source"`
	Detail    string    `json:"detail,omitempty"`
	Pin       int       `json:"pin,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// NewEvent creates an event for nodeID, stamped with a fresh correlation ID.
func NewEvent(nodeID string, kind Kind, source Source) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		NodeID:    nodeID,
		Kind:      kind,
		Source:    source,
		Success:   true,
	}
}

// WithDetail attaches a human-readable description.
func (e *Event) WithDetail(detail string) *Event {
	e.Detail = detail
	return e
}

// WithPin attaches the affected pin, when the mutation is pin-scoped.
func (e *Event) WithPin(pin int) *Event {
	e.Pin = pin
	return e
}

// WithError marks the event as failed.
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// Filter defines criteria for querying audit events. Pin is a pointer since
// pin 0 is a real GPIO and must be distinguishable from "no pin filter".
type Filter struct {
	NodeID      string
	Kind        Kind
	Source      Source
	Pin         *int
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
}
