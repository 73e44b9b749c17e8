package config

import (
	"encoding/json"
	"strconv"

	"github.com/kaiser-net/nodefw/internal/store"
	"github.com/kaiser-net/nodefw/internal/validate"
)

// SensorRecord is one persisted entry in the sensors namespace.
type SensorRecord struct {
	Pin     int
	Type    string
	Name    string
	SubZone string
	Active  bool
	Params  map[string]string
}

// ActuatorRecord is one persisted entry in the actuators namespace. The
// runtime-only fields (commanded/confirmed state, pending, emergency-stop,
// last command time) belong to internal/actuator, not to the persisted
// record.
type ActuatorRecord struct {
	Pin     int
	Type    string
	Name    string
	SubZone string
	Active  bool
	Params  map[string]string
}

func sensorsToFields(records []SensorRecord) ([]map[string]string, error) {
	out := make([]map[string]string, 0, len(records))
	for _, r := range records {
		params, err := json.Marshal(r.Params)
		if err != nil {
			return nil, err
		}
		out = append(out, map[string]string{
			"pin":      strconv.Itoa(r.Pin),
			"type":     r.Type,
			"name":     r.Name,
			"sub_zone": r.SubZone,
			"active":   strconv.FormatBool(r.Active),
			"params":   string(params),
		})
	}
	return out, nil
}

func fieldsToSensors(fields []map[string]string) ([]SensorRecord, error) {
	out := make([]SensorRecord, 0, len(fields))
	for _, f := range fields {
		r, err := fieldsToSensor(f)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func fieldsToSensor(f map[string]string) (SensorRecord, error) {
	pin, _ := strconv.Atoi(f["pin"])
	active, _ := strconv.ParseBool(f["active"])
	var params map[string]string
	if f["params"] != "" {
		if err := json.Unmarshal([]byte(f["params"]), &params); err != nil {
			return SensorRecord{}, err
		}
	}
	return SensorRecord{
		Pin:     pin,
		Type:    f["type"],
		Name:    f["name"],
		SubZone: f["sub_zone"],
		Active:  active,
		Params:  params,
	}, nil
}

func actuatorsToFields(records []ActuatorRecord) ([]map[string]string, error) {
	sensors := make([]SensorRecord, len(records))
	for i, r := range records {
		sensors[i] = SensorRecord(r)
	}
	return sensorsToFields(sensors)
}

func fieldsToActuators(fields []map[string]string) ([]ActuatorRecord, error) {
	sensors, err := fieldsToSensors(fields)
	if err != nil {
		return nil, err
	}
	out := make([]ActuatorRecord, len(sensors))
	for i, s := range sensors {
		out[i] = ActuatorRecord(s)
	}
	return out, nil
}

var sensorFields = []string{"pin", "type", "name", "sub_zone", "active", "params"}

// LoadSensors populates out from the sensors namespace.
func (m *Manager) LoadSensors(out *[]SensorRecord) error {
	h, err := m.store.Open(store.NamespaceSensors, true)
	if err != nil {
		return err
	}
	defer h.Close()

	fields, err := h.GetList("count", sensorFields)
	if err != nil {
		return err
	}
	records, err := fieldsToSensors(fields)
	if err != nil {
		return err
	}
	*out = records
	return nil
}

// ValidateSensors checks the collection against a board's capacity and
// pin-uniqueness invariants.
func ValidateSensors(records []SensorRecord, maxSensors int) error {
	var b validate.Builder
	b.Addf(len(records) <= maxSensors, "%d sensors exceeds board capacity of %d", len(records), maxSensors)
	seen := make(map[int]bool, len(records))
	for _, r := range records {
		if seen[r.Pin] {
			b.Addf(false, "duplicate sensor pin %d", r.Pin)
		}
		seen[r.Pin] = true
		b.Addf(r.Type != "", "sensor on pin %d requires a type", r.Pin)
	}
	return b.Build()
}

// SaveSensors validates and replaces the sensors namespace, all-or-nothing.
func (m *Manager) SaveSensors(records []SensorRecord, maxSensors int) error {
	if err := ValidateSensors(records, maxSensors); err != nil {
		return err
	}
	h, err := m.store.Open(store.NamespaceSensors, false)
	if err != nil {
		return err
	}
	defer h.Close()

	fields, err := sensorsToFields(records)
	if err != nil {
		return err
	}
	return h.PutList("count", fields)
}

// LoadActuators populates out from the actuators namespace.
func (m *Manager) LoadActuators(out *[]ActuatorRecord) error {
	h, err := m.store.Open(store.NamespaceActuators, true)
	if err != nil {
		return err
	}
	defer h.Close()

	fields, err := h.GetList("count", sensorFields)
	if err != nil {
		return err
	}
	records, err := fieldsToActuators(fields)
	if err != nil {
		return err
	}
	*out = records
	return nil
}

// ValidateActuators mirrors ValidateSensors for the actuator collection.
func ValidateActuators(records []ActuatorRecord, maxActuators int) error {
	sensors := make([]SensorRecord, len(records))
	for i, r := range records {
		sensors[i] = SensorRecord(r)
	}
	return ValidateSensors(sensors, maxActuators)
}

// SaveActuators validates and replaces the actuators namespace,
// all-or-nothing.
func (m *Manager) SaveActuators(records []ActuatorRecord, maxActuators int) error {
	if err := ValidateActuators(records, maxActuators); err != nil {
		return err
	}
	h, err := m.store.Open(store.NamespaceActuators, false)
	if err != nil {
		return err
	}
	defer h.Close()

	fields, err := actuatorsToFields(records)
	if err != nil {
		return err
	}
	return h.PutList("count", fields)
}
