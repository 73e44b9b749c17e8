// Package actuator is the priority-arbitrated actuator registry, symmetric
// to internal/sensor but with safety obligations: every attempted command
// while emergency-stopped fails and the driver stays safe-off.
package actuator

import (
	"sync"
	"time"

	"github.com/kaiser-net/nodefw/internal/config"
	"github.com/kaiser-net/nodefw/internal/errtrack"
	"github.com/kaiser-net/nodefw/internal/nodelog"
	"github.com/kaiser-net/nodefw/internal/pinmgr"
)

const statusPublishInterval = 30 * time.Second

// StatusPayload is the actuator-status publish body.
type StatusPayload struct {
	ESPID     string   `json:"esp_id"`
	ZoneID    string   `json:"zone_id"`
	SubzoneID string   `json:"subzone_id"`
	Timestamp int64    `json:"ts"`
	GPIO      int      `json:"gpio"`
	Type      string   `json:"type"`
	State     bool     `json:"state"`
	PWM       *float64 `json:"pwm"`
	RuntimeMS int64    `json:"runtime_ms"`
	Emergency string   `json:"emergency"`
}

type entry struct {
	record        config.ActuatorRecord
	driver        Driver
	sources       map[Priority]float64
	pending       bool
	emergency     bool
	emergencyBy   string
	confirmed     bool
	confirmedPWM  *float64
	lastCommandAt time.Time
	activatedAt   time.Time
	lastPublish   time.Time
}

// Manager is the fixed-capacity, pin-indexed actuator registry.
type Manager struct {
	mu       sync.Mutex
	pins     *pinmgr.Manager
	errs     *errtrack.Tracker
	entries  map[int]*entry
	maxCount int
	now      func() time.Time
	publish  func(pin int, p StatusPayload)
	zoneID   func() string
	espID    string
}

// New creates an actuator manager bounded to maxCount entries (the board
// profile's MaxActuators).
func New(pins *pinmgr.Manager, errs *errtrack.Tracker, maxCount int, espID string, zoneID func() string, publish func(pin int, p StatusPayload)) *Manager {
	return &Manager{
		pins:     pins,
		errs:     errs,
		entries:  make(map[int]*entry),
		maxCount: maxCount,
		now:      time.Now,
		publish:  publish,
		zoneID:   zoneID,
		espID:    espID,
	}
}

// Configure adds or updates an actuator record, mirroring sensor's
// reconfigure-vs-new-type semantics; before destroying a driver the
// manager calls its safe-stop first.
func (m *Manager) Configure(record config.ActuatorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.entries[record.Pin]
	if ok && existing.record.Type == record.Type {
		existing.record = record
		return nil
	}

	if ok {
		existing.driver.SafeStop()
		existing.driver.Destroy()
		delete(m.entries, record.Pin)
	} else if len(m.entries) >= m.maxCount {
		return errCapacityExceeded
	} else {
		if err := m.pins.Reserve(record.Pin, pinmgr.KindActuator, record.Name); err != nil {
			return err
		}
	}

	driver, err := NewDriver(record.Type)
	if err != nil {
		m.pins.Release(record.Pin)
		return err
	}
	if err := driver.Initialize(record.Params); err != nil {
		return err
	}
	driver.SafeStop()

	m.entries[record.Pin] = &entry{
		record:  record,
		driver:  driver,
		sources: make(map[Priority]float64),
	}
	return nil
}

// Remove safe-stops the driver then releases the pin.
func (m *Manager) Remove(pin int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[pin]
	if !ok {
		return
	}
	e.driver.SafeStop()
	e.driver.Destroy()
	m.pins.Release(pin)
	delete(m.entries, pin)
}

// Command dispatches value from the given priority source. A lower
// priority than one already active is recorded but does not drive the
// pin. Emergency-stopped actuators refuse every command.
func (m *Manager) Command(pin int, priority Priority, value float64) error {
	return m.commandLocked(pin, priority, value)
}

// ManualOverride is a privileged command with higher priority than
// regular command sources.
func (m *Manager) ManualOverride(pin int, value float64) error {
	return m.commandLocked(pin, PriorityManual, value)
}

func (m *Manager) commandLocked(pin int, priority Priority, value float64) error {
	m.mu.Lock()
	e, ok := m.entries[pin]
	if !ok {
		m.mu.Unlock()
		return errUnknownPin
	}
	if e.emergency {
		m.mu.Unlock()
		return errEmergencyStopped
	}

	clamped := clamp(value)
	if clamped != value {
		nodelog.Logger.WithField("pin", pin).Warn("actuator: command value clamped to [0, 1]")
	}
	e.sources[priority] = clamped
	top, topValue := highestSource(e.sources)
	if top < priority {
		// a higher-priority source already holds the pin; recorded but inert.
		m.mu.Unlock()
		return nil
	}

	e.pending = true
	e.lastCommandAt = m.now()
	driver := e.driver
	m.mu.Unlock()

	err := driver.Command(topValue)

	m.mu.Lock()
	if err != nil {
		m.mu.Unlock()
		m.errs.Report(2002, errtrack.Error, "actuator pin command did not confirm")
		return err
	}
	e.pending = false
	e.confirmed = true
	_, pwm := driver.State()
	e.confirmedPWM = pwm
	if topValue > 0 && e.activatedAt.IsZero() {
		e.activatedAt = m.now()
	} else if topValue == 0 {
		e.activatedAt = time.Time{}
	}
	m.mu.Unlock()

	m.publishStatus(pin)
	return nil
}

// EmergencyStop forces pin's driver to safe-off, sets the emergency flag,
// and refuses future commands until cleared.
func (m *Manager) EmergencyStop(pin int, reason string) error {
	m.mu.Lock()
	e, ok := m.entries[pin]
	if !ok {
		m.mu.Unlock()
		return errUnknownPin
	}
	e.driver.SafeStop()
	e.emergency = true
	e.emergencyBy = reason
	e.confirmed = true
	e.confirmedPWM = nil
	m.mu.Unlock()

	m.publishStatus(pin)
	return nil
}

// EmergencyStopAll applies EmergencyStop to every registered actuator.
func (m *Manager) EmergencyStopAll(reason string) {
	m.mu.Lock()
	pins := make([]int, 0, len(m.entries))
	for pin := range m.entries {
		pins = append(pins, pin)
	}
	m.mu.Unlock()

	for _, pin := range pins {
		_ = m.EmergencyStop(pin, reason)
	}
}

// ClearEmergency clears the flag; it does not automatically restore the
// prior command.
func (m *Manager) ClearEmergency(pin int) error {
	m.mu.Lock()
	e, ok := m.entries[pin]
	if !ok {
		m.mu.Unlock()
		return errUnknownPin
	}
	e.emergency = false
	e.emergencyBy = ""
	m.mu.Unlock()
	return nil
}

// ClearAllEmergencies clears the flag on every registered actuator.
func (m *Manager) ClearAllEmergencies() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		e.emergency = false
		e.emergencyBy = ""
	}
}

// IsEmergencyStopped reports pin's emergency flag, for tests and routing.
func (m *Manager) IsEmergencyStopped(pin int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[pin]
	return ok && e.emergency
}

// Tick publishes status for every actuator whose periodic interval has
// elapsed, at a fixed ~30s period.
func (m *Manager) Tick() {
	m.mu.Lock()
	pins := make([]int, 0, len(m.entries))
	now := m.now()
	for pin, e := range m.entries {
		if now.Sub(e.lastPublish) >= statusPublishInterval {
			pins = append(pins, pin)
		}
	}
	m.mu.Unlock()

	for _, pin := range pins {
		m.publishStatus(pin)
	}
}

func (m *Manager) publishStatus(pin int) {
	m.mu.Lock()
	e, ok := m.entries[pin]
	if !ok {
		m.mu.Unlock()
		return
	}
	state, pwm := e.driver.State()
	emergency := "none"
	if e.emergency {
		emergency = e.emergencyBy
	}
	var runtimeMS int64
	if !e.activatedAt.IsZero() {
		runtimeMS = m.now().Sub(e.activatedAt).Milliseconds()
	}
	e.lastPublish = m.now()
	payload := StatusPayload{
		ESPID:     m.espID,
		ZoneID:    m.zoneID(),
		SubzoneID: e.record.SubZone,
		Timestamp: m.now().Unix(),
		GPIO:      pin,
		Type:      e.record.Type,
		State:     state,
		PWM:       pwm,
		RuntimeMS: runtimeMS,
		Emergency: emergency,
	}
	m.mu.Unlock()

	m.publish(pin, payload)
}

func highestSource(sources map[Priority]float64) (Priority, float64) {
	var top Priority = -1
	var value float64
	for p, v := range sources {
		if p > top {
			top = p
			value = v
		}
	}
	return top, value
}

func clamp(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
