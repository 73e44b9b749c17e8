// Package pinmgr is the node's sole authority over physical I/O pins:
// which pin is reserved by which subsystem, and driving a released pin
// back to its board-defined safe state. GPIO-ownership bookkeeping is
// inherent hardware-resource accounting with no third-party library to
// reach for, so the package is a mutex-guarded ownership map.
package pinmgr

import (
	"fmt"
	"sync"

	"github.com/kaiser-net/nodefw/internal/boardprofile"
)

// Kind identifies what category of owner holds a pin.
type Kind string

const (
	KindSensor   Kind = "sensor"
	KindActuator Kind = "actuator"
)

// Reservation describes a pin's current owner.
type Reservation struct {
	Pin     int
	Owner   Kind
	Purpose string
}

// Driver abstracts the electrical operation of driving a pin to its safe
// state — on the real board this is gpio_set_direction/gpio_set_level; here
// it is an injected function so tests can assert it without hardware.
type Driver func(pin int, convention boardprofile.SafeConvention)

// Manager is the authoritative pin owner.
type Manager struct {
	mu         sync.Mutex
	profile    *boardprofile.Profile
	reserved   map[int]Reservation
	driveSafe  Driver
	boardPins  int // total addressable pins, e.g. 0..39 on ESP32
}

// New creates a pin manager for the given board profile. driveSafe may be
// nil, in which case driving a pin safe is a no-op (used by tests that only
// care about ownership bookkeeping).
func New(profile *boardprofile.Profile, totalPins int, driveSafe Driver) *Manager {
	if driveSafe == nil {
		driveSafe = func(int, boardprofile.SafeConvention) {}
	}
	return &Manager{
		profile:   profile,
		reserved:  make(map[int]Reservation),
		driveSafe: driveSafe,
		boardPins: totalPins,
	}
}

// DriveAllSafe drives every addressable pin to the board's safe convention.
// Called once at boot, before any Reserve call.
func (m *Manager) DriveAllSafe() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for pin := 0; pin < m.boardPins; pin++ {
		m.driveSafe(pin, m.profile.SafeStateConvention)
	}
}

// Reserve records an ownership tuple for pin, refusing if it is already
// reserved, restricted, or out of range.
func (m *Manager) Reserve(pin int, owner Kind, purpose string) error {
	if pin < 0 || pin >= m.boardPins {
		return fmt.Errorf("pinmgr: pin %d out of range", pin)
	}
	if m.profile.IsRestrictedPin(pin) {
		return fmt.Errorf("pinmgr: pin %d is restricted on board %s", pin, m.profile.Name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.reserved[pin]; ok {
		return fmt.Errorf("pinmgr: pin %d already reserved by %s (%s)", pin, existing.Owner, existing.Purpose)
	}
	m.reserved[pin] = Reservation{Pin: pin, Owner: owner, Purpose: purpose}
	return nil
}

// Release returns pin to its safe state and clears ownership. Between
// owners the pin is briefly driven safe before any subsequent Reserve can
// make it live again.
func (m *Manager) Release(pin int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reserved, pin)
	m.driveSafe(pin, m.profile.SafeStateConvention)
}

// Status reports a pin's current ownership, for diagnostics.
func (m *Manager) Status(pin int) (Reservation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reserved[pin]
	return r, ok
}

// Reserved returns every currently-reserved pin's ownership, sorted is not
// guaranteed — callers needing order should sort themselves.
func (m *Manager) Reserved() []Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Reservation, 0, len(m.reserved))
	for _, r := range m.reserved {
		out = append(out, r)
	}
	return out
}
