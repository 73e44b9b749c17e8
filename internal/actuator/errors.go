package actuator

import "errors"

var (
	// errCapacityExceeded is returned by Configure when a new pin would
	// exceed the board's actuator capacity.
	errCapacityExceeded = errors.New("actuator: board actuator capacity exceeded")

	// errUnknownPin is returned by any operation on a pin with no
	// registered actuator.
	errUnknownPin = errors.New("actuator: no actuator registered on pin")

	// errEmergencyStopped is returned by Command/ManualOverride while the
	// pin's emergency flag is set.
	errEmergencyStopped = errors.New("actuator: pin is emergency-stopped")
)
