package sensor

import "errors"

// errCapacityExceeded is returned by Configure when a new pin would exceed
// the board's sensor capacity.
var errCapacityExceeded = errors.New("sensor: board sensor capacity exceeded")
