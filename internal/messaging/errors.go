package messaging

import "errors"

var (
	// errConnectionRefused is returned by Connect when the circuit breaker
	// has not yet allowed a retry.
	errConnectionRefused = errors.New("messaging: connection refused by breaker")

	// errUnacknowledged is returned by Publish for a QoS-1 message with no
	// receiving subscriber (simulated missed ack).
	errUnacknowledged = errors.New("messaging: publish unacknowledged")
)
