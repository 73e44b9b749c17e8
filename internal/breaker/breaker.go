// Package breaker implements a generic closed/open/half-open circuit
// breaker, gating reconnect attempts for internal/messaging: a bounded
// retry count before escalating to the open state, with a cooldown before
// the next half-open probe.
package breaker

import (
	"sync"
	"time"
)

// State is one of the three circuit-breaker states.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker trips to Open after Threshold consecutive failures, stays Open
// for OpenDuration, then allows calls in HalfOpen until the next recorded
// outcome: success closes it, failure reopens it for another full
// OpenDuration.
type Breaker struct {
	mu            sync.Mutex
	Threshold     int
	OpenDuration  time.Duration
	HalfOpenAfter time.Duration

	state       State
	failures    int
	openedAt    time.Time
	now         func() time.Time
}

// New creates a breaker with the given failure threshold and open
// duration; halfOpenAfter is stored as HalfOpenAfter, and state transitions
// use only Threshold and OpenDuration. internal/messaging passes 5
// failures, 30s and 10s.
func New(threshold int, openDuration, halfOpenAfter time.Duration) *Breaker {
	return &Breaker{
		Threshold:     threshold,
		OpenDuration:  openDuration,
		HalfOpenAfter: halfOpenAfter,
		state:         Closed,
		now:           time.Now,
	}
}

// Allow reports whether a call may proceed right now, transitioning Open
// to HalfOpen once the cooldown has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case HalfOpen:
		return true
	case Open:
		if b.now().Sub(b.openedAt) >= b.OpenDuration {
			b.state = HalfOpen
			return true
		}
		return false
	default:
		return false
	}
}

// Success records a successful call: in HalfOpen this closes the breaker
// and resets the failure count; in Closed it simply resets the streak.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state = Closed
}

// Failure records a failed call. In Closed, Threshold consecutive
// failures trips to Open. In HalfOpen, any failure reopens immediately.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.trip()
	case Closed:
		b.failures++
		if b.failures >= b.Threshold {
			b.trip()
		}
	}
}

func (b *Breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.failures = 0
}

// State reports the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
