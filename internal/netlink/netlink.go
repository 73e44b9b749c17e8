// Package netlink stands in for the ESP32 Wi-Fi station driver, whose
// radio stack is out of scope for a host-process simulator. Link is the
// interface the supervisor drives; simLink is a deterministic software
// simulation of association so the state machine around it is fully
// exercised.
package netlink

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrAssociationFailed is returned by Connect when the simulated radio
// cannot associate.
var ErrAssociationFailed = errors.New("netlink: association failed")

// Link is what the supervisor and health monitor need from the station
// driver: associate, report signal strength, report connectedness,
// disconnect.
type Link interface {
	Connect(ctx context.Context, ssid, passphrase string) error
	Disconnect()
	Connected() bool
	RSSI() int
}

// simLink is a software stand-in for the radio. Fail is an injectable
// predicate so tests can force association failures without real
// hardware; it defaults to always succeeding.
type simLink struct {
	mu        sync.Mutex
	connected bool
	rssi      int
	Fail      func(ssid, passphrase string) bool
}

// NewSimLink constructs a simulated link that reports rssi while
// connected.
func NewSimLink(rssi int) *simLink {
	return &simLink{rssi: rssi, Fail: func(string, string) bool { return false }}
}

// Connect associates within the deadline implied by ctx; the caller is
// responsible for bounding ctx — Connect itself does not sleep.
func (l *simLink) Connect(ctx context.Context, ssid, passphrase string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Fail(ssid, passphrase) {
		l.connected = false
		return ErrAssociationFailed
	}
	l.connected = true
	return nil
}

// Disconnect tears down the simulated association.
func (l *simLink) Disconnect() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = false
}

// Connected reports current association state.
func (l *simLink) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

// RSSI reports the simulated signal strength, meaningful only while
// connected.
func (l *simLink) RSSI() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.connected {
		return 0
	}
	return l.rssi
}

// ConnectWithTimeout wraps Connect with a bounded association deadline.
func ConnectWithTimeout(ctx context.Context, l Link, ssid, passphrase string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return l.Connect(ctx, ssid, passphrase)
}
