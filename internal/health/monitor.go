package health

import (
	"context"
	"time"
)

const (
	tickInterval      = 60 * time.Second
	heapBandPercent   = 20
	rssiDeltaDBm      = 10
	errorCountJump    = 5
)

// Monitor wraps a Checker with two emission triggers: a time-based emit
// every 60s, and an immediate emit on significant change.
type Monitor struct {
	checker    *Checker
	lastEmit   time.Time
	hasPrev    bool
	prev       NodeView
	now        func() time.Time
}

// NewMonitor creates a monitor around the default check set.
func NewMonitor() *Monitor {
	return &Monitor{checker: NewChecker(), now: time.Now}
}

// Tick evaluates whether a report is due (periodic or delta-triggered) and
// returns it; the second return value is false when nothing should be
// published this tick.
func (m *Monitor) Tick(ctx context.Context, v NodeView) (*Report, bool) {
	due := m.now().Sub(m.lastEmit) >= tickInterval || !m.hasPrev || m.significantChange(v)
	if !due {
		return nil, false
	}

	report := m.checker.Run(ctx, v)
	m.lastEmit = m.now()
	m.prev = v
	m.hasPrev = true
	return report, true
}

func (m *Monitor) significantChange(v NodeView) bool {
	if !m.hasPrev {
		return true
	}
	prev := m.prev

	if heapBand(prev.HeapFreeBytes) != heapBand(v.HeapFreeBytes) {
		return true
	}
	if absInt(v.SignalDBm-prev.SignalDBm) > rssiDeltaDBm {
		return true
	}
	if prev.LinkConnected != v.LinkConnected || prev.BrokerConnected != v.BrokerConnected {
		return true
	}
	if prev.ActiveSensors != v.ActiveSensors || prev.ActiveActuators != v.ActiveActuators {
		return true
	}
	if prev.LifecycleState != v.LifecycleState {
		return true
	}
	if v.ErrorCount-prev.ErrorCount > errorCountJump {
		return true
	}
	return false
}

// heapBand buckets free-heap bytes into 20%-wide bands of a nominal 512KB
// heap (the ESP32's typical usable heap), so a crossing is detectable
// without needing the device's actual total heap size wired through.
func heapBand(freeBytes uint32) int {
	const nominalHeap = 512 * 1024
	percent := int(freeBytes) * 100 / nominalHeap
	return percent / heapBandPercent
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
